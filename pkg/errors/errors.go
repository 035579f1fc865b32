// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type LifelineError struct {
	Code       ErrorCode         `json:"code"`
	Domain     Domain            `json:"domain"`
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	HTTPStatus int               `json:"-"`
	Metadata   map[string]string `json:"metadata,omitempty"`

	cause error
}

// New creates an error for code with the given details
func New(code ErrorCode, details string) *LifelineError {
	def, ok := errorDefinitions[code]
	if !ok {
		return &LifelineError{
			Code:       code,
			Domain:     DomainMisc,
			Message:    "Unknown error",
			Details:    details,
			HTTPStatus: http.StatusInternalServerError,
		}
	}
	return &LifelineError{
		Code:       code,
		Domain:     def.domain,
		Message:    def.message,
		Details:    details,
		HTTPStatus: def.httpStatus,
	}
}

// Wrap attaches code to err. The original error stays reachable through Unwrap.
func Wrap(err error, code ErrorCode) *LifelineError {
	if err == nil {
		return nil
	}
	e := New(code, err.Error())
	e.cause = err
	return e
}

func (e *LifelineError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s-%d] %s: %s", e.Domain, e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s-%d] %s", e.Domain, e.Code, e.Message)
}

func (e *LifelineError) Unwrap() error {
	return e.cause
}

// WithMetadata adds a key/value pair and returns the same error for chaining
func (e *LifelineError) WithMetadata(key, value string) *LifelineError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// IsCode reports whether any error in err's chain is a LifelineError with code
func IsCode(err error, code ErrorCode) bool {
	var le *LifelineError
	for err != nil {
		if !stderrors.As(err, &le) {
			return false
		}
		if le.Code == code {
			return true
		}
		err = le.cause
	}
	return false
}

// Cause returns the innermost non-LifelineError error, or err itself
func Cause(err error) error {
	for {
		le, ok := err.(*LifelineError)
		if !ok || le.cause == nil {
			return err
		}
		err = le.cause
	}
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
