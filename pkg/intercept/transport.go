// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package intercept reports failed application requests to the connection monitor.
package intercept

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/stratastor/lifeline/internal/constants"
)

// ErrorHandler is told about transport failures on watched paths
type ErrorHandler interface {
	HandleConnectionError(message string)
}

// DefaultPaths are the request paths whose failures indicate the server is gone
var DefaultPaths = []string{constants.GradioAPIPath, constants.ChatPath}

// Transport wraps a RoundTripper. Failures of requests whose URL contains one
// of Paths are reported to Handler; the error is always returned unchanged.
type Transport struct {
	Base    http.RoundTripper
	Handler ErrorHandler
	Paths   []string
}

// NewTransport wraps base; nil paths means DefaultPaths
func NewTransport(base http.RoundTripper, h ErrorHandler, paths []string) *Transport {
	if paths == nil {
		paths = DefaultPaths
	}
	return &Transport{Base: base, Handler: h, Paths: paths}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	// The caller gave up; that is not a server failure
	if errors.Is(err, context.Canceled) {
		return resp, err
	}

	if t.Handler != nil && t.Watched(req.URL.String()) {
		t.Handler.HandleConnectionError("Fetch error: " + err.Error())
	}
	return resp, err
}

// Watched reports whether url contains any of the watched paths
func (t *Transport) Watched(url string) bool {
	for _, p := range t.Paths {
		if p != "" && strings.Contains(url, p) {
			return true
		}
	}
	return false
}
