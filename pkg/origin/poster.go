// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package origin carries cross-window style messages to pages and pins
// their target origin to the page's own origin.
package origin

import (
	"net/url"
	"strings"

	"github.com/stratastor/lifeline/pkg/errors"
)

// Wildcard targets every origin
const Wildcard = "*"

// Poster delivers a message to windows whose origin matches targetOrigin
type Poster interface {
	PostMessage(message any, targetOrigin string, transfer ...any) error
}

// PosterFunc adapts a function to Poster
type PosterFunc func(message any, targetOrigin string, transfer ...any) error

func (f PosterFunc) PostMessage(message any, targetOrigin string, transfer ...any) error {
	return f(message, targetOrigin, transfer...)
}

// Envelope is the wire form of a posted message
type Envelope struct {
	Message      any    `json:"message"`
	TargetOrigin string `json:"targetOrigin"`
	Transfer     []any  `json:"transfer,omitempty"`
}

type pinnedPoster struct {
	next    Poster
	current func() string
}

// ForceOrigin wraps p so every call targets current(), whatever origin
// the caller asked for. Message and transfer list pass through unchanged.
func ForceOrigin(p Poster, current func() string) Poster {
	return &pinnedPoster{next: p, current: current}
}

func (p *pinnedPoster) PostMessage(message any, _ string, transfer ...any) error {
	return p.next.PostMessage(message, p.current(), transfer...)
}

// Static returns a current-origin func that always yields origin
func Static(origin string) func() string {
	return func() string { return origin }
}

// Normalize reduces a URL or Origin header value to scheme://host[:port],
// lowercased and without default ports.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return "", errors.New(errors.MessagingUpgradeFailed, "opaque or missing origin")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrap(err, errors.MessagingUpgradeFailed).WithMetadata("origin", raw)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.New(errors.MessagingUpgradeFailed, "origin needs scheme and host").
			WithMetadata("origin", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host, nil
}

// Matches reports whether a window at origin receives a message sent to target
func Matches(target, origin string) bool {
	if target == Wildcard {
		return true
	}
	t, err := Normalize(target)
	if err != nil {
		return false
	}
	return t == origin
}
