// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package notify tells users about connectivity through a single banner.
package notify

import (
	"sync"

	"github.com/stratastor/lifeline/internal/constants"
	"github.com/stratastor/lifeline/pkg/origin"
	"github.com/stratastor/logger"
)

// Banner is the connectivity message shown to users
type Banner struct {
	ID       string `json:"id"`
	Message  string `json:"message"`
	Terminal bool   `json:"terminal"` // No automatic retry is pending; user must refresh
}

// NewBanner builds a banner with the fixed connection-error id
func NewBanner(message string, terminal bool) Banner {
	return Banner{ID: constants.BannerID, Message: message, Terminal: terminal}
}

// Notifier shows or clears the banner. Show replaces any banner already shown.
type Notifier interface {
	Show(b Banner)
	Clear()
}

// Board holds the current banner in memory
type Board struct {
	mu      sync.RWMutex
	current *Banner
}

func NewBoard() *Board {
	return &Board{}
}

func (b *Board) Show(banner Banner) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = &banner
}

func (b *Board) Clear() {
	b.Remove()
}

// Remove clears the banner and reports whether one was present
func (b *Board) Remove() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	had := b.current != nil
	b.current = nil
	return had
}

// Current returns the banner being shown, if any
func (b *Board) Current() (Banner, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return Banner{}, false
	}
	return *b.current, true
}

// LogNotifier records banner transitions in the log
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(l logger.Logger) *LogNotifier {
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Show(b Banner) {
	if b.Terminal {
		n.logger.Error("connection banner shown", "id", b.ID, "message", b.Message, "terminal", true)
		return
	}
	n.logger.Warn("connection banner shown", "id", b.ID, "message", b.Message)
}

func (n *LogNotifier) Clear() {
	n.logger.Info("connection banner cleared", "id", constants.BannerID)
}

// Message types pushed to pages by PostNotifier
const (
	MessageBannerShow  = "connection-banner"
	MessageBannerClear = "connection-banner-clear"
)

// BannerMessage is the payload PostNotifier posts
type BannerMessage struct {
	Type   string  `json:"type"`
	Banner *Banner `json:"banner,omitempty"`
}

// PostNotifier pushes banner changes to pages through a Poster.
// The target origin is left to the poster; wrap it with origin.ForceOrigin.
type PostNotifier struct {
	poster origin.Poster
	logger logger.Logger

	mu    sync.Mutex
	shown bool
}

func NewPostNotifier(p origin.Poster, l logger.Logger) *PostNotifier {
	return &PostNotifier{poster: p, logger: l}
}

func (n *PostNotifier) Show(b Banner) {
	n.mu.Lock()
	n.shown = true
	n.mu.Unlock()

	if err := n.poster.PostMessage(BannerMessage{Type: MessageBannerShow, Banner: &b}, origin.Wildcard); err != nil {
		n.logger.Warn("failed to post banner", "error", err)
	}
}

// Clear posts a clear message only if a banner was posted before
func (n *PostNotifier) Clear() {
	n.mu.Lock()
	had := n.shown
	n.shown = false
	n.mu.Unlock()

	if !had {
		return
	}
	if err := n.poster.PostMessage(BannerMessage{Type: MessageBannerClear}, origin.Wildcard); err != nil {
		n.logger.Warn("failed to post banner clear", "error", err)
	}
}

// Multi fans each call out to all notifiers in order
type Multi []Notifier

func (m Multi) Show(b Banner) {
	for _, n := range m {
		n.Show(b)
	}
}

func (m Multi) Clear() {
	for _, n := range m {
		n.Clear()
	}
}
