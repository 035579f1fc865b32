// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package origin

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stratastor/logger"
)

const writeWait = 5 * time.Second

type peer struct {
	conn   *websocket.Conn
	origin string
	mu     sync.Mutex // serializes writes
}

func (p *peer) write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub keeps WebSocket peers keyed by their page origin and implements Poster
type Hub struct {
	logger   logger.Logger
	allowed  map[string]struct{}
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	peers map[*peer]struct{}
}

// NewHub creates a hub accepting peers from allowedOrigins; none means any origin
func NewHub(l logger.Logger, allowedOrigins ...string) *Hub {
	h := &Hub{
		logger:  l,
		allowed: make(map[string]struct{}),
		peers:   make(map[*peer]struct{}),
	}
	for _, o := range allowedOrigins {
		if n, err := Normalize(o); err == nil {
			h.allowed[n] = struct{}{}
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	o, err := Normalize(r.Header.Get("Origin"))
	if err != nil {
		return false
	}
	if len(h.allowed) == 0 {
		return true
	}
	_, ok := h.allowed[o]
	return ok
}

// ServeHTTP upgrades the request and keeps the peer until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Debug("message channel upgrade rejected",
			"origin", r.Header.Get("Origin"),
			"error", err)
		return
	}

	// checkOrigin already validated the header
	o, _ := Normalize(r.Header.Get("Origin"))
	p := &peer{conn: conn, origin: o}

	h.mu.Lock()
	h.peers[p] = struct{}{}
	count := len(h.peers)
	h.mu.Unlock()

	h.logger.Info("message peer connected", "origin", o, "peers", count)

	// Pages do not talk back; reading only detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.drop(p)
}

func (h *Hub) drop(p *peer) {
	h.mu.Lock()
	_, ok := h.peers[p]
	delete(h.peers, p)
	count := len(h.peers)
	h.mu.Unlock()

	if ok {
		p.conn.Close()
		h.logger.Info("message peer disconnected", "origin", p.origin, "peers", count)
	}
}

// PostMessage sends the envelope to every peer whose origin matches targetOrigin
func (h *Hub) PostMessage(message any, targetOrigin string, transfer ...any) error {
	data, err := json.Marshal(Envelope{
		Message:      message,
		TargetOrigin: targetOrigin,
		Transfer:     transfer,
	})
	if err != nil {
		return errors.Wrap(err, errors.MessagingEncodeFailed)
	}

	h.mu.RLock()
	targets := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		if Matches(targetOrigin, p.origin) {
			targets = append(targets, p)
		}
	}
	h.mu.RUnlock()

	failed := 0
	for _, p := range targets {
		if err := p.write(data); err != nil {
			failed++
			h.logger.Warn("dropping message peer after write failure",
				"origin", p.origin,
				"error", err)
			h.drop(p)
		}
	}

	if failed > 0 {
		return errors.New(errors.MessagingDeliveryFailed, "some peers did not receive the message").
			WithMetadata("failed", fmt.Sprintf("%d", failed)).
			WithMetadata("targeted", fmt.Sprintf("%d", len(targets)))
	}
	return nil
}

// Peers returns the number of connected peers
func (h *Hub) Peers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

// Close disconnects every peer
func (h *Hub) Close() {
	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[*peer]struct{})
	h.mu.Unlock()

	for p := range peers {
		p.mu.Lock()
		p.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(writeWait))
		p.mu.Unlock()
		p.conn.Close()
	}
}
