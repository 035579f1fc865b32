// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"strconv"
	"time"

	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stratastor/lifeline/pkg/httpclient"
)

// Prober checks server liveness once
type Prober interface {
	Probe(ctx context.Context) error
}

// HeartbeatProber issues a no-cache GET to the heartbeat URL. The body is ignored.
type HeartbeatProber struct {
	client *httpclient.Client
	url    string
}

// NewHeartbeatProber creates a prober for url; timeout <= 0 keeps the client default
func NewHeartbeatProber(url string, timeout time.Duration) *HeartbeatProber {
	cfg := httpclient.NewClientConfig()
	if timeout > 0 {
		cfg.Timeout = timeout
	}
	return &HeartbeatProber{
		client: httpclient.NewClient(cfg),
		url:    url,
	}
}

func (p *HeartbeatProber) URL() string {
	return p.url
}

func (p *HeartbeatProber) Probe(ctx context.Context) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Cache-Control", "no-store").
		SetHeader("Pragma", "no-cache").
		Get(p.url)
	if err != nil {
		return errors.Wrap(err, errors.HeartbeatRequestFailed).
			WithMetadata("url", p.url)
	}

	if !resp.IsSuccess() {
		return errors.New(errors.HeartbeatBadStatus, resp.Status()).
			WithMetadata("url", p.url).
			WithMetadata("status", strconv.Itoa(resp.StatusCode()))
	}

	return nil
}
