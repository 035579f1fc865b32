// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"math"
	"time"
)

// Status is the connection state record of a Monitor
type Status struct {
	Connected            bool          `json:"connected"`
	ReconnectAttempts    int           `json:"reconnectAttempts"`
	MaxReconnectAttempts int           `json:"maxReconnectAttempts"`
	ReconnectDelay       time.Duration `json:"-"`
	RetryPending         bool          `json:"retryPending"`
	LastCheckedAt        time.Time     `json:"lastCheckedAt,omitempty"`
	LastError            string        `json:"lastError,omitempty"`
}

// ReconnectDelayMs is the delay in whole milliseconds, as reported by the status API
func (s Status) ReconnectDelayMs() int64 {
	return s.ReconnectDelay.Milliseconds()
}

// Backoff describes the reconnect schedule
type Backoff struct {
	InitialDelay time.Duration
	Factor       float64
	MaxAttempts  int
}

// DefaultBackoff starts at 2s, grows by 1.5 and allows 5 attempts
func DefaultBackoff() Backoff {
	return Backoff{
		InitialDelay: 2 * time.Second,
		Factor:       1.5,
		MaxAttempts:  5,
	}
}

// Next returns the delay that follows d
func (b Backoff) Next(d time.Duration) time.Duration {
	return time.Duration(float64(d) * b.Factor)
}

// DelayAfter returns the delay once n attempts have been scheduled: InitialDelay * Factor^n
func (b Backoff) DelayAfter(n int) time.Duration {
	return time.Duration(float64(b.InitialDelay) * math.Pow(b.Factor, float64(n)))
}

func (b Backoff) initialStatus() Status {
	return Status{
		Connected:            true,
		ReconnectAttempts:    0,
		MaxReconnectAttempts: b.MaxAttempts,
		ReconnectDelay:       b.InitialDelay,
	}
}
