// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package monitor tracks whether the application server is reachable.
//
// A fixed-interval probe hits the heartbeat endpoint. After a failure the
// monitor shows a banner and schedules retries with a growing delay until
// the attempt cap is reached, then asks the user to refresh. A successful
// probe resets everything and clears the banner.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/stratastor/lifeline/internal/constants"
	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stratastor/lifeline/pkg/notify"
	"github.com/stratastor/logger"
	"golang.org/x/sync/singleflight"
)

const DefaultInterval = 30 * time.Second

// Observer receives monitor events, e.g. for metrics
type Observer interface {
	ProbeCompleted(err error, elapsed time.Duration)
	StatusChanged(s Status)
	RetriesExhausted()
}

type nopObserver struct{}

func (nopObserver) ProbeCompleted(error, time.Duration) {}
func (nopObserver) StatusChanged(Status)                {}
func (nopObserver) RetriesExhausted()                   {}

type Option func(*Monitor)

func WithObserver(o Observer) Option {
	return func(m *Monitor) { m.observer = o }
}

func WithBackoff(b Backoff) Option {
	return func(m *Monitor) { m.backoff = b }
}

func WithInterval(d time.Duration) Option {
	return func(m *Monitor) { m.interval = d }
}

type Monitor struct {
	prober    Prober
	notifier  notify.Notifier
	scheduler Scheduler
	observer  Observer
	logger    logger.Logger
	backoff   Backoff
	interval  time.Duration

	group singleflight.Group

	// notifyMu orders notifier calls with the transitions that caused them.
	// Lock order is notifyMu, then mu; notifiers must not call back into the monitor.
	notifyMu sync.Mutex

	mu       sync.Mutex
	status   Status
	retry    Task
	retrySeq uint64 // identifies the live retry; stale callbacks see a different value
	periodic Task
	ctx      context.Context // parent of scheduled probes
	cancel   context.CancelFunc
}

func New(p Prober, n notify.Notifier, s Scheduler, l logger.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		prober:    p,
		notifier:  n,
		scheduler: s,
		observer:  nopObserver{},
		logger:    l,
		backoff:   DefaultBackoff(),
		interval:  DefaultInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.status = m.backoff.initialStatus()
	m.ctx, m.cancel = context.WithCancel(context.Background())
	return m
}

// Start begins the periodic probe. The first probe runs one interval from now.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.periodic != nil {
		return nil
	}

	m.cancel()
	m.ctx, m.cancel = context.WithCancel(ctx)

	task, err := m.scheduler.Every(m.interval, m.periodicProbe)
	if err != nil {
		return errors.Wrap(err, errors.HeartbeatSchedule).
			WithMetadata("interval", m.interval.String())
	}
	m.periodic = task

	m.logger.Info("Connection monitoring initialized",
		"interval", m.interval.String(),
		"max_reconnect_attempts", m.backoff.MaxAttempts)
	return nil
}

// Stop cancels the periodic probe, any pending retry and in-flight probes
func (m *Monitor) Stop() {
	m.mu.Lock()
	m.cancel()
	periodic, retry := m.periodic, m.retry
	m.periodic, m.retry = nil, nil
	m.retrySeq++
	m.status.RetryPending = false
	m.mu.Unlock()

	if periodic != nil {
		periodic.Cancel()
	}
	if retry != nil {
		retry.Cancel()
	}
	m.logger.Info("Connection monitoring stopped")
}

// Status returns a copy of the current connection status
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Monitor) periodicProbe() {
	m.mu.Lock()
	pending := m.retry != nil
	ctx := m.ctx
	m.mu.Unlock()

	if pending {
		m.logger.Debug("skipping periodic probe, reconnect attempt pending")
		return
	}
	m.CheckConnection(ctx)
}

func (m *Monitor) retryProbe(seq uint64) {
	m.mu.Lock()
	if seq != m.retrySeq {
		m.mu.Unlock()
		return
	}
	m.retry = nil
	m.status.RetryPending = false
	ctx := m.ctx
	m.mu.Unlock()

	m.CheckConnection(ctx)
}

// CheckConnection probes the heartbeat endpoint and updates the status.
// Failures have already gone through HandleConnectionError when they are returned.
// Concurrent calls share a single probe.
func (m *Monitor) CheckConnection(ctx context.Context) error {
	_, err, _ := m.group.Do("probe", func() (any, error) {
		return nil, m.probe(ctx)
	})
	return err
}

func (m *Monitor) probe(ctx context.Context) error {
	start := time.Now()
	err := m.prober.Probe(ctx)
	m.observer.ProbeCompleted(err, time.Since(start))

	if err == nil {
		m.handleSuccess()
		return nil
	}

	if ctx.Err() != nil {
		// Shutting down; the failure says nothing about the server
		return err
	}

	m.HandleConnectionError(describe(err))
	return err
}

func describe(err error) string {
	if errors.IsCode(err, errors.HeartbeatBadStatus) {
		return "Server returned error status"
	}
	return "Connection error: " + errors.Cause(err).Error()
}

func (m *Monitor) handleSuccess() {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	restored := !m.status.Connected
	m.status.Connected = true
	m.status.ReconnectAttempts = 0
	m.status.ReconnectDelay = m.backoff.InitialDelay
	m.status.LastCheckedAt = time.Now()
	m.status.LastError = ""
	m.status.RetryPending = false
	retry := m.retry
	m.retry = nil
	m.retrySeq++
	snapshot := m.status
	m.mu.Unlock()

	if retry != nil {
		retry.Cancel()
	}
	if restored {
		m.logger.Info("Connection restored")
		m.notifier.Clear()
	}
	m.observer.StatusChanged(snapshot)
}

// HandleConnectionError records a failure, shows the banner and schedules the next reconnect attempt
func (m *Monitor) HandleConnectionError(message string) {
	m.logger.Warn(message)

	var banners []notify.Banner
	exhausted := false

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	m.status.LastCheckedAt = time.Now()
	m.status.LastError = message

	if m.status.Connected {
		m.status.Connected = false
		banners = append(banners, notify.NewBanner(constants.LostMessage, false))
	}

	switch {
	case m.retry != nil:
		// The pending attempt will probe again; one failure per probe moves the counter
		m.logger.Debug("reconnect attempt already pending",
			"attempt", m.status.ReconnectAttempts)

	case m.status.ReconnectAttempts < m.backoff.MaxAttempts:
		attempt := m.status.ReconnectAttempts + 1
		delay := m.backoff.Next(m.status.ReconnectDelay)
		seq := m.retrySeq + 1

		task, err := m.scheduler.After(delay, func() { m.retryProbe(seq) })
		if err != nil {
			m.logger.Error("failed to schedule reconnect attempt",
				"attempt", attempt,
				"error", err)
			banners = append(banners, notify.NewBanner(constants.ExhaustedMessage, true))
			break
		}

		m.retrySeq = seq
		m.retry = task
		m.status.ReconnectAttempts = attempt
		m.status.ReconnectDelay = delay
		m.status.RetryPending = true

		m.logger.Info("Reconnect attempt scheduled",
			"attempt", attempt,
			"delay_s", delay.Round(time.Second).Seconds())

	default:
		exhausted = true
		banners = append(banners, notify.NewBanner(constants.ExhaustedMessage, true))
	}

	snapshot := m.status
	m.mu.Unlock()

	for _, b := range banners {
		m.notifier.Show(b)
	}
	m.observer.StatusChanged(snapshot)
	if exhausted {
		m.observer.RetriesExhausted()
	}
}
