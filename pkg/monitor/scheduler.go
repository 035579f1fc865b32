// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stratastor/logger"
)

// Task is a scheduled callback that can be cancelled before it runs
type Task interface {
	Cancel()
}

// Scheduler runs callbacks later. Callbacks never run on the calling goroutine.
type Scheduler interface {
	// After runs fn once, d from now
	After(d time.Duration, fn func()) (Task, error)
	// Every runs fn every d, starting d from now
	Every(d time.Duration, fn func()) (Task, error)
}

// CronScheduler is a Scheduler backed by gocron
type CronScheduler struct {
	scheduler gocron.Scheduler
	logger    logger.Logger

	stopOnce sync.Once
	stopErr  error
}

type cronTask struct {
	scheduler gocron.Scheduler
	id        uuid.UUID
}

func (t *cronTask) Cancel() {
	// A job that already ran to its run limit is gone; that is fine
	_ = t.scheduler.RemoveJob(t.id)
}

// NewCronScheduler creates a gocron scheduler; call Start before jobs can run
func NewCronScheduler(l logger.Logger, opts ...gocron.SchedulerOption) (*CronScheduler, error) {
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.HeartbeatSchedule).
			WithMetadata("operation", "create_scheduler")
	}
	return &CronScheduler{scheduler: s, logger: l}, nil
}

func (cs *CronScheduler) Start() {
	cs.scheduler.Start()
	cs.logger.Debug("probe scheduler started")
}

// Shutdown stops the scheduler; later calls return the first result
func (cs *CronScheduler) Shutdown() error {
	cs.stopOnce.Do(func() {
		if err := cs.scheduler.Shutdown(); err != nil {
			cs.stopErr = errors.Wrap(err, errors.HeartbeatSchedule).
				WithMetadata("operation", "shutdown_scheduler")
			return
		}
		cs.logger.Debug("probe scheduler stopped")
	})
	return cs.stopErr
}

func (cs *CronScheduler) After(d time.Duration, fn func()) (Task, error) {
	job, err := cs.scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(time.Now().Add(d))),
		gocron.NewTask(fn),
		gocron.WithName("reconnect"),
		gocron.WithLimitedRuns(1),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.HeartbeatSchedule).
			WithMetadata("job", "reconnect").
			WithMetadata("delay", d.String())
	}
	return &cronTask{scheduler: cs.scheduler, id: job.ID()}, nil
}

func (cs *CronScheduler) Every(d time.Duration, fn func()) (Task, error) {
	job, err := cs.scheduler.NewJob(
		gocron.DurationJob(d),
		gocron.NewTask(fn),
		gocron.WithName("heartbeat"),
		// A hung probe delays the next one instead of stacking up
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.HeartbeatSchedule).
			WithMetadata("job", "heartbeat").
			WithMetadata("interval", d.String())
	}
	return &cronTask{scheduler: cs.scheduler, id: job.ID()}, nil
}
