// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stratastor/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCronScheduler(t *testing.T) *CronScheduler {
	l, err := logger.New(logger.Config{LogLevel: "debug"})
	require.NoError(t, err)

	s, err := NewCronScheduler(l)
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { s.Shutdown() })
	return s
}

func TestCronSchedulerAfterRunsOnce(t *testing.T) {
	s := newCronScheduler(t)
	var runs atomic.Int32

	_, err := s.After(50*time.Millisecond, func() { runs.Add(1) })
	require.NoError(t, err)

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestCronSchedulerCancelBeforeRun(t *testing.T) {
	s := newCronScheduler(t)
	var runs atomic.Int32

	task, err := s.After(300*time.Millisecond, func() { runs.Add(1) })
	require.NoError(t, err)
	task.Cancel()

	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(0), runs.Load())

	// Cancelling twice is harmless
	task.Cancel()
}

func TestCronSchedulerEvery(t *testing.T) {
	s := newCronScheduler(t)
	var runs atomic.Int32

	task, err := s.Every(50*time.Millisecond, func() { runs.Add(1) })
	require.NoError(t, err)

	require.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
	task.Cancel()

	time.Sleep(100 * time.Millisecond)
	after := runs.Load()
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}
