// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownRunsHooksInReverseOnce(t *testing.T) {
	var order []int
	ctx, c := context.WithCancel(context.Background())
	RegisterContextCanceller(c)
	RegisterShutdownHook(func() { order = append(order, 1) })
	RegisterShutdownHook(func() { order = append(order, 2) })

	Shutdown()
	Shutdown()

	assert.Equal(t, []int{2, 1}, order)
	assert.Error(t, ctx.Err(), "context should be cancelled")
}

func TestReloadHooks(t *testing.T) {
	calls := 0
	RegisterReloadHook(func() { calls++ })

	reload()
	reload()

	assert.Equal(t, 2, calls)
}

func TestHandleSignalsReturnsOnContextDone(t *testing.T) {
	ctx, c := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		HandleSignals(ctx)
		close(done)
	}()

	c()
	<-done
}

func TestEnsureSingleInstance(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "lifeline.pid")

	require.NoError(t, EnsureSingleInstance(pidPath))
	content, err := os.ReadFile(pidPath)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(content))

	// Our own PID is alive, so a second claim must fail
	err = EnsureSingleInstance(pidPath)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.LifecyclePID))

	// The registered hook removes the PID file
	Shutdown()
	_, err = os.Stat(pidPath)
	assert.True(t, os.IsNotExist(err))
}

func TestEnsureSingleInstanceReplacesStaleFiles(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.pid")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	require.NoError(t, EnsureSingleInstance(empty))

	garbage := filepath.Join(dir, "garbage.pid")
	require.NoError(t, os.WriteFile(garbage, []byte("not-a-pid"), 0644))
	assert.Error(t, EnsureSingleInstance(garbage))

	assert.Error(t, EnsureSingleInstance(""))
	Shutdown()
}
