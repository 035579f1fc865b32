// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/stratastor/lifeline/pkg/errors"
)

var (
	mu            sync.Mutex
	shutdownHooks []func()
	reloadHooks   []func()
	cancel        context.CancelFunc
)

func RegisterShutdownHook(hook func()) {
	mu.Lock()
	defer mu.Unlock()
	shutdownHooks = append(shutdownHooks, hook)
}

func RegisterReloadHook(hook func()) {
	mu.Lock()
	defer mu.Unlock()
	reloadHooks = append(reloadHooks, hook)
}

func RegisterContextCanceller(c context.CancelFunc) {
	mu.Lock()
	defer mu.Unlock()
	cancel = c
}

// HandleSignals blocks until SIGTERM/SIGINT or ctx is done.
// SIGHUP runs the reload hooks and keeps waiting.
func HandleSignals(ctx context.Context) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(stop)

	for {
		select {
		case sig := <-stop:
			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				Shutdown()
				return
			case syscall.SIGHUP:
				reload()
			}
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown cancels the registered context then runs shutdown hooks, last registered first.
// Hooks run once; later calls are no-ops.
func Shutdown() {
	mu.Lock()
	c := cancel
	hooks := shutdownHooks
	cancel = nil
	shutdownHooks = nil
	mu.Unlock()

	if c != nil {
		c()
	}
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

func reload() {
	mu.Lock()
	hooks := append([]func(){}, reloadHooks...)
	mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
}

func EnsureSingleInstance(pidPath string) error {
	if pidPath == "" {
		return errors.New(errors.LifecyclePID, "invalid PID file path")
	}

	// Check if PID file exists
	if _, err := os.Stat(pidPath); err == nil {
		pidBytes, err := os.ReadFile(pidPath)
		if err != nil {
			return errors.Wrap(err, errors.LifecyclePID).WithMetadata("path", pidPath)
		}

		content := strings.TrimSpace(string(pidBytes))
		if content == "" {
			// Remove stale empty PID file
			os.Remove(pidPath)
		} else {
			pid, err := strconv.Atoi(content)
			if err != nil {
				return errors.Wrap(err, errors.LifecyclePID).
					WithMetadata("path", pidPath).
					WithMetadata("content", content)
			}

			// Check if process exists
			process, err := os.FindProcess(pid)
			if err == nil {
				if err := process.Signal(syscall.Signal(0)); err == nil {
					return errors.New(errors.LifecyclePID,
						fmt.Sprintf("another instance is already running (PID: %d)", pid)).
						WithMetadata("pid", content)
				}
			}
			// Process not running, remove stale PID file
			os.Remove(pidPath)
		}
	}

	currentPid := os.Getpid()
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(currentPid)), 0644); err != nil {
		return errors.Wrap(err, errors.LifecyclePID).WithMetadata("path", pidPath)
	}

	RegisterShutdownHook(func() {
		os.Remove(pidPath)
	})

	return nil
}
