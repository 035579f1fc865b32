// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/stratastor/lifeline/internal/constants"
	"github.com/stratastor/lifeline/pkg/errors"
)

var (
	dirsOnce  sync.Once
	configDir string // Directory for configuration files
	runDir    string // Directory for the PID file and other runtime state
)

func resolveDirs() {
	dirsOnce.Do(func() {
		if os.Geteuid() == 0 {
			configDir = constants.ConfigDir
			runDir = filepath.Dir(constants.LifelinePIDFilePath)
			return
		}

		homeDir, err := os.UserHomeDir()
		if err != nil {
			// Fall back to the working directory; nothing else is writable for sure
			homeDir = "."
		}
		configDir = filepath.Join(homeDir, ".lifeline")
		runDir = configDir
	})
}

// GetConfigDir returns the appropriate configuration directory
// If running as root, it returns the system config directory
// Otherwise, it returns the user config directory
func GetConfigDir() string {
	resolveDirs()
	return configDir
}

// GetRunDir returns the directory holding the PID file
func GetRunDir() string {
	resolveDirs()
	return runDir
}

// GetPIDFilePath returns where the watch command records its PID
func GetPIDFilePath() string {
	return filepath.Join(GetRunDir(), "lifeline.pid")
}

// EnsureDirectories creates necessary directories if they do not exist
func EnsureDirectories() error {
	for _, dir := range []string{GetConfigDir(), GetRunDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, errors.ConfigWriteFailed).WithMetadata("path", dir)
		}
	}
	return nil
}
