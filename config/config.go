// Copyright 2024 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
	"github.com/stratastor/lifeline/internal/constants"
	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stratastor/logger"
	"gopkg.in/yaml.v3"
)

var (
	instance   *Config
	mu         sync.Mutex
	configPath string // Tracks where the config was loaded from
)

type Config struct {
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`

	Monitor struct {
		Origin               string  `mapstructure:"origin"`        // Page origin of the watched application
		HeartbeatPath        string  `mapstructure:"heartbeatPath"` // Appended to Origin
		Interval             string  `mapstructure:"interval"`      // Fixed periodic probe interval
		InitialDelay         string  `mapstructure:"initialDelay"`  // First reconnect delay before growth
		BackoffFactor        float64 `mapstructure:"backoffFactor"`
		MaxReconnectAttempts int     `mapstructure:"maxReconnectAttempts"`
		ProbeTimeout         string  `mapstructure:"probeTimeout"`
	} `mapstructure:"monitor"`

	Intercept struct {
		Paths []string `mapstructure:"paths"` // URL substrings whose failures reach the monitor
	} `mapstructure:"intercept"`

	Proxy struct {
		Enabled        bool   `mapstructure:"enabled"`
		Upstream       string `mapstructure:"upstream"`     // Defaults to monitor.origin
		PublicOrigin   string `mapstructure:"publicOrigin"` // Origin browsers use to reach the agent
		DedupAutofocus bool   `mapstructure:"dedupAutofocus"`
		InjectBanner   bool   `mapstructure:"injectBanner"`
	} `mapstructure:"proxy"`

	Logs struct {
		Path   string `mapstructure:"path"`
		Output string `mapstructure:"output"` // stdout or file
	} `mapstructure:"logs"`

	Logger struct {
		LogLevel     string `mapstructure:"logLevel"`
		EnableSentry bool   `mapstructure:"enableSentry"`
		SentryDSN    string `mapstructure:"sentryDSN"`
	} `mapstructure:"logger"`

	Environment string `mapstructure:"environment"`
}

// MonitorTimings holds the parsed duration settings of the monitor section
type MonitorTimings struct {
	Interval     time.Duration
	InitialDelay time.Duration
	ProbeTimeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "dev")
	v.SetDefault("server.port", 8043)

	v.SetDefault("monitor.origin", "http://127.0.0.1:7860")
	v.SetDefault("monitor.heartbeatPath", constants.HeartbeatPath)
	v.SetDefault("monitor.interval", "30s")
	v.SetDefault("monitor.initialDelay", "2s")
	v.SetDefault("monitor.backoffFactor", 1.5)
	v.SetDefault("monitor.maxReconnectAttempts", 5)
	v.SetDefault("monitor.probeTimeout", "10s")

	v.SetDefault("intercept.paths", []string{constants.GradioAPIPath, constants.ChatPath})

	v.SetDefault("proxy.enabled", false)
	v.SetDefault("proxy.upstream", "")
	v.SetDefault("proxy.publicOrigin", "")
	v.SetDefault("proxy.dedupAutofocus", true)
	v.SetDefault("proxy.injectBanner", true)

	v.SetDefault("logs.path", "/var/log/lifeline/lifeline.log")
	v.SetDefault("logs.output", "stdout")
	v.SetDefault("logger.logLevel", "info")
	v.SetDefault("logger.enableSentry", false)
	v.SetDefault("logger.sentryDSN", "")
}

// ResolvePath picks the config file with clear priorities:
// explicit path, then LIFELINE_CONFIG, then the default config directory.
func ResolvePath(configFilePath string) string {
	path := configFilePath
	if path == "" {
		path = os.Getenv("LIFELINE_CONFIG")
	}
	if path == "" {
		path = filepath.Join(GetConfigDir(), constants.ConfigFileName)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return path
}

// Load reads the config at path, applying defaults and LIFELINE_* overrides.
// A missing file is not an error: defaults are used and written to path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("LIFELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	missing := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			missing = true
		} else {
			return nil, errors.Wrap(err, errors.ConfigLoadFailed).
				WithMetadata("path", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ConfigUnmarshalFailed).
			WithMetadata("path", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if missing {
		if err := writeConfig(&cfg, path); err != nil {
			return &cfg, err
		}
	}

	return &cfg, nil
}

// LoadConfig loads the process-wide configuration with precedence rules.
func LoadConfig(configFilePath string) *Config {
	mu.Lock()
	defer mu.Unlock()

	l, err := logger.NewTag(logger.Config{LogLevel: "info"}, "config")
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	path := ResolvePath(configFilePath)
	l.Info("Using config file", "path", path)

	cfg, err := Load(path)
	if cfg == nil {
		l.Error("Failed to load configuration, falling back to defaults", "err", err)
		cfg = Defaults()
	} else if err != nil {
		l.Warn("Config loaded but defaults could not be saved", "path", path, "err", err)
	}

	instance = cfg
	configPath = path
	l.Debug("Loaded configuration", "config", fmt.Sprintf("%+v", *instance))

	return instance
}

// Defaults returns a configuration holding only default values
func Defaults() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are static and always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks the configuration for values the agent cannot run with
func (c *Config) Validate() error {
	u, err := url.Parse(c.Monitor.Origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New(errors.ConfigValidationFailed, "monitor.origin must be an absolute http(s) URL").
			WithMetadata("origin", c.Monitor.Origin)
	}

	if !strings.HasPrefix(c.Monitor.HeartbeatPath, "/") {
		return errors.New(errors.ConfigValidationFailed, "monitor.heartbeatPath must start with /").
			WithMetadata("heartbeatPath", c.Monitor.HeartbeatPath)
	}

	if _, err := c.Timings(); err != nil {
		return err
	}

	if c.Monitor.BackoffFactor < 1 {
		return errors.New(errors.ConfigValidationFailed, "monitor.backoffFactor must be >= 1").
			WithMetadata("backoffFactor", fmt.Sprintf("%g", c.Monitor.BackoffFactor))
	}

	if c.Monitor.MaxReconnectAttempts < 0 {
		return errors.New(errors.ConfigValidationFailed, "monitor.maxReconnectAttempts must be >= 0").
			WithMetadata("maxReconnectAttempts", fmt.Sprintf("%d", c.Monitor.MaxReconnectAttempts))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New(errors.ConfigValidationFailed, "server.port out of range").
			WithMetadata("port", fmt.Sprintf("%d", c.Server.Port))
	}

	if c.Proxy.Enabled {
		if err := c.validateProxy(); err != nil {
			return err
		}
	}

	return nil
}

func (c *Config) validateProxy() error {
	if c.Proxy.Upstream != "" {
		if u, err := url.Parse(c.Proxy.Upstream); err != nil || u.Host == "" {
			return errors.New(errors.ConfigValidationFailed, "proxy.upstream must be an absolute URL").
				WithMetadata("upstream", c.Proxy.Upstream)
		}
	}

	if c.Proxy.PublicOrigin != "" {
		u, err := url.Parse(c.Proxy.PublicOrigin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New(errors.ConfigValidationFailed, "proxy.publicOrigin must be an absolute http(s) URL").
				WithMetadata("publicOrigin", c.Proxy.PublicOrigin)
		}
	}

	// The proxy would forward to itself
	if c.pointsAtAgent(c.UpstreamURL()) {
		return errors.New(errors.ConfigValidationFailed,
			"proxy.upstream must be set when monitor.origin is the agent's own address").
			WithMetadata("origin", c.Monitor.Origin).
			WithMetadata("upstream", c.Proxy.Upstream)
	}

	return nil
}

// pointsAtAgent reports whether raw addresses this agent's listener
func (c *Config) pointsAtAgent(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}

	if c.Proxy.PublicOrigin != "" {
		if pub, err := url.Parse(c.Proxy.PublicOrigin); err == nil && strings.EqualFold(pub.Host, u.Host) {
			return true
		}
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}
	if port != strconv.Itoa(c.Server.Port) {
		return false
	}

	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	}
	return false
}

// PageOrigin is the origin of the pages that talk to the agent. Proxied pages
// are served by the agent itself, so in proxy mode this is the agent's origin.
func (c *Config) PageOrigin() string {
	if !c.Proxy.Enabled {
		return c.Monitor.Origin
	}
	if c.Proxy.PublicOrigin != "" {
		return strings.TrimRight(c.Proxy.PublicOrigin, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.Server.Port)
}

func writeConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, errors.ConfigWriteFailed).WithMetadata("path", path)
	}

	configYAML, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ConfigMarshalFailed)
	}

	if err := os.WriteFile(path, configYAML, 0644); err != nil {
		return errors.Wrap(err, errors.ConfigWriteFailed).WithMetadata("path", path)
	}

	return nil
}

// SaveConfig persists the current configuration to a specified path.
func SaveConfig(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		return errors.New(errors.ConfigWriteFailed, "no configuration loaded")
	}
	if path == "" {
		path = filepath.Join(GetConfigDir(), constants.ConfigFileName)
	}
	if err := writeConfig(instance, path); err != nil {
		return err
	}

	configPath = path
	return nil
}

// GetLoadedConfigPath returns the path of the currently loaded configuration file.
func GetLoadedConfigPath() string {
	mu.Lock()
	defer mu.Unlock()
	return configPath
}

// GetConfig returns the current configuration instance.
func GetConfig() *Config {
	mu.Lock()
	cfg := instance
	mu.Unlock()

	if cfg == nil {
		return LoadConfig("")
	}
	return cfg
}

func NewLoggerConfig(cfg *Config) logger.Config {
	if cfg == nil {
		return logger.Config{
			LogLevel:     "info",
			EnableSentry: false,
			SentryDSN:    "",
		}
	}

	return logger.Config{
		LogLevel:     cfg.Logger.LogLevel,
		EnableSentry: cfg.Logger.EnableSentry,
		SentryDSN:    cfg.Logger.SentryDSN,
	}
}
