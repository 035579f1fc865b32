// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package agent assembles the lifeline components from configuration.
package agent

import (
	"context"
	"net/http"

	"github.com/stratastor/lifeline/config"
	"github.com/stratastor/lifeline/pkg/errors"
	"github.com/stratastor/lifeline/pkg/httpclient"
	"github.com/stratastor/lifeline/pkg/intercept"
	"github.com/stratastor/lifeline/pkg/metrics"
	"github.com/stratastor/lifeline/pkg/monitor"
	"github.com/stratastor/lifeline/pkg/notify"
	"github.com/stratastor/lifeline/pkg/origin"
	"github.com/stratastor/lifeline/pkg/proxy"
	"github.com/stratastor/lifeline/pkg/server"
	"github.com/stratastor/logger"
)

type Agent struct {
	cfg    *config.Config
	logger logger.Logger

	Board     *notify.Board
	Hub       *origin.Hub
	Scheduler *monitor.CronScheduler
	Metrics   *metrics.Collector
	Monitor   *monitor.Monitor
	Proxy     *proxy.Proxy // nil unless proxy.enabled
	Server    *server.Server
}

func newLogger(cfg *config.Config, tag string) (logger.Logger, error) {
	l, err := logger.NewTag(config.NewLoggerConfig(cfg), tag)
	if err != nil {
		return nil, errors.Wrap(err, errors.LoggerError).WithMetadata("tag", tag)
	}
	return l, nil
}

// New builds every component described by cfg without starting anything
func New(cfg *config.Config) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timings, err := cfg.Timings()
	if err != nil {
		return nil, err
	}

	loggers := make(map[string]logger.Logger)
	for _, tag := range []string{"agent", "monitor", "notify", "hub", "proxy", "server"} {
		l, err := newLogger(cfg, tag)
		if err != nil {
			return nil, err
		}
		loggers[tag] = l
	}

	a := &Agent{
		cfg:     cfg,
		logger:  loggers["agent"],
		Board:   notify.NewBoard(),
		Hub:     origin.NewHub(loggers["hub"], cfg.PageOrigin()),
		Metrics: metrics.New(),
	}

	a.Scheduler, err = monitor.NewCronScheduler(loggers["monitor"])
	if err != nil {
		return nil, err
	}

	// Pages only ever hear about their own origin
	poster := origin.ForceOrigin(a.Hub, origin.Static(cfg.PageOrigin()))
	notifier := notify.Multi{
		a.Board,
		notify.NewLogNotifier(loggers["notify"]),
		notify.NewPostNotifier(poster, loggers["notify"]),
	}

	prober := monitor.NewHeartbeatProber(cfg.HeartbeatURL(), timings.ProbeTimeout)
	a.Monitor = monitor.New(prober, notifier, a.Scheduler, loggers["monitor"],
		monitor.WithObserver(a.Metrics),
		monitor.WithInterval(timings.Interval),
		monitor.WithBackoff(monitor.Backoff{
			InitialDelay: timings.InitialDelay,
			Factor:       cfg.Monitor.BackoffFactor,
			MaxAttempts:  cfg.Monitor.MaxReconnectAttempts,
		}),
	)

	handlers := server.Handlers{
		Monitor:  a.Monitor,
		Banners:  a.Board,
		Messages: a.Hub,
		Metrics:  a.Metrics.Handler(),
	}

	if cfg.Proxy.Enabled {
		// Proxied fetches go through the same transport stack as the agent's client
		ccfg := httpclient.NewClientConfig()
		ccfg.WrapTransport = func(rt http.RoundTripper) http.RoundTripper {
			return intercept.NewTransport(rt, a.Monitor, cfg.Intercept.Paths)
		}
		client := httpclient.NewClient(ccfg)

		pcfg := proxy.Config{
			Upstream:       cfg.UpstreamURL(),
			Transport:      client.RoundTripper(),
			DedupAutofocus: cfg.Proxy.DedupAutofocus,
		}
		if cfg.Proxy.InjectBanner {
			pcfg.Banners = a.Board
		}

		a.Proxy, err = proxy.New(pcfg, loggers["proxy"])
		if err != nil {
			return nil, err
		}
		handlers.Proxy = a.Proxy
	}

	server.SetMode(cfg.Environment)
	a.Server = server.New(cfg.Server.Port, handlers, loggers["server"])
	return a, nil
}

// Check runs a probe now, e.g. on SIGHUP
func (a *Agent) Check(ctx context.Context) error {
	return a.Monitor.CheckConnection(ctx)
}

// Run starts monitoring and serving, and blocks until ctx is done
func (a *Agent) Run(ctx context.Context) error {
	a.Scheduler.Start()
	if err := a.Monitor.Start(ctx); err != nil {
		a.Scheduler.Shutdown()
		return err
	}

	a.logger.Info("Lifeline agent started",
		"port", a.cfg.Server.Port,
		"origin", a.cfg.Monitor.Origin,
		"page_origin", a.cfg.PageOrigin(),
		"heartbeat", a.cfg.HeartbeatURL(),
		"proxy", a.Proxy != nil)

	err := a.Server.Start(ctx)

	a.Monitor.Stop()
	a.Hub.Close()
	if serr := a.Scheduler.Shutdown(); serr != nil && err == nil {
		err = serr
	}

	a.logger.Info("Lifeline agent stopped")
	return err
}
