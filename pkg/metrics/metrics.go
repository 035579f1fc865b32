// Copyright 2025 Raamsri Kumar <raam@tinkershack.in>
// Copyright 2025 The StrataSTOR Authors and Contributors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exports connection monitor state to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stratastor/lifeline/pkg/monitor"
)

const namespace = "lifeline"

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Collector implements monitor.Observer
type Collector struct {
	registry *prometheus.Registry

	Connected         prometheus.Gauge
	ReconnectAttempts prometheus.Gauge
	ReconnectDelay    prometheus.Gauge
	ProbesTotal       *prometheus.CounterVec
	ProbeDuration     prometheus.Histogram
	ExhaustedTotal    prometheus.Counter
}

var _ monitor.Observer = (*Collector)(nil)

// New registers the monitor metrics, plus Go and process collectors, on a private registry
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		Connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 when the last probe reached the server",
		}),
		ReconnectAttempts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconnect_attempts",
			Help:      "Reconnect attempts scheduled since the last success",
		}),
		ReconnectDelay: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reconnect_delay_seconds",
			Help:      "Delay of the most recently scheduled reconnect attempt",
		}),
		ProbesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Heartbeat probes by result",
		}, []string{"result"}),
		ProbeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Duration of heartbeat probes in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}),
		ExhaustedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_exhausted_total",
			Help:      "Times the reconnect attempt cap was reached",
		}),
	}

	c.registry.MustRegister(
		c.Connected,
		c.ReconnectAttempts,
		c.ReconnectDelay,
		c.ProbesTotal,
		c.ProbeDuration,
		c.ExhaustedTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Connected until a probe says otherwise
	c.Connected.Set(1)
	c.ProbesTotal.WithLabelValues(ResultSuccess)
	c.ProbesTotal.WithLabelValues(ResultFailure)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

func (c *Collector) ProbeCompleted(err error, elapsed time.Duration) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	c.ProbesTotal.WithLabelValues(result).Inc()
	c.ProbeDuration.Observe(elapsed.Seconds())
}

func (c *Collector) StatusChanged(s monitor.Status) {
	if s.Connected {
		c.Connected.Set(1)
	} else {
		c.Connected.Set(0)
	}
	c.ReconnectAttempts.Set(float64(s.ReconnectAttempts))
	c.ReconnectDelay.Set(s.ReconnectDelay.Seconds())
}

func (c *Collector) RetriesExhausted() {
	c.ExhaustedTotal.Inc()
}
