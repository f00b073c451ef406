// Package metrics exposes scheduler activity as Prometheus metrics.
//
// Collectors live on their own registry so several hosts (and tests) never
// collide on the global one. A nil *Collector is valid and records nothing.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records scheduler metrics.
type Collector struct {
	registry *prometheus.Registry

	started      *prometheus.CounterVec
	aborted      *prometheus.CounterVec
	running      *prometheus.GaugeVec
	tickDuration *prometheus.HistogramVec
	tasks        *prometheus.CounterVec
	keys         *prometheus.CounterVec
	reloads      prometheus.Counter
}

// New creates a collector with a dedicated registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		started: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scripthost_scripts_started_total",
				Help: "Number of script instances started",
			},
			[]string{"script"},
		),
		aborted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scripthost_scripts_aborted_total",
				Help: "Number of script instances aborted, by reason",
			},
			[]string{"script", "reason"},
		),
		running: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scripthost_scripts_running",
				Help: "Number of running scripts after the last tick",
			},
			[]string{"domain"},
		),
		tickDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scripthost_tick_duration_seconds",
				Help:    "Duration of a scheduler tick",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .5, 1, 5},
			},
			[]string{"domain"},
		),
		tasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scripthost_host_tasks_total",
				Help: "Number of tasks executed on the host goroutine",
			},
			[]string{"domain"},
		),
		keys: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scripthost_key_events_total",
				Help: "Number of key transitions relayed to scripts",
			},
			[]string{"direction"},
		),
		reloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scripthost_reloads_total",
			Help: "Number of domain reloads",
		}),
	}
	c.registry.MustRegister(c.started, c.aborted, c.running, c.tickDuration, c.tasks, c.keys, c.reloads)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the collected metrics.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks feeding the collector.
func (c *Collector) Hooks() domain.LifecycleHooks {
	if c == nil {
		return domain.LifecycleHooks{}
	}
	return domain.LifecycleHooks{
		OnScriptStart: func(_ context.Context, ev *domain.ScriptEvent) {
			c.started.WithLabelValues(ev.Script).Inc()
		},
		OnScriptAbort: func(_ context.Context, ev *domain.ScriptEvent) {
			c.aborted.WithLabelValues(ev.Script, string(ev.Reason)).Inc()
		},
		OnTick: func(_ context.Context, ev *domain.TickEvent) {
			c.running.WithLabelValues(ev.Domain).Set(float64(ev.Running))
			c.tickDuration.WithLabelValues(ev.Domain).Observe(ev.Duration.Seconds())
			c.tasks.WithLabelValues(ev.Domain).Add(float64(ev.Tasks))
		},
		OnKeyEvent: func(_ context.Context, ev domain.KeyEvent) {
			dir := "up"
			if ev.Down {
				dir = "down"
			}
			c.keys.WithLabelValues(dir).Inc()
		},
	}
}

// Reloaded counts a domain reload.
func (c *Collector) Reloaded() {
	if c == nil {
		return
	}
	c.reloads.Inc()
}
