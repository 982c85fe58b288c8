package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/bake/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records run and task outcomes as Prometheus metrics.
// Each Metrics owns its registry, so several engines in one process do not
// collide.
type Metrics struct {
	registry *prometheus.Registry

	runs         *prometheus.CounterVec
	tasks        *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
	running      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bake_runs_total",
				Help: "Total number of finished runs",
			},
			[]string{"success"},
		),
		tasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bake_tasks_total",
				Help: "Total number of task instances reaching a terminal status",
			},
			[]string{"task", "status"},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bake_task_duration_seconds",
				Help:    "Duration of task bodies",
				Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
			},
			[]string{"task"},
		),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bake_tasks_running",
			Help: "Task instances currently executing",
		}),
	}
	m.registry.MustRegister(m.runs, m.tasks, m.taskDuration, m.running)
	return m
}

// Registry exposes the underlying registry, for gathering in tests or
// merging into another handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTaskStart: func(context.Context, *domain.TaskEvent) {
			m.running.Inc()
		},
		OnTaskFinish: func(_ context.Context, e *domain.TaskEvent) {
			m.running.Dec()
			m.tasks.WithLabelValues(e.Fullname, string(e.Status)).Inc()
			if e.Duration > 0 {
				m.taskDuration.WithLabelValues(e.Fullname).Observe(e.Duration.Seconds())
			}
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			m.runs.WithLabelValues(strconv.FormatBool(e.Success)).Inc()
		},
	}
}
