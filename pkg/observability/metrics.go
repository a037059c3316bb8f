package observability

import (
	"context"

	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by Hooks. Every series is labelled by axis.
type Metrics struct {
	RunsStarted  *prometheus.CounterVec
	RunsFinished *prometheus.CounterVec
	RunsAborted  *prometheus.CounterVec
	Steps        *prometheus.CounterVec
	Running      *prometheus.GaugeVec
	Setpoint     *prometheus.GaugeVec
	RunSteps     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg (nil skips registration).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "setpoint_runs_started_total",
			Help: "Total number of recipe runs started",
		}, []string{"axis"}),
		RunsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "setpoint_runs_finished_total",
			Help: "Total number of recipe runs that played every step",
		}, []string{"axis"}),
		RunsAborted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "setpoint_runs_aborted_total",
			Help: "Total number of recipe runs aborted, by reason",
		}, []string{"axis", "reason"}),
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "setpoint_steps_total",
			Help: "Total number of steps entered",
		}, []string{"axis"}),
		Running: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "setpoint_running",
			Help: "1 while a recipe runs on the axis",
		}, []string{"axis"}),
		Setpoint: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "setpoint_value",
			Help: "Last setpoint sent to the axis",
		}, []string{"axis"}),
		RunSteps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "setpoint_run_steps",
			Help:    "Compiled step count of started runs",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}, []string{"axis"}),
	}
	if reg != nil {
		reg.MustRegister(m.RunsStarted, m.RunsFinished, m.RunsAborted, m.Steps, m.Running, m.Setpoint, m.RunSteps)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) {
			m.RunsStarted.WithLabelValues(e.Axis).Inc()
			m.Running.WithLabelValues(e.Axis).Set(1)
			m.RunSteps.WithLabelValues(e.Axis).Observe(float64(e.Steps))
		},
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			m.Steps.WithLabelValues(e.Axis).Inc()
			m.Setpoint.WithLabelValues(e.Axis).Set(e.Step.Value)
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			m.RunsFinished.WithLabelValues(e.Axis).Inc()
			m.Running.WithLabelValues(e.Axis).Set(0)
		},
		OnRunAbort: func(_ context.Context, e *domain.RunEvent) {
			m.RunsAborted.WithLabelValues(e.Axis, string(e.Reason)).Inc()
			m.Running.WithLabelValues(e.Axis).Set(0)
		},
	}
}
