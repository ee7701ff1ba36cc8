// Package metrics provides Prometheus instrumentation for the load monitor.
//
// Metrics exposed (all carry a service_id const label):
//   - lagscale_monitor_lag_seconds: Gauge of the latest latency sample
//   - lagscale_monitor_scale_decisions_total: Counter of triggered decisions by direction and outcome
//   - lagscale_monitor_low_lag_streak_seconds: Gauge of the current low-latency streak length
//   - lagscale_monitor_ticks_total: Counter of evaluation ticks that had a usable sample
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/HatiCode/lagscale/pkg/loadmonitor"
)

// Metrics implements loadmonitor.Recorder.
type Metrics struct {
	Lag            prometheus.Gauge
	ScaleDecisions *prometheus.CounterVec
	LowLagStreak   prometheus.Gauge
	Ticks          prometheus.Counter
}

var _ loadmonitor.Recorder = (*Metrics)(nil)

// New registers the monitor metrics with reg. Pass prometheus.DefaultRegisterer
// to expose them on promhttp.Handler().
func New(serviceID string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"service_id": serviceID}

	return &Metrics{
		Lag: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "lagscale_monitor_lag_seconds",
			Help:        "Latest smoothed scheduling latency sample",
			ConstLabels: labels,
		}),

		ScaleDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "lagscale_monitor_scale_decisions_total",
			Help:        "Scale decisions by direction and outcome (submitted, failed, suppressed)",
			ConstLabels: labels,
		}, []string{"direction", "outcome"}),

		LowLagStreak: factory.NewGauge(prometheus.GaugeOpts{
			Name:        "lagscale_monitor_low_lag_streak_seconds",
			Help:        "How long latency has stayed below the scale-down threshold",
			ConstLabels: labels,
		}),

		Ticks: factory.NewCounter(prometheus.CounterOpts{
			Name:        "lagscale_monitor_ticks_total",
			Help:        "Total number of evaluation ticks with a usable latency sample",
			ConstLabels: labels,
		}),
	}
}

// ObserveLag is called once per tick that has a usable sample.
func (m *Metrics) ObserveLag(lag time.Duration) {
	m.Ticks.Inc()
	m.Lag.Set(lag.Seconds())
}

// RecordDecision counts a triggered decision under its direction and outcome
// labels.
func (m *Metrics) RecordDecision(direction loadmonitor.Direction, outcome string) {
	m.ScaleDecisions.WithLabelValues(string(direction), outcome).Inc()
}

// SetLowLagStreak sets the streak gauge, in seconds. 0 means no streak.
func (m *Metrics) SetLowLagStreak(d time.Duration) {
	m.LowLagStreak.Set(d.Seconds())
}
