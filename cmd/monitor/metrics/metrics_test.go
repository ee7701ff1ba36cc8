package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/HatiCode/lagscale/pkg/loadmonitor"
)

func TestObserveLag(t *testing.T) {
	m := New("web-1", prometheus.NewRegistry())

	m.ObserveLag(120 * time.Millisecond)
	m.ObserveLag(40 * time.Millisecond)

	if got := testutil.ToFloat64(m.Lag); got != 0.04 {
		t.Errorf("lag = %v, want 0.04", got)
	}
	if got := testutil.ToFloat64(m.Ticks); got != 2 {
		t.Errorf("ticks = %v, want 2", got)
	}
}

func TestRecordDecision(t *testing.T) {
	m := New("web-1", prometheus.NewRegistry())

	m.RecordDecision(loadmonitor.DirectionUp, loadmonitor.OutcomeSubmitted)
	m.RecordDecision(loadmonitor.DirectionUp, loadmonitor.OutcomeSuppressed)
	m.RecordDecision(loadmonitor.DirectionUp, loadmonitor.OutcomeSuppressed)
	m.RecordDecision(loadmonitor.DirectionDown, loadmonitor.OutcomeFailed)

	tests := []struct {
		direction, outcome string
		want               float64
	}{
		{"up", "submitted", 1},
		{"up", "suppressed", 2},
		{"down", "failed", 1},
		{"down", "submitted", 0},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.ScaleDecisions.WithLabelValues(tt.direction, tt.outcome))
		if got != tt.want {
			t.Errorf("decisions{%s,%s} = %v, want %v", tt.direction, tt.outcome, got, tt.want)
		}
	}
}

func TestSetLowLagStreak(t *testing.T) {
	m := New("web-1", prometheus.NewRegistry())

	m.SetLowLagStreak(90 * time.Second)
	if got := testutil.ToFloat64(m.LowLagStreak); got != 90 {
		t.Errorf("streak = %v, want 90", got)
	}
	m.SetLowLagStreak(0)
	if got := testutil.ToFloat64(m.LowLagStreak); got != 0 {
		t.Errorf("streak = %v, want 0", got)
	}
}

func TestConstLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("worker-9", reg)
	m.ObserveLag(time.Millisecond)

	expected := `
# HELP lagscale_monitor_ticks_total Total number of evaluation ticks
# TYPE lagscale_monitor_ticks_total counter
lagscale_monitor_ticks_total{service_id="worker-9"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "lagscale_monitor_ticks_total"); err != nil {
		t.Error(err)
	}
}

func TestNew_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New("web-1", reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic registering the same metrics twice")
		}
	}()
	New("web-1", reg)
}
