package loadmonitor

//go:generate mockgen -destination=mock_loadmonitor.go -package=loadmonitor github.com/HatiCode/lagscale/pkg/loadmonitor Sampler,Sink,Recorder

import (
	"context"
	"time"

	"github.com/HatiCode/lagscale/pkg/queue"
)

// Sampler reports the current smoothed scheduling latency. Implementations
// sample at their own rate; Lag must be cheap and must not block. ok is false
// when the sampler has no usable estimate (never measured, or stale).
type Sampler interface {
	Lag() (lag time.Duration, ok bool)
}

// Sink accepts scale intents. It is satisfied by every queue.Queue and by
// client.ControlPlaneClient. Delivery is assumed at-least-once; opts.JobID is
// the idempotency key.
type Sink interface {
	Add(ctx context.Context, name string, data any, opts queue.AddOptions) (queue.Job, error)
}

// Recorder receives observability signals from the monitor.
type Recorder interface {
	// ObserveLag is called with every usable sample, at most once per tick.
	ObserveLag(lag time.Duration)
	// RecordDecision is called whenever a threshold triggers. outcome is one of
	// OutcomeSubmitted, OutcomeFailed or OutcomeSuppressed.
	RecordDecision(direction Direction, outcome string)
	// SetLowLagStreak reports how long latency has stayed below the scale-down
	// threshold, 0 when no streak is in progress.
	SetLowLagStreak(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveLag(time.Duration) {}
func (nopRecorder) RecordDecision(Direction, string) {}
func (nopRecorder) SetLowLagStreak(time.Duration) {}
