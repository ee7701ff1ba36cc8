// Package lag provides latency samplers that estimate how loaded the current
// process (or a remote one) is.
//
// The signal is scheduling delay: how late a goroutine wakes up compared to
// when it asked to. A healthy process wakes up on time; an overloaded one
// (saturated CPUs, GC pressure, too many runnable goroutines) wakes up late.
// Samplers smooth the raw signal with an exponential moving average and expose
// the current estimate through Lag, which is cheap and never blocks.
//
// Samplers available:
//   - RuntimeSampler: measures timer drift in-process
//   - PrometheusSampler: reads a latency metric via the Prometheus HTTP API
package lag

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sampler reports the current smoothed latency. ok is false while the
// sampler has no usable estimate, either because nothing has been measured
// yet or because its measurements are stale.
type Sampler interface {
	Lag() (lag time.Duration, ok bool)
}

const (
	// DefaultResolution is how often the runtime sampler measures drift.
	DefaultResolution = 20 * time.Millisecond
	// DefaultAlpha is the EMA smoothing factor used by samplers.
	DefaultAlpha = 0.2
)

// RuntimeSampler measures goroutine scheduling delay. Every Resolution it
// sleeps for Resolution and records how much longer than that the sleep took.
type RuntimeSampler struct {
	resolution time.Duration
	ema        *EMA
	logger     *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	samples int64
}

// NewRuntimeSampler creates a sampler. A non-positive resolution uses
// DefaultResolution.
func NewRuntimeSampler(resolution time.Duration, alpha float64, logger *slog.Logger) *RuntimeSampler {
	if resolution <= 0 {
		resolution = DefaultResolution
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RuntimeSampler{
		resolution: resolution,
		ema:        NewEMA(alpha),
		logger:     logger,
	}
}

// Start launches the measuring goroutine. Calling Start on a running sampler
// is a no-op.
func (s *RuntimeSampler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Debug("starting runtime lag sampler", "resolution", s.resolution)
	go s.run(ctx, s.done)
}

// Stop halts measurement and waits for the goroutine to exit. The last
// estimate remains available through Lag.
func (s *RuntimeSampler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Lag implements Sampler. ok is false until the first measurement.
func (s *RuntimeSampler) Lag() (time.Duration, bool) {
	return s.ema.Value(), s.ema.Seeded()
}

// Samples returns how many measurements have been taken.
func (s *RuntimeSampler) Samples() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.samples
}

func (s *RuntimeSampler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(s.resolution)
	defer timer.Stop()
	expected := time.Now().Add(s.resolution)

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			s.observe(time.Since(expected))
			timer.Reset(s.resolution)
			expected = time.Now().Add(s.resolution)
		}
	}
}

// observe records one drift measurement.
func (s *RuntimeSampler) observe(drift time.Duration) {
	s.ema.Update(drift)

	s.mu.Lock()
	s.samples++
	s.mu.Unlock()
}
