// Package loadmonitor turns a noisy latency signal into infrequent, debounced
// scale requests for a control plane.
//
// A Monitor polls a Sampler every CheckInterval and classifies the sample into
// one of three bands:
//
//   - high (above ScaleUpThreshold): a single sample requests a scale-up, since
//     overload has to be answered quickly. Any low-latency streak is discarded.
//   - low (below ScaleDownThreshold): the start of a streak is remembered; a
//     scale-down is requested only once the streak has lasted ScaleDownSustain.
//   - neutral: any streak in progress is discarded.
//
// Requests in either direction share one cooldown (RequestCooldown) so the
// monitor cannot oscillate. Requests are appended to a Sink with a
// deterministic job ID, which lets at-least-once queues deduplicate them.
//
// The monitor has no side effects until Start is called. Ticks run on a
// self-rescheduling timer: the next tick is armed only after the previous one,
// including its submission, has finished, so ticks never overlap.
package loadmonitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/HatiCode/lagscale/pkg/queue"
)

// State is a point-in-time copy of the monitor's hysteresis state.
type State struct {
	// LastRequest is when the last request (any direction) was emitted.
	// Zero until the first request.
	LastRequest time.Time
	// LowLagStart is when the current low-latency streak began. Only
	// meaningful when LowLagActive is true.
	LowLagStart  time.Time
	LowLagActive bool
	// CurrentLag is the most recent usable sample.
	CurrentLag time.Duration
}

// Option configures optional Monitor collaborators.
type Option func(*Monitor)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRecorder sets the observability recorder.
func WithRecorder(r Recorder) Option {
	return func(m *Monitor) {
		if r != nil {
			m.recorder = r
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) {
		if now != nil {
			m.now = now
		}
	}
}

// Monitor is a single load monitor instance. Its state is owned exclusively
// by the instance; independent monitors share nothing.
type Monitor struct {
	cfg      Config
	sampler  Sampler
	sink     Sink
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time

	// cooldownLog throttles the debug line emitted while requests are suppressed.
	cooldownLog rate.Sometimes

	tickMu sync.Mutex // serializes Tick

	mu    sync.Mutex // guards state
	state State

	runMu  sync.Mutex // guards cancel and done
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Monitor. It validates cfg and does not start sampling.
func New(cfg Config, sampler Sampler, sink Sink, opts ...Option) (*Monitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, errors.New("load monitor: sampler cannot be nil")
	}
	if sink == nil {
		return nil, errors.New("load monitor: sink cannot be nil")
	}

	m := &Monitor{
		cfg:         cfg,
		sampler:     sampler,
		sink:        sink,
		logger:      slog.Default(),
		recorder:    nopRecorder{},
		now:         time.Now,
		cooldownLog: rate.Sometimes{Interval: time.Minute},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("service_type", cfg.ServiceType, "service_id", cfg.ServiceID)

	return m, nil
}

// Config returns the monitor's configuration.
func (m *Monitor) Config() Config {
	return m.cfg
}

// Start begins the sampling loop. The loop stops when Stop is called or ctx
// is canceled. Calling Start on a running monitor logs a warning and does
// nothing else.
func (m *Monitor) Start(ctx context.Context) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.runningLocked() {
		m.logger.Warn("load monitor already running, ignoring start")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	m.logger.Info("load monitor started",
		"check_interval", m.cfg.CheckInterval,
		"scale_up_threshold", m.cfg.ScaleUpThreshold,
		"scale_down_threshold", m.cfg.ScaleDownThreshold,
		"scale_down_sustain", m.cfg.ScaleDownSustain,
		"request_cooldown", m.cfg.RequestCooldown,
	)

	go m.run(ctx, m.done)
}

// Stop cancels future ticks and waits for the loop to exit. A submission in
// flight is allowed to finish. State is kept. Calling Stop on a stopped
// monitor is a no-op.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.runMu.Unlock()

	if cancel == nil {
		m.logger.Info("load monitor not running, ignoring stop")
		return
	}

	cancel()
	<-done
	m.logger.Info("load monitor stopped")
}

// Running reports whether the sampling loop is active.
func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.runningLocked()
}

func (m *Monitor) runningLocked() bool {
	if m.done == nil {
		return false
	}
	select {
	case <-m.done:
		return false
	default:
		return true
	}
}

// Snapshot returns a copy of the current state.
func (m *Monitor) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(m.cfg.CheckInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			// Errors are logged inside Tick; the next tick is the retry.
			_, _ = m.Tick(ctx)
			timer.Reset(m.cfg.CheckInterval)
		}
	}
}

// Tick takes one sample and applies the decision algorithm. It returns the
// request emitted during this tick, if any, and the submission error, if any.
// The loop calls Tick once per CheckInterval; it is exported for testing.
func (m *Monitor) Tick(ctx context.Context) (*ScaleRequest, error) {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	sample, ok := m.sampler.Lag()
	now := m.now()

	req, suppressed := m.evaluate(sample, ok, now)

	if suppressed != "" {
		m.recorder.RecordDecision(suppressed, OutcomeSuppressed)
	}
	if req == nil {
		return nil, nil
	}

	if err := m.submit(ctx, *req); err != nil {
		m.recorder.RecordDecision(req.Direction, OutcomeFailed)
		return req, err
	}
	m.recorder.RecordDecision(req.Direction, OutcomeSubmitted)
	return req, nil
}

// evaluate updates state for one sample. It returns the request to submit,
// if any, and the direction that was suppressed by the cooldown, if any.
// A tick without a usable sample is neutral: it never requests and it breaks
// the low-lag streak, so missing data cannot accumulate into a scale-down.
func (m *Monitor) evaluate(sample time.Duration, ok bool, now time.Time) (*ScaleRequest, Direction) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &m.state
	if !ok {
		if s.LowLagActive {
			m.logger.Debug("no lag sample available, low lag streak reset")
		}
		m.resetStreak(s)
		return nil, ""
	}

	s.CurrentLag = sample
	m.recorder.ObserveLag(sample)

	sinceLastRequest := now.Sub(s.LastRequest)
	cooldownOver := s.LastRequest.IsZero() || sinceLastRequest > m.cfg.RequestCooldown

	switch {
	case sample > m.cfg.ScaleUpThreshold:
		m.resetStreak(s)

		if !cooldownOver {
			m.logCooldown(DirectionUp, sample, sinceLastRequest)
			return nil, DirectionUp
		}

		reason := fmt.Sprintf("event loop lag %s exceeded scale-up threshold %s",
			formatLag(sample), m.cfg.ScaleUpThreshold)
		req := NewScaleRequest(DirectionUp, m.cfg.ServiceType, m.cfg.ServiceID, reason, now)
		s.LastRequest = now
		return &req, ""

	case sample < m.cfg.ScaleDownThreshold:
		if !s.LowLagActive {
			s.LowLagStart = now
			s.LowLagActive = true
			m.recorder.SetLowLagStreak(0)
			m.logger.Debug("low lag streak started", "lag_ms", lagMillis(sample))
			return nil, ""
		}

		lowDuration := now.Sub(s.LowLagStart)
		m.recorder.SetLowLagStreak(lowDuration)
		if lowDuration < m.cfg.ScaleDownSustain {
			return nil, ""
		}

		// The sustain window is consumed whether or not a request goes out.
		m.resetStreak(s)

		if !cooldownOver {
			m.logCooldown(DirectionDown, sample, sinceLastRequest)
			return nil, DirectionDown
		}

		reason := fmt.Sprintf("event loop lag %s stayed below scale-down threshold %s for %s",
			formatLag(sample), m.cfg.ScaleDownThreshold, lowDuration.Round(time.Second))
		req := NewScaleRequest(DirectionDown, m.cfg.ServiceType, m.cfg.ServiceID, reason, now)
		s.LastRequest = now
		return &req, ""

	default:
		if s.LowLagActive {
			m.logger.Debug("lag normalized, low lag streak reset", "lag_ms", lagMillis(sample))
		}
		m.resetStreak(s)
		return nil, ""
	}
}

func (m *Monitor) resetStreak(s *State) {
	if s.LowLagActive {
		m.recorder.SetLowLagStreak(0)
	}
	s.LowLagStart = time.Time{}
	s.LowLagActive = false
}

func (m *Monitor) logCooldown(dir Direction, sample, since time.Duration) {
	m.cooldownLog.Do(func() {
		m.logger.Debug("scale request suppressed, cooldown active",
			"direction", dir,
			"lag_ms", lagMillis(sample),
			"cooldown_remaining", (m.cfg.RequestCooldown - since).Round(time.Second),
		)
	})
}

// submit appends req to the sink. The submission is detached from ctx's
// cancellation so Stop does not abort it; SubmitTimeout bounds it instead.
func (m *Monitor) submit(ctx context.Context, req ScaleRequest) error {
	m.logger.Info("requesting scale",
		"action", req.Direction.Event(),
		"reason", req.Reason,
		"job_id", req.JobID,
		"request_id", req.RequestID,
	)

	subCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.SubmitTimeout)
	defer cancel()

	_, err := m.sink.Add(subCtx, req.Direction.Event(), req.Payload(), queue.AddOptions{JobID: req.JobID})
	if errors.Is(err, queue.ErrDuplicateJob) {
		m.logger.Info("scale request already queued", "job_id", req.JobID)
		return nil
	}
	if err != nil {
		m.logger.Error("failed to submit scale request",
			"action", req.Direction.Event(),
			"job_id", req.JobID,
			"error", err,
		)
		return fmt.Errorf("submit %s: %w", req.JobID, err)
	}
	return nil
}

func lagMillis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func formatLag(d time.Duration) string {
	return fmt.Sprintf("%.2fms", lagMillis(d))
}
