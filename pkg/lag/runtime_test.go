package lag

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRuntimeSampler_Defaults(t *testing.T) {
	s := NewRuntimeSampler(0, 0, nil)
	if s.resolution != DefaultResolution {
		t.Errorf("resolution = %v, want %v", s.resolution, DefaultResolution)
	}
	if s.logger == nil {
		t.Error("logger should default to slog.Default()")
	}
	if got, ok := s.Lag(); ok || got != 0 {
		t.Errorf("Lag() before Start = (%v, %v), want (0, false)", got, ok)
	}
}

func TestRuntimeSampler_StartStop(t *testing.T) {
	s := NewRuntimeSampler(2*time.Millisecond, DefaultAlpha, discardLogger())

	s.Start(context.Background())
	s.Start(context.Background()) // second start is a no-op

	deadline := time.Now().Add(2 * time.Second)
	for s.Samples() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if s.Samples() < 3 {
		t.Fatalf("Samples() = %d, want at least 3", s.Samples())
	}
	if got, ok := s.Lag(); !ok || got < 0 {
		t.Errorf("Lag() = (%v, %v), want a non-negative estimate", got, ok)
	}

	taken := s.Samples()
	time.Sleep(10 * time.Millisecond)
	if s.Samples() != taken {
		t.Error("sampler kept measuring after Stop")
	}

	s.Stop() // second stop is a no-op
}

func TestRuntimeSampler_StopsOnContextCancel(t *testing.T) {
	s := NewRuntimeSampler(time.Millisecond, DefaultAlpha, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return after context cancel")
	}
}

func TestRuntimeSampler_Observe(t *testing.T) {
	s := NewRuntimeSampler(time.Second, 1, discardLogger())
	s.observe(7 * time.Millisecond)
	if got, ok := s.Lag(); !ok || got != 7*time.Millisecond {
		t.Errorf("Lag() = (%v, %v), want (7ms, true)", got, ok)
	}
	s.observe(-time.Millisecond)
	if got, _ := s.Lag(); got != 0 {
		t.Errorf("Lag() after early wake = %v, want 0", got)
	}
}
