package lag

import (
	"math"
	"sync"
	"time"
)

// EMA is an exponential moving average over durations. It is safe for concurrent use.
//
// EMA formula: EMA_t = α * value_t + (1-α) * EMA_{t-1}
// The first observation seeds the average.
type EMA struct {
	mu     sync.Mutex
	alpha  float64
	value  float64
	seeded bool
}

// NewEMA returns an EMA with smoothing factor alpha in (0, 1].
// Out of range values fall back to 0.2.
func NewEMA(alpha float64) *EMA {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.2
	}
	return &EMA{alpha: alpha}
}

// Update folds d into the average and returns the new value.
// Negative observations are treated as zero.
func (e *EMA) Update(d time.Duration) time.Duration {
	if d < 0 {
		d = 0
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.seeded {
		e.value = float64(d)
		e.seeded = true
	} else {
		e.value = e.alpha*float64(d) + (1-e.alpha)*e.value
	}
	return time.Duration(math.Round(e.value))
}

// Value returns the current average, or 0 before the first observation.
func (e *EMA) Value() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Duration(math.Round(e.value))
}

// Seeded reports whether at least one observation has been folded in.
func (e *EMA) Seeded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seeded
}

// Reset discards all observations.
func (e *EMA) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.value = 0
	e.seeded = false
}
