package loadmonitor

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is wrapped by every error returned from Config.Validate.
var ErrInvalidConfig = errors.New("invalid load monitor config")

// Defaults applied by DefaultConfig.
const (
	DefaultCheckInterval      = 30 * time.Second
	DefaultScaleUpThreshold   = 100 * time.Millisecond
	DefaultScaleDownThreshold = 5 * time.Millisecond
	DefaultScaleDownSustain   = 10 * time.Minute
	DefaultRequestCooldown    = 5 * time.Minute
	DefaultSubmitTimeout      = 10 * time.Second
)

// Config holds the immutable settings of one monitor.
type Config struct {
	// ServiceType and ServiceID tag every emitted request. Both required.
	ServiceType string
	ServiceID   string

	// CheckInterval is the sampling period.
	CheckInterval time.Duration

	// ScaleUpThreshold and ScaleDownThreshold split latency into three bands:
	// low (< down), neutral, high (> up). Down must be strictly below up.
	ScaleUpThreshold   time.Duration
	ScaleDownThreshold time.Duration

	// ScaleDownSustain is how long latency must stay in the low band before a
	// scale-down is requested.
	ScaleDownSustain time.Duration

	// RequestCooldown is the minimum spacing between any two requests,
	// regardless of direction.
	RequestCooldown time.Duration

	// SubmitTimeout bounds a single submission to the sink.
	SubmitTimeout time.Duration
}

// DefaultConfig returns a Config with the default thresholds for the given service.
func DefaultConfig(serviceType, serviceID string) Config {
	return Config{
		ServiceType:        serviceType,
		ServiceID:          serviceID,
		CheckInterval:      DefaultCheckInterval,
		ScaleUpThreshold:   DefaultScaleUpThreshold,
		ScaleDownThreshold: DefaultScaleDownThreshold,
		ScaleDownSustain:   DefaultScaleDownSustain,
		RequestCooldown:    DefaultRequestCooldown,
		SubmitTimeout:      DefaultSubmitTimeout,
	}
}

// Validate reports the first problem found in c.
func (c Config) Validate() error {
	if c.ServiceType == "" {
		return fmt.Errorf("%w: service type is required", ErrInvalidConfig)
	}
	if c.ServiceID == "" {
		return fmt.Errorf("%w: service id is required", ErrInvalidConfig)
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"check interval", c.CheckInterval},
		{"scale-up threshold", c.ScaleUpThreshold},
		{"scale-down threshold", c.ScaleDownThreshold},
		{"scale-down sustain window", c.ScaleDownSustain},
		{"request cooldown", c.RequestCooldown},
		{"submit timeout", c.SubmitTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, p.name, p.value)
		}
	}

	if c.ScaleDownThreshold >= c.ScaleUpThreshold {
		return fmt.Errorf("%w: scale-down threshold (%v) must be below scale-up threshold (%v)",
			ErrInvalidConfig, c.ScaleDownThreshold, c.ScaleUpThreshold)
	}

	return nil
}
