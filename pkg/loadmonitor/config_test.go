package loadmonitor

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("web", "web-1")

	if cfg.CheckInterval != 30*time.Second {
		t.Errorf("CheckInterval = %v, want 30s", cfg.CheckInterval)
	}
	if cfg.ScaleUpThreshold != 100*time.Millisecond {
		t.Errorf("ScaleUpThreshold = %v, want 100ms", cfg.ScaleUpThreshold)
	}
	if cfg.ScaleDownThreshold != 5*time.Millisecond {
		t.Errorf("ScaleDownThreshold = %v, want 5ms", cfg.ScaleDownThreshold)
	}
	if cfg.ScaleDownSustain != 10*time.Minute {
		t.Errorf("ScaleDownSustain = %v, want 10m", cfg.ScaleDownSustain)
	}
	if cfg.RequestCooldown != 5*time.Minute {
		t.Errorf("RequestCooldown = %v, want 5m", cfg.RequestCooldown)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing service type", func(c *Config) { c.ServiceType = "" }},
		{"missing service id", func(c *Config) { c.ServiceID = "" }},
		{"zero check interval", func(c *Config) { c.CheckInterval = 0 }},
		{"negative cooldown", func(c *Config) { c.RequestCooldown = -time.Second }},
		{"zero sustain", func(c *Config) { c.ScaleDownSustain = 0 }},
		{"zero submit timeout", func(c *Config) { c.SubmitTimeout = 0 }},
		{"inverted thresholds", func(c *Config) {
			c.ScaleUpThreshold = 5 * time.Millisecond
			c.ScaleDownThreshold = 100 * time.Millisecond
		}},
		{"equal thresholds", func(c *Config) {
			c.ScaleUpThreshold = 50 * time.Millisecond
			c.ScaleDownThreshold = 50 * time.Millisecond
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("web", "web-1")
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
