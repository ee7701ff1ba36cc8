// Package config provides configuration parsing for the load monitor daemon.
//
// Values come from command-line flags, falling back to environment variables
// and then to defaults:
//  1. Command-line flags
//  2. Environment variables
//  3. Default values
//
// Example usage:
//
//	cfg := config.ParseFlags()
//	monCfg := cfg.Monitor()
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/HatiCode/lagscale/pkg/lag"
	"github.com/HatiCode/lagscale/pkg/loadmonitor"
	"github.com/HatiCode/lagscale/pkg/queue"
)

type Config struct {
	ServiceType string
	ServiceID   string

	CheckInterval      time.Duration
	ScaleUpThreshold   time.Duration
	ScaleDownThreshold time.Duration
	ScaleDownSustain   time.Duration
	RequestCooldown    time.Duration
	SubmitTimeout      time.Duration

	// Sampler selects the latency source: "runtime" or "prometheus".
	Sampler          string
	SampleResolution time.Duration
	SampleAlpha      float64
	PromURL          string
	PromQuery        string
	PromInterval     time.Duration
	PromStaleAfter   time.Duration

	// Queue selects the sink: "memory", "redis" or "http".
	Queue           string
	QueueName       string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisTTL        time.Duration
	ControlPlaneURL string

	Listen     string
	GRPCListen string
	LogFormat  string
	LogLevel   string
}

// ParseFlags parses the process flags and environment. It exits with status 1
// when the resulting configuration is invalid.
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.ServiceType, "service-type", getEnv("SERVICE_TYPE", ""), "Service type label sent with scale requests (required)")
	flag.StringVar(&cfg.ServiceID, "service-id", getEnv("SERVICE_ID", hostname()), "Service instance ID (defaults to hostname)")

	flag.DurationVar(&cfg.CheckInterval, "check-interval", getEnvDuration("CHECK_INTERVAL", loadmonitor.DefaultCheckInterval), "How often latency is evaluated")
	flag.DurationVar(&cfg.ScaleUpThreshold, "scale-up-threshold", getEnvDuration("SCALE_UP_THRESHOLD", loadmonitor.DefaultScaleUpThreshold), "Latency above which a scale-up is requested")
	flag.DurationVar(&cfg.ScaleDownThreshold, "scale-down-threshold", getEnvDuration("SCALE_DOWN_THRESHOLD", loadmonitor.DefaultScaleDownThreshold), "Latency below which the service counts as idle")
	flag.DurationVar(&cfg.ScaleDownSustain, "scale-down-sustain", getEnvDuration("SCALE_DOWN_SUSTAIN", loadmonitor.DefaultScaleDownSustain), "How long latency must stay low before a scale-down")
	flag.DurationVar(&cfg.RequestCooldown, "request-cooldown", getEnvDuration("REQUEST_COOLDOWN", loadmonitor.DefaultRequestCooldown), "Minimum time between scale requests")
	flag.DurationVar(&cfg.SubmitTimeout, "submit-timeout", getEnvDuration("SUBMIT_TIMEOUT", loadmonitor.DefaultSubmitTimeout), "Timeout for one queue submission")

	flag.StringVar(&cfg.Sampler, "sampler", getEnv("SAMPLER", "runtime"), "Latency sampler (runtime|prometheus)")
	flag.DurationVar(&cfg.SampleResolution, "sample-resolution", getEnvDuration("SAMPLE_RESOLUTION", lag.DefaultResolution), "Runtime sampler timer resolution")
	flag.Float64Var(&cfg.SampleAlpha, "sample-alpha", getEnvFloat("SAMPLE_ALPHA", lag.DefaultAlpha), "EMA smoothing factor in (0,1]")
	flag.StringVar(&cfg.PromURL, "prom-url", getEnv("PROM_URL", "http://localhost:9090"), "Prometheus URL")
	flag.StringVar(&cfg.PromQuery, "prom-query", getEnv("PROM_QUERY", ""), "Prometheus query returning latency in seconds")
	flag.DurationVar(&cfg.PromInterval, "prom-interval", getEnvDuration("PROM_INTERVAL", 15*time.Second), "Prometheus poll interval")
	flag.DurationVar(&cfg.PromStaleAfter, "prom-stale-after", getEnvDuration("PROM_STALE_AFTER", 0), "How long a successful Prometheus poll stays usable (0 = 3x prom-interval)")

	flag.StringVar(&cfg.Queue, "queue", getEnv("QUEUE", "memory"), "Scale request sink (memory|redis|http)")
	flag.StringVar(&cfg.QueueName, "queue-name", getEnv("QUEUE_NAME", "auto-scaling"), "Queue name")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis server address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database number")
	flag.DurationVar(&cfg.RedisTTL, "redis-ttl", getEnvDuration("REDIS_TTL", queue.DefaultJobTTL), "Retention of job records in Redis (0 disables expiry)")
	flag.StringVar(&cfg.ControlPlaneURL, "control-plane-url", getEnv("CONTROL_PLANE_URL", ""), "Control plane base URL (queue=http)")

	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8083"), "HTTP listen address")
	flag.StringVar(&cfg.GRPCListen, "grpc-listen", getEnv("GRPC_LISTEN", ":50052"), "gRPC health listen address")
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format (text|json)")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	return cfg
}

// Validate checks the daemon-level settings and the embedded monitor settings.
func (c *Config) Validate() error {
	if c.ServiceType == "" {
		return errors.New("-service-type is required")
	}
	if err := c.Monitor().Validate(); err != nil {
		return err
	}

	switch c.Sampler {
	case "runtime":
		if c.SampleResolution <= 0 {
			return errors.New("-sample-resolution must be positive")
		}
	case "prometheus":
		if c.PromURL == "" || c.PromQuery == "" {
			return errors.New("-prom-url and -prom-query are required with -sampler=prometheus")
		}
	default:
		return fmt.Errorf("invalid -sampler %q (want runtime or prometheus)", c.Sampler)
	}

	switch c.Queue {
	case "memory":
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("-redis-addr is required with -queue=redis")
		}
		if c.QueueName == "" {
			return errors.New("-queue-name is required with -queue=redis")
		}
	case "http":
		if c.ControlPlaneURL == "" {
			return errors.New("-control-plane-url is required with -queue=http")
		}
	default:
		return fmt.Errorf("invalid -queue %q (want memory, redis or http)", c.Queue)
	}

	return nil
}

// Monitor returns the load monitor settings.
func (c *Config) Monitor() loadmonitor.Config {
	return loadmonitor.Config{
		ServiceType:        c.ServiceType,
		ServiceID:          c.ServiceID,
		CheckInterval:      c.CheckInterval,
		ScaleUpThreshold:   c.ScaleUpThreshold,
		ScaleDownThreshold: c.ScaleDownThreshold,
		ScaleDownSustain:   c.ScaleDownSustain,
		RequestCooldown:    c.RequestCooldown,
		SubmitTimeout:      c.SubmitTimeout,
	}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
