// Package sampler builds the latency source selected in the monitor config.
//
//   - runtime: measures this process's own timer drift. Use it when the
//     monitor is embedded next to the workload.
//   - prometheus: polls a PromQL expression. Use it when the latency is
//     exported by another process.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/HatiCode/lagscale/cmd/monitor/config"
	"github.com/HatiCode/lagscale/pkg/lag"
	"github.com/HatiCode/lagscale/pkg/loadmonitor"
)

// Sampler is a loadmonitor.Sampler with a background lifecycle.
type Sampler interface {
	loadmonitor.Sampler
	Start(ctx context.Context)
	Stop()
}

// New returns the configured sampler. It exits the process on an unknown
// sampler type.
func New(cfg *config.Config, logger *slog.Logger) Sampler {
	s, err := build(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize sampler", "sampler", cfg.Sampler, "error", err)
		os.Exit(1)
	}
	return s
}

func build(cfg *config.Config, logger *slog.Logger) (Sampler, error) {
	switch cfg.Sampler {
	case "runtime":
		logger.Info("initializing runtime lag sampler",
			"resolution", cfg.SampleResolution,
			"alpha", cfg.SampleAlpha,
		)
		return lag.NewRuntimeSampler(cfg.SampleResolution, cfg.SampleAlpha, logger), nil

	case "prometheus":
		logger.Info("initializing prometheus lag sampler",
			"url", cfg.PromURL,
			"query", cfg.PromQuery,
			"interval", cfg.PromInterval,
			"stale_after", cfg.PromStaleAfter,
		)
		return &lag.PrometheusSampler{
			ServerURL:  cfg.PromURL,
			Query:      cfg.PromQuery,
			Interval:   cfg.PromInterval,
			StaleAfter: cfg.PromStaleAfter,
			Alpha:      cfg.SampleAlpha,
			Logger:     logger,
		}, nil

	default:
		return nil, fmt.Errorf("unknown sampler type %q", cfg.Sampler)
	}
}
