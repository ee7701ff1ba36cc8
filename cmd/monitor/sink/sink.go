// Package sink builds the destination scale requests are submitted to.
//
// Supported backends:
//
//   - memory: in-process queue, for development. Requests are lost on restart.
//   - redis: durable queue shared with the control plane's workers. The
//     connection is verified at startup.
//   - http: direct POST to the control plane. Reachability is checked at
//     startup but an unreachable control plane is only a warning, since
//     submissions are retried on later ticks.
//
// Initialization is fail-fast: a misconfigured or unreachable Redis backend
// exits the process with status 1.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/HatiCode/lagscale/cmd/monitor/config"
	"github.com/HatiCode/lagscale/pkg/client"
	"github.com/HatiCode/lagscale/pkg/loadmonitor"
	"github.com/HatiCode/lagscale/pkg/queue"
)

const pingTimeout = 5 * time.Second

// Sink is a loadmonitor.Sink that may hold a connection.
type Sink interface {
	loadmonitor.Sink
	io.Closer
}

// New returns the configured sink, exiting the process on failure.
func New(cfg *config.Config, logger *slog.Logger) Sink {
	s, err := build(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize sink", "queue", cfg.Queue, "error", err)
		os.Exit(1)
	}
	return s
}

func build(cfg *config.Config, logger *slog.Logger) (Sink, error) {
	switch cfg.Queue {
	case "memory":
		logger.Info("initializing in-memory queue")
		return nopCloser{queue.NewMemoryQueue()}, nil

	case "redis":
		logger.Info("initializing redis queue",
			"addr", cfg.RedisAddr,
			"db", cfg.RedisDB,
			"queue_name", cfg.QueueName,
			"ttl", cfg.RedisTTL,
		)
		q, err := queue.NewRedisQueue(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.QueueName, cfg.RedisTTL)
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		if err := q.Ping(ctx); err != nil {
			_ = q.Close()
			return nil, fmt.Errorf("redis health check failed: %w", err)
		}
		logger.Info("redis queue initialized successfully")
		return q, nil

	case "http":
		logger.Info("initializing control plane client", "url", cfg.ControlPlaneURL)
		c := client.NewControlPlaneClientWithTimeout(cfg.ControlPlaneURL, cfg.SubmitTimeout)

		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			logger.Warn("control plane not reachable yet", "url", cfg.ControlPlaneURL, "error", err)
		}
		return nopCloser{c}, nil

	default:
		return nil, errors.New("invalid queue type " + cfg.Queue)
	}
}

type nopCloser struct {
	loadmonitor.Sink
}

func (nopCloser) Close() error { return nil }
