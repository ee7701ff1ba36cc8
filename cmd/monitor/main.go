package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/HatiCode/lagscale/cmd/monitor/config"
	"github.com/HatiCode/lagscale/cmd/monitor/logger"
	"github.com/HatiCode/lagscale/cmd/monitor/metrics"
	"github.com/HatiCode/lagscale/cmd/monitor/router"
	"github.com/HatiCode/lagscale/cmd/monitor/sampler"
	"github.com/HatiCode/lagscale/cmd/monitor/sink"
	"github.com/HatiCode/lagscale/pkg/httpx"
	"github.com/HatiCode/lagscale/pkg/loadmonitor"
)

// healthService is the gRPC health service name reported alongside "".
const healthService = "lagscale.monitor"

func main() {
	cfg := config.ParseFlags()
	log := logger.New(cfg)
	m := metrics.New(cfg.ServiceID, prometheus.DefaultRegisterer)

	log.Info("starting lagscale monitor",
		"service_type", cfg.ServiceType,
		"service_id", cfg.ServiceID,
		"sampler", cfg.Sampler,
		"queue", cfg.Queue,
		"listen", cfg.Listen,
		"grpc_listen", cfg.GRPCListen,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lagSampler := sampler.New(cfg, log)
	scaleSink := sink.New(cfg, log)

	mon, err := loadmonitor.New(cfg.Monitor(), lagSampler, scaleSink,
		loadmonitor.WithLogger(log),
		loadmonitor.WithRecorder(m),
	)
	if err != nil {
		log.Error("invalid monitor configuration", "error", err)
		os.Exit(1)
	}

	grpcServer, healthServer := newGRPCServer()

	lis, err := net.Listen("tcp", cfg.GRPCListen)
	if err != nil {
		log.Error("failed to listen", "address", cfg.GRPCListen, "error", err)
		os.Exit(1)
	}

	go func() {
		log.Info("grpc server listening", "address", cfg.GRPCListen)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server failed", "error", err)
			os.Exit(1)
		}
	}()

	httpServer := httpx.NewServer(cfg.Listen, router.SetupRoutes(log, mon), log)
	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	lagSampler.Start(ctx)
	mon.Start(ctx)
	setServing(healthServer, grpc_health_v1.HealthCheckResponse_SERVING)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("received shutdown signal", "signal", sig)

	setServing(healthServer, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	mon.Stop()
	lagSampler.Stop()
	cancel()

	log.Info("shutting down grpc server")
	healthServer.Shutdown()
	grpcServer.GracefulStop()

	if err := httpServer.Stop(10 * time.Second); err != nil {
		log.Error("http server shutdown error", "error", err)
	}

	if err := scaleSink.Close(); err != nil {
		log.Error("failed to close sink", "error", err)
	}

	log.Info("shutdown complete")
}

// newGRPCServer returns a server exposing the standard health service and
// reflection. Both health entries start as NOT_SERVING.
func newGRPCServer() (*grpc.Server, *health.Server) {
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	setServing(healthServer, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	return grpcServer, healthServer
}

func setServing(h *health.Server, status grpc_health_v1.HealthCheckResponse_ServingStatus) {
	h.SetServingStatus("", status)
	h.SetServingStatus(healthService, status)
}
