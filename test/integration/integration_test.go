package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/HatiCode/lagscale/pkg/lag"
	"github.com/HatiCode/lagscale/pkg/loadmonitor"
	"github.com/HatiCode/lagscale/pkg/queue"
)

// startFakePrometheus serves a fixed instant-vector response for
// /api/v1/query from an nginx container and returns its base URL.
func startFakePrometheus(t *testing.T, ctx context.Context, lagSeconds float64) string {
	t.Helper()

	promResponse := fmt.Sprintf(
		`{"status":"success","data":{"resultType":"vector","result":[{"metric":{"service":"storefront"},"value":[%d,"%f"]}]}}`,
		time.Now().Unix(), lagSeconds)

	nginxConf := `
events {
    worker_connections 1024;
}
http {
    server {
        listen 80;
        location /api/v1/query {
            default_type application/json;
            return 200 '` + promResponse + `';
        }
    }
}
`

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "nginx:alpine",
			ExposedPorts: []string{"80/tcp"},
			Files: []testcontainers.ContainerFile{
				{
					ContainerFilePath: "/etc/nginx/nginx.conf",
					FileMode:          0o644,
					Reader:            strings.NewReader(nginxConf),
				},
			},
			WaitingFor: wait.ForHTTP("/api/v1/query").WithPort("80/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start fake prometheus: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.PortEndpoint(ctx, "80/tcp", "http")
	if err != nil {
		t.Fatalf("failed to get fake prometheus endpoint: %v", err)
	}
	return endpoint
}

func startRedis(t *testing.T, ctx context.Context) *redis.Client {
	t.Helper()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("failed to parse redis url: %v", err)
	}

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// TestMonitorPrometheusToRedisE2E runs the monitor against a Prometheus-shaped
// latency source reporting 250ms and checks that exactly one scale-up lands in
// Redis despite several ticks, because of the cooldown.
func TestMonitorPrometheusToRedisE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	promURL := startFakePrometheus(t, ctx, 0.25)
	rdb := startRedis(t, ctx)

	q, err := queue.NewRedisQueueFromClient(rdb, "auto-scaling", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisQueueFromClient() error = %v", err)
	}

	sampler := &lag.PrometheusSampler{
		ServerURL: promURL,
		Query:     `max(nodejs_eventloop_lag_seconds{service="storefront"})`,
		Interval:  100 * time.Millisecond,
		Logger:    logger,
	}
	sampler.Start(ctx)
	defer sampler.Stop()

	deadline := time.Now().Add(10 * time.Second)
	for {
		if _, ok := sampler.Lag(); ok || time.Now().After(deadline) {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if got, ok := sampler.Lag(); !ok || got != 250*time.Millisecond {
		t.Fatalf("sampler lag = (%v, %v), want (250ms, true)", got, ok)
	}

	cfg := loadmonitor.DefaultConfig("storefront", "storefront-0")
	cfg.CheckInterval = 100 * time.Millisecond

	mon, err := loadmonitor.New(cfg, sampler, q, loadmonitor.WithLogger(logger))
	if err != nil {
		t.Fatalf("loadmonitor.New() error = %v", err)
	}
	mon.Start(ctx)
	time.Sleep(time.Second)
	mon.Stop()

	n, err := q.Len(ctx)
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 1 {
		t.Fatalf("queued jobs = %d, want 1", n)
	}

	ids, err := rdb.LRange(ctx, "lagscale:{auto-scaling}:wait", 0, -1).Result()
	if err != nil {
		t.Fatalf("LRange() error = %v", err)
	}
	job, err := q.Get(ctx, ids[0])
	if err != nil {
		t.Fatalf("Get(%q) error = %v", ids[0], err)
	}
	if job.Name != loadmonitor.EventScaleUp {
		t.Errorf("job name = %q, want %q", job.Name, loadmonitor.EventScaleUp)
	}
	if !strings.HasPrefix(job.ID, "auto-scale-up-storefront-storefront-0-") {
		t.Errorf("job id = %q", job.ID)
	}

	var payload loadmonitor.Payload
	if err := json.Unmarshal(job.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Event != loadmonitor.EventScaleUp || payload.Data.ServiceID != "storefront-0" {
		t.Errorf("payload = %+v", payload)
	}

	ttl, err := rdb.PTTL(ctx, "lagscale:{auto-scaling}:job:"+job.ID).Result()
	if err != nil {
		t.Fatalf("PTTL() error = %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("job ttl = %v, want within (0, 1h]", ttl)
	}
}

// TestRedisQueueDeduplicatesResubmission simulates an at-least-once retry of
// the same scale request.
func TestRedisQueueDeduplicatesResubmission(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	rdb := startRedis(t, ctx)

	q, err := queue.NewRedisQueueFromClient(rdb, "auto-scaling", 0)
	if err != nil {
		t.Fatalf("NewRedisQueueFromClient() error = %v", err)
	}

	req := loadmonitor.NewScaleRequest(loadmonitor.DirectionDown, "worker", "w-1", "idle", time.Now())
	for i := range 3 {
		_, err := q.Add(ctx, req.Direction.Event(), req.Payload(), queue.AddOptions{JobID: req.JobID})
		if i == 0 && err != nil {
			t.Fatalf("first Add() error = %v", err)
		}
		if i > 0 && err == nil {
			t.Fatalf("retry %d was accepted, want ErrDuplicateJob", i)
		}
	}

	n, err := q.Len(ctx)
	if err != nil || n != 1 {
		t.Errorf("Len() = %d, %v; want 1", n, err)
	}

	ttl, err := rdb.PTTL(ctx, "lagscale:{auto-scaling}:job:"+req.JobID).Result()
	if err != nil {
		t.Fatalf("PTTL() error = %v", err)
	}
	if ttl != -1 {
		t.Errorf("job ttl = %v, want no expiry", ttl)
	}
}
