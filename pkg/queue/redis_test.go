package queue

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestNewRedisQueue_Validation(t *testing.T) {
	if _, err := NewRedisQueue("", "", 0, "auto-scaling", DefaultJobTTL); err == nil {
		t.Error("expected error for empty address")
	}
	if _, err := NewRedisQueueFromClient(nil, "auto-scaling", DefaultJobTTL); err == nil {
		t.Error("expected error for nil client")
	}

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()
	if _, err := NewRedisQueueFromClient(client, "", DefaultJobTTL); err == nil {
		t.Error("expected error for empty queue name")
	}
}

func TestRedisQueue_Keys(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	q, err := NewRedisQueueFromClient(client, "auto-scaling", -time.Second)
	if err != nil {
		t.Fatalf("NewRedisQueueFromClient() error = %v", err)
	}
	if q.ttl != 0 {
		t.Errorf("negative ttl should be clamped to 0, got %v", q.ttl)
	}
	if got := q.jobKey("abc"); got != "lagscale:{auto-scaling}:job:abc" {
		t.Errorf("jobKey = %q", got)
	}
	if got := q.waitKey(); got != "lagscale:{auto-scaling}:wait" {
		t.Errorf("waitKey = %q", got)
	}
}

// hashTag returns the part of key Redis Cluster hashes to pick a slot.
func hashTag(key string) string {
	start := strings.IndexByte(key, '{')
	if start < 0 {
		return key
	}
	end := strings.IndexByte(key[start+1:], '}')
	if end <= 0 {
		return key
	}
	return key[start+1 : start+1+end]
}

func TestRedisQueue_KeysShareClusterSlot(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	for _, name := range []string{"auto-scaling", "a:b", "scale-requests-eu"} {
		q, err := NewRedisQueueFromClient(client, name, DefaultJobTTL)
		if err != nil {
			t.Fatalf("NewRedisQueueFromClient(%q) error = %v", name, err)
		}
		job, wait := hashTag(q.jobKey("some-id")), hashTag(q.waitKey())
		if job != name || wait != name {
			t.Errorf("hash tags for %q = %q, %q; want both %q", name, job, wait, name)
		}
	}

	for _, name := range []string{"a{b", "}", "{x}"} {
		if _, err := NewRedisQueueFromClient(client, name, DefaultJobTTL); err == nil {
			t.Errorf("expected error for queue name %q", name)
		}
	}
}

func startRedis(t *testing.T) *RedisQueue {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("Failed to start redis container: %v", err)
	}
	t.Cleanup(func() {
		container.Terminate(context.Background())
	})

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("Failed to parse redis url %q: %v", uri, err)
	}

	q, err := NewRedisQueueFromClient(redis.NewClient(opts), "auto-scaling", time.Hour)
	if err != nil {
		t.Fatalf("NewRedisQueueFromClient() error = %v", err)
	}
	t.Cleanup(func() { q.Close() })

	if err := q.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	return q
}

func TestRedisQueue_AddAndGet(t *testing.T) {
	q := startRedis(t)
	ctx := context.Background()

	data := map[string]any{
		"event": "request_scale_up",
		"data":  map[string]string{"serviceType": "web", "serviceId": "web-1"},
	}
	job, err := q.Add(ctx, "request_scale_up", data, AddOptions{JobID: "auto-scale-up-web-web-1-1700000000000"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := q.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "request_scale_up" {
		t.Errorf("Name = %q, want %q", got.Name, "request_scale_up")
	}
	if string(got.Data) != string(job.Data) {
		t.Errorf("Data = %s, want %s", got.Data, job.Data)
	}

	n, err := q.Len(ctx)
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
}

func TestRedisQueue_DuplicateJobID(t *testing.T) {
	q := startRedis(t)
	ctx := context.Background()

	opts := AddOptions{JobID: "auto-scale-down-web-web-1-1700000000000"}
	if _, err := q.Add(ctx, "request_scale_down", 1, opts); err != nil {
		t.Fatalf("first Add() error = %v", err)
	}
	if _, err := q.Add(ctx, "request_scale_down", 1, opts); !errors.Is(err, ErrDuplicateJob) {
		t.Fatalf("second Add() error = %v, want ErrDuplicateJob", err)
	}

	n, _ := q.Len(ctx)
	if n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
}

func TestRedisQueue_GetNotFound(t *testing.T) {
	q := startRedis(t)
	if _, err := q.Get(context.Background(), "missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Get() error = %v, want ErrJobNotFound", err)
	}
}
