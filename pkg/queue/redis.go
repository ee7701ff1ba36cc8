package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultJobTTL is how long a job record (and therefore its idempotency key)
// is retained in Redis.
const DefaultJobTTL = 24 * time.Hour

const keyPrefix = "lagscale"

// addScript stores the job record only if its ID is unused, then pushes the ID
// onto the wait list. Both steps happen atomically on the server.
//
// KEYS[1] job key, KEYS[2] wait list
// ARGV[1] job JSON, ARGV[2] job ID, ARGV[3] TTL in milliseconds (0 = no expiry)
var addScript = redis.NewScript(`
local ok
if ARGV[3] == "0" then
  ok = redis.call("SET", KEYS[1], ARGV[1], "NX")
else
  ok = redis.call("SET", KEYS[1], ARGV[1], "NX", "PX", ARGV[3])
end
if not ok then
  return 0
end
redis.call("LPUSH", KEYS[2], ARGV[2])
return 1
`)

// RedisQueue is a durable Queue stored in Redis. Job records live under
// "lagscale:{<name>}:job:<id>" and waiting job IDs are pushed onto
// "lagscale:{<name>}:wait", newest first. The braces are a Redis Cluster hash
// tag: every key of one queue maps to the same slot, which the two-key add
// script requires.
type RedisQueue struct {
	client redis.UniversalClient
	name   string
	ttl    time.Duration
}

// NewRedisQueue connects to a single Redis server and returns a queue named name.
// The connection is lazy; call Ping to verify connectivity.
func NewRedisQueue(addr, password string, db int, name string, ttl time.Duration) (*RedisQueue, error) {
	if addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	return NewRedisQueueFromClient(client, name, ttl)
}

// NewRedisQueueFromClient wraps an existing client. A ttl <= 0 disables
// expiry of job records.
func NewRedisQueueFromClient(client redis.UniversalClient, name string, ttl time.Duration) (*RedisQueue, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	if name == "" {
		return nil, errors.New("queue name cannot be empty")
	}
	if strings.ContainsAny(name, "{}") {
		return nil, fmt.Errorf("queue name %q cannot contain braces", name)
	}
	if ttl < 0 {
		ttl = 0
	}

	return &RedisQueue{
		client: client,
		name:   name,
		ttl:    ttl,
	}, nil
}

// Add implements Queue.
func (q *RedisQueue) Add(ctx context.Context, name string, data any, opts AddOptions) (Job, error) {
	job, err := newJob(name, data, opts, time.Now())
	if err != nil {
		return Job{}, err
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return Job{}, fmt.Errorf("marshal job: %w", err)
	}

	ttlMs := strconv.FormatInt(q.ttl.Milliseconds(), 10)
	added, err := addScript.Run(ctx, q.client,
		[]string{q.jobKey(job.ID), q.waitKey()},
		payload, job.ID, ttlMs,
	).Int64()
	if err != nil {
		return Job{}, fmt.Errorf("redis add job %s: %w", job.ID, err)
	}
	if added == 0 {
		return Job{}, fmt.Errorf("%w: %s", ErrDuplicateJob, job.ID)
	}

	return job, nil
}

// Len implements Queue.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.waitKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis llen: %w", err)
	}
	return n, nil
}

// Get returns the stored job record with the given ID.
func (q *RedisQueue) Get(ctx context.Context, id string) (Job, error) {
	raw, err := q.client.Get(ctx, q.jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	if err != nil {
		return Job{}, fmt.Errorf("redis get job %s: %w", id, err)
	}

	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return Job{}, fmt.Errorf("decode job %s: %w", id, err)
	}
	return job, nil
}

// Ping verifies the Redis connection.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func (q *RedisQueue) jobKey(id string) string {
	return fmt.Sprintf("%s:{%s}:job:%s", keyPrefix, q.name, id)
}

func (q *RedisQueue) waitKey() string {
	return fmt.Sprintf("%s:{%s}:wait", keyPrefix, q.name)
}
