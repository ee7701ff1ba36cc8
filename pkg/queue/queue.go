// Package queue provides the job queue sinks that scale intents are appended to.
//
// A Queue accepts named jobs carrying a JSON payload. Every job is addressed by a
// caller-supplied JobID which doubles as an idempotency key: adding a job whose
// ID is already known fails with ErrDuplicateJob and leaves the queue unchanged,
// so at-least-once producers can safely retry.
//
// Two backends are provided:
//   - MemoryQueue: process-local, for development and tests
//   - RedisQueue: durable, shared between processes, backed by go-redis
//
// Consumption (claiming, acknowledging, retrying jobs) belongs to the control
// plane and is not implemented here.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrDuplicateJob is returned by Add when a job with the same ID was already enqueued.
var ErrDuplicateJob = errors.New("duplicate job id")

// ErrJobNotFound is returned by Get when no job with the given ID exists.
var ErrJobNotFound = errors.New("job not found")

// AddOptions carries per-job submission options.
type AddOptions struct {
	// JobID identifies the job and is used as its idempotency key. Required.
	JobID string
}

// Job is a single enqueued unit of work.
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Data       json.RawMessage `json:"data"`
	EnqueuedAt time.Time       `json:"enqueuedAt"`
}

// Queue is the interface implemented by every job queue backend.
type Queue interface {
	// Add appends a job named name carrying data (marshaled as JSON).
	// It returns ErrDuplicateJob (wrapped) when opts.JobID was already used.
	Add(ctx context.Context, name string, data any, opts AddOptions) (Job, error)

	// Len returns the number of jobs waiting to be consumed.
	Len(ctx context.Context) (int64, error)
}

// newJob validates the submission and builds the job record.
func newJob(name string, data any, opts AddOptions, now time.Time) (Job, error) {
	if name == "" {
		return Job{}, errors.New("job name cannot be empty")
	}
	if opts.JobID == "" {
		return Job{}, errors.New("job id cannot be empty")
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Job{}, fmt.Errorf("marshal job data: %w", err)
	}

	return Job{
		ID:         opts.JobID,
		Name:       name,
		Data:       raw,
		EnqueuedAt: now.UTC(),
	}, nil
}
