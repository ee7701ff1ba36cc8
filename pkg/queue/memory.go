package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryQueue is an in-process Queue. Jobs are kept in insertion order and
// are lost on restart. It is safe for concurrent use.
type MemoryQueue struct {
	mu   sync.RWMutex
	jobs []Job
	ids  map[string]int
}

// NewMemoryQueue creates an empty in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		ids: make(map[string]int),
	}
}

// Add implements Queue.
func (q *MemoryQueue) Add(ctx context.Context, name string, data any, opts AddOptions) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}

	job, err := newJob(name, data, opts, time.Now())
	if err != nil {
		return Job{}, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.ids[job.ID]; exists {
		return Job{}, fmt.Errorf("%w: %s", ErrDuplicateJob, job.ID)
	}

	q.ids[job.ID] = len(q.jobs)
	q.jobs = append(q.jobs, job)

	return job, nil
}

// Len implements Queue.
func (q *MemoryQueue) Len(ctx context.Context) (int64, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return int64(len(q.jobs)), nil
}

// Get returns the job with the given ID.
func (q *MemoryQueue) Get(ctx context.Context, id string) (Job, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	idx, ok := q.ids[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return q.jobs[idx], nil
}

// Jobs returns a copy of all enqueued jobs in insertion order.
func (q *MemoryQueue) Jobs() []Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]Job, len(q.jobs))
	copy(out, q.jobs)
	return out
}
