package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryQueue is an in-process queue for tests and single binary setups.
// Jobs are stored encoded so consumers never share memory with producers.
type MemoryQueue struct {
	jobs chan []byte

	mu   sync.Mutex
	dead []Job
}

// NewMemoryQueue creates a queue holding up to capacity jobs
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryQueue{jobs: make(chan []byte, capacity)}
}

// Enqueue adds a job, blocking while the queue is full
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := Encode(job)
	if err != nil {
		return err
	}
	select {
	case q.jobs <- data:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueueing job %s: %w", job.ID, ctx.Err())
	}
}

// Dequeue waits up to timeout for a job
func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (Job, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case data := <-q.jobs:
		return Decode(data)
	case <-timer.C:
		return Job{}, ErrEmpty
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}

// DeadLetter records a failed job
func (q *MemoryQueue) DeadLetter(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.dead = append(q.dead, job)
	return nil
}

// Len returns the number of waiting jobs
func (q *MemoryQueue) Len(context.Context) (int64, error) {
	return int64(len(q.jobs)), nil
}

// DeadLetters returns a copy of the dead-lettered jobs
func (q *MemoryQueue) DeadLetters() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Job(nil), q.dead...)
}
