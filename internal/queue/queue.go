package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/pep299/news-hydrator/internal/model"
)

// ErrEmpty is returned by Dequeue when no job arrived before the timeout
var ErrEmpty = errors.New("queue empty")

// Job is one unit of hydration work
type Job struct {
	ID         string     `msgpack:"id"`
	News       model.News `msgpack:"news"`
	Attempt    int        `msgpack:"attempt"`
	EnqueuedAt time.Time  `msgpack:"enqueued_at"`
	LastError  string     `msgpack:"last_error,omitempty"`
}

// NewJob wraps news in a job with a fresh ID
func NewJob(news model.News) Job {
	return Job{
		ID:         uuid.NewString(),
		News:       news,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Queue is a FIFO of hydration jobs
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	// Dequeue blocks up to timeout and returns ErrEmpty if nothing arrived
	Dequeue(ctx context.Context, timeout time.Duration) (Job, error)
	DeadLetter(ctx context.Context, job Job) error
	Len(ctx context.Context) (int64, error)
}

// Encode serializes a job for the wire
func Encode(job Job) ([]byte, error) {
	data, err := msgpack.Marshal(&job)
	if err != nil {
		return nil, fmt.Errorf("encoding job %s: %w", job.ID, err)
	}
	return data, nil
}

// Decode parses a job produced by Encode
func Decode(data []byte) (Job, error) {
	var job Job
	if err := msgpack.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("decoding job: %w", err)
	}
	return job, nil
}
