package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job outcomes passed to Recorder
const (
	OutcomeSuccess    = "success"
	OutcomeRetried    = "retried"
	OutcomeDeadLetter = "dead_letter"
)

// Handler processes one job. A returned error schedules a retry.
type Handler func(ctx context.Context, job Job) error

// Recorder receives job outcomes, typically backed by Prometheus
type Recorder interface {
	JobFinished(status string, elapsed time.Duration)
	SetQueueDepth(n int64)
}

// PoolConfig controls a worker pool
type PoolConfig struct {
	Concurrency int
	JobTimeout  time.Duration
	MaxAttempts int
	PollTimeout time.Duration
}

// Pool runs a fixed number of workers consuming a queue. Jobs are
// independent, so workers share nothing but the queue and the handler.
type Pool struct {
	queue    Queue
	handler  Handler
	config   PoolConfig
	log      *zap.SugaredLogger
	recorder Recorder
}

// NewPool creates a worker pool
func NewPool(q Queue, handler Handler, cfg PoolConfig, log *zap.SugaredLogger, recorder Recorder) *Pool {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pool{queue: q, handler: handler, config: cfg, log: log, recorder: recorder}
}

// Run blocks until ctx is cancelled and all workers have finished their
// current job.
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.config.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			p.work(ctx, worker)
		}(i)
	}
	wg.Wait()
}

func (p *Pool) work(ctx context.Context, worker int) {
	log := p.log.With("worker", worker)
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := p.queue.Dequeue(ctx, p.config.PollTimeout)
		if err != nil {
			if errors.Is(err, ErrEmpty) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			log.Errorw("dequeue failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		p.Process(ctx, job)
	}
}

// Drain processes jobs on the calling goroutine until the queue is empty.
// Retried jobs are requeued and handled in the same call. It returns the
// number of jobs handled.
func (p *Pool) Drain(ctx context.Context) (int, error) {
	handled := 0
	for {
		n, err := p.queue.Len(ctx)
		if err != nil {
			return handled, err
		}
		if n == 0 {
			return handled, nil
		}

		job, err := p.queue.Dequeue(ctx, p.config.PollTimeout)
		if errors.Is(err, ErrEmpty) {
			return handled, nil
		}
		if err != nil {
			return handled, err
		}
		p.Process(ctx, job)
		handled++
	}
}

// Process runs the handler for one job and applies the retry policy
func (p *Pool) Process(ctx context.Context, job Job) {
	log := p.log.With("job_id", job.ID, "news_id", job.News.ID, "attempt", job.Attempt+1)

	jobCtx := ctx
	if p.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, p.config.JobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := p.safeHandle(jobCtx, job)
	elapsed := time.Since(start)

	if err == nil {
		log.Infow("job finished", "duration", elapsed)
		p.record(OutcomeSuccess, elapsed)
		return
	}

	job.Attempt++
	job.LastError = err.Error()

	// The requeue must not be tied to a job context that may have expired.
	requeueCtx := context.WithoutCancel(ctx)
	if job.Attempt >= p.config.MaxAttempts {
		log.Errorw("job failed, dead-lettering", "error", err)
		if dlErr := p.queue.DeadLetter(requeueCtx, job); dlErr != nil {
			log.Errorw("dead-letter failed", "error", dlErr)
		}
		p.record(OutcomeDeadLetter, elapsed)
		return
	}

	log.Warnw("job failed, retrying", "error", err)
	if qErr := p.queue.Enqueue(requeueCtx, job); qErr != nil {
		log.Errorw("requeue failed", "error", qErr)
	}
	p.record(OutcomeRetried, elapsed)
}

func (p *Pool) safeHandle(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return p.handler(ctx, job)
}

func (p *Pool) record(outcome string, elapsed time.Duration) {
	if p.recorder == nil {
		return
	}
	p.recorder.JobFinished(outcome, elapsed)
	if n, err := p.queue.Len(context.Background()); err == nil {
		p.recorder.SetQueueDepth(n)
	}
}
