package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue keeps jobs in a Redis list. Producers LPUSH and consumers
// BRPOP, so the list behaves as a FIFO shared by every worker process.
type RedisQueue struct {
	client  *redis.Client
	key     string
	deadKey string
}

// NewRedisClient connects to addr, which may be a redis:// URL or host:port
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	opt, err := redis.ParseURL(addr)
	if err != nil {
		opt = &redis.Options{Addr: addr, Password: password, DB: db}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}

// NewRedisQueue creates a queue on the list named name. Dead jobs go to
// name + ":dead".
func NewRedisQueue(client *redis.Client, name string) *RedisQueue {
	return &RedisQueue{
		client:  client,
		key:     name,
		deadKey: name + ":dead",
	}
}

// Enqueue pushes a job
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := Encode(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("pushing job %s: %w", job.ID, err)
	}
	return nil
}

// Dequeue pops the oldest job, waiting up to timeout
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (Job, error) {
	result, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Job{}, ErrEmpty
		}
		return Job{}, fmt.Errorf("popping job: %w", err)
	}
	// result is [key, value]
	return Decode([]byte(result[1]))
}

// DeadLetter stores a job that exhausted its attempts
func (q *RedisQueue) DeadLetter(ctx context.Context, job Job) error {
	data, err := Encode(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.deadKey, data).Err(); err != nil {
		return fmt.Errorf("dead-lettering job %s: %w", job.ID, err)
	}
	return nil
}

// Len returns the number of waiting jobs
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// DeadLen returns the number of dead-lettered jobs
func (q *RedisQueue) DeadLen(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.deadKey).Result()
}
