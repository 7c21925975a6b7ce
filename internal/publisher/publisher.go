package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pep299/news-hydrator/internal/model"
	"github.com/pep299/news-hydrator/internal/retry"
)

// Publisher announces hydrated news to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, news model.News) error
}

// RedisPublisher broadcasts news as JSON on a Redis pub/sub channel. Every
// subscriber gets every message, like a fanout exchange.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	retry   retry.Config
	log     *zap.SugaredLogger
}

// NewRedisPublisher creates a publisher on channel. Transient broker errors
// are retried with linear backoff according to cfg.
func NewRedisPublisher(client *redis.Client, channel string, cfg retry.Config, log *zap.SugaredLogger) *RedisPublisher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &RedisPublisher{client: client, channel: channel, retry: cfg, log: log}
}

// Publish sends news to the channel
func (p *RedisPublisher) Publish(ctx context.Context, news model.News) error {
	payload, err := json.Marshal(news)
	if err != nil {
		return fmt.Errorf("marshaling news %s: %w", news.ID, err)
	}

	attempt := 0
	err = retry.WithRetry(ctx, p.retry, func() error {
		attempt++
		receivers, err := p.client.Publish(ctx, p.channel, payload).Result()
		if err != nil {
			p.log.Warnw("publish failed", "news_id", news.ID, "attempt", attempt, "error", err)
			return err
		}
		p.log.Debugw("news published", "news_id", news.ID, "channel", p.channel, "receivers", receivers)
		return nil
	})
	if err != nil {
		return fmt.Errorf("publishing news %s: %w", news.ID, err)
	}
	return nil
}

// Subscribe returns a stream of news published on channel. The returned
// function closes the subscription.
func Subscribe(ctx context.Context, client *redis.Client, channel string) (<-chan model.News, func() error, error) {
	sub := client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, fmt.Errorf("subscribing to %s: %w", channel, err)
	}

	out := make(chan model.News)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var news model.News
			if err := json.Unmarshal([]byte(msg.Payload), &news); err != nil {
				continue
			}
			select {
			case out <- news:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, sub.Close, nil
}

// Multi publishes to every publisher and joins their errors
type Multi []Publisher

// Publish calls every publisher even when some fail
func (m Multi) Publish(ctx context.Context, news model.News) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, news); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DefaultRetry is the broker retry policy used by the binaries
func DefaultRetry() retry.Config {
	return retry.Config{MaxAttempts: 5, Delay: 500 * time.Millisecond, Backoff: true}
}
