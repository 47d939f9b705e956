package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/logging"
	"github.com/redis/go-redis/v9"
)

// RedisOptions selects the Redis server backing a list queue.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient opens a client and checks it answers PING.
func NewRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func processingKey(queue string) string   { return queue + ":processing" }
func redeliveriesKey(queue string) string { return queue + ":redeliveries" }

// RedisPublisher pushes messages onto a Redis list.
type RedisPublisher struct {
	client redis.UniversalClient
	queue  string
}

func NewRedisPublisher(client redis.UniversalClient, queue string) *RedisPublisher {
	return &RedisPublisher{client: client, queue: queue}
}

func (p *RedisPublisher) Publish(ctx context.Context, body []byte) error {
	if err := p.client.LPush(ctx, p.queue, body).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// RedisSubscriber implements a reliable list queue: messages are moved
// atomically into a processing list and only dropped from it on Ack.
// Messages left there by a crashed consumer are put back on Subscribe.
type RedisSubscriber struct {
	client redis.UniversalClient
	queue  string
	log    logging.Logger

	// pollTimeout bounds each blocking move so ctx is observed.
	pollTimeout time.Duration
	retryDelay  time.Duration
}

func NewRedisSubscriber(client redis.UniversalClient, queue string, log logging.Logger) *RedisSubscriber {
	return &RedisSubscriber{
		client:      client,
		queue:       queue,
		log:         log.With("module", "queue.redis"),
		pollTimeout: time.Second,
		retryDelay:  time.Second,
	}
}

func (s *RedisSubscriber) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	if err := s.recoverInFlight(ctx); err != nil {
		return nil, err
	}

	out := make(chan Delivery)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			body, err := s.client.BLMove(ctx, s.queue, processingKey(s.queue), "RIGHT", "LEFT", s.pollTimeout).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.log.Error(ctx, "redis receive failed", "queue", s.queue, "error", err)
				select {
				case <-time.After(s.retryDelay):
				case <-ctx.Done():
					return
				}
				continue
			}

			redelivered, err := s.client.HExists(ctx, redeliveriesKey(s.queue), body).Result()
			if err != nil {
				s.log.Warn(ctx, "redis redelivery lookup failed", "queue", s.queue, "error", err)
			}

			select {
			case out <- s.wrap(body, redelivered):
			case <-ctx.Done():
				// Still parked in the processing list; the next Subscribe
				// puts it back.
				return
			}
		}
	}()
	return out, nil
}

// recoverInFlight moves everything in the processing list back to the
// head of the queue and marks it redelivered.
func (s *RedisSubscriber) recoverInFlight(ctx context.Context) error {
	for {
		body, err := s.client.LMove(ctx, processingKey(s.queue), s.queue, "LEFT", "RIGHT").Result()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("redis recover in-flight: %w", err)
		}
		if err := s.client.HIncrBy(ctx, redeliveriesKey(s.queue), body, 1).Err(); err != nil {
			return fmt.Errorf("redis recover in-flight: %w", err)
		}
	}
}

func (s *RedisSubscriber) wrap(body string, redelivered bool) Delivery {
	// Settlement must survive the subscription context being cancelled
	// while a message is still being handled.
	ctx := context.Background()

	ack := func() error {
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LRem(ctx, processingKey(s.queue), 1, body)
			pipe.HDel(ctx, redeliveriesKey(s.queue), body)
			return nil
		})
		return err
	}
	nack := func(requeue bool) error {
		if !requeue {
			return ack()
		}
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LRem(ctx, processingKey(s.queue), 1, body)
			pipe.RPush(ctx, s.queue, body)
			pipe.HIncrBy(ctx, redeliveriesKey(s.queue), body, 1)
			return nil
		})
		return err
	}
	return NewDelivery([]byte(body), redelivered, ack, nack)
}

func (s *RedisSubscriber) Close() error {
	return s.client.Close()
}
