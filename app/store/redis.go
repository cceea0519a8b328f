package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "cue:queue:"

// Redis implements Backend with redis lists, RPUSH to write and LPOP to read.
// LPOP is atomic, so concurrent readers never get the same message.
type Redis struct {
	client redis.Cmdable
}

// NewRedis makes Redis backend for the client
func NewRedis(client redis.Cmdable) *Redis {
	return &Redis{client: client}
}

// ConnectRedis parses url (i.e. redis://:password@localhost:6379/0) and makes client,
// pinging the server up to attempts times with interval between attempts
func ConnectRedis(ctx context.Context, url string, attempts int, interval time.Duration) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	rptr := repeater.New(&strategy.FixedDelay{Repeats: attempts, Delay: interval})
	if err := rptr.Do(ctx, func() error {
		if e := client.Ping(ctx).Err(); e != nil {
			log.Printf("[DEBUG] redis %s not ready, %v", opts.Addr, e)
			return e
		}
		return nil
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s not ready: %w", opts.Addr, err)
	}
	return client, nil
}

// Write pushes message to the tail of the list
func (r *Redis) Write(ctx context.Context, queue, msg string) error {
	if queue == "" {
		return ErrEmptyQueueName
	}
	if err := r.client.RPush(ctx, redisKeyPrefix+queue, msg).Err(); err != nil {
		return fmt.Errorf("failed to write to %s: %w", queue, err)
	}
	return nil
}

// Read pops message from the head of the list
func (r *Redis) Read(ctx context.Context, queue string) (msg string, ok bool, err error) {
	if queue == "" {
		return "", false, ErrEmptyQueueName
	}
	msg, err = r.client.LPop(ctx, redisKeyPrefix+queue).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read from %s: %w", queue, err)
	}
	return msg, true, nil
}

// Flush deletes the list
func (r *Redis) Flush(ctx context.Context, queue string) error {
	if err := r.client.Del(ctx, redisKeyPrefix+queue).Err(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", queue, err)
	}
	return nil
}

// Len returns the list length
func (r *Redis) Len(ctx context.Context, queue string) (int, error) {
	n, err := r.client.LLen(ctx, redisKeyPrefix+queue).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", queue, err)
	}
	return int(n), nil
}

// Peek returns up to limit pending messages from the head of the list
func (r *Redis) Peek(ctx context.Context, queue string, limit int) ([]Record, error) {
	if limit <= 0 {
		return []Record{}, nil
	}
	msgs, err := r.client.LRange(ctx, redisKeyPrefix+queue, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to peek %s: %w", queue, err)
	}
	res := make([]Record, 0, len(msgs))
	for i, m := range msgs {
		res = append(res, Record{ID: int64(i + 1), Queue: queue, Message: m})
	}
	return res, nil
}
