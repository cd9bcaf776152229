// Package queue - Redis-backed work queue for calculation ids.
//
// The API enqueues bare calculation ids; workers block on the list and
// load the record from the store. A small status key per id lets the bot
// layer poll cheaply without hitting the store.
package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"customs-cost/core/types"
	"customs-cost/internal/errors"
	"customs-cost/internal/logging"
)

// DefaultKey is the Redis list the worker consumes.
const DefaultKey = "calculations:queue"

// Queue is a Redis list of pending calculation ids.
type Queue struct {
	client    *redis.Client
	key       string
	resultTTL time.Duration
	log       *zap.Logger
}

// New connects to Redis and returns a queue. The connection is verified
// with a ping.
func New(ctx context.Context, redisURL, key string, resultTTL time.Duration) (*Queue, error) {
	if key == "" {
		key = DefaultKey
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Config("invalid redis url", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(errors.TypeQueue, "redis ping failed", err)
	}
	return &Queue{client: client, key: key, resultTTL: resultTTL, log: logging.Named("queue")}, nil
}

// Enqueue pushes a calculation id onto the queue.
func (q *Queue) Enqueue(ctx context.Context, id string) error {
	if err := q.client.LPush(ctx, q.key, id).Err(); err != nil {
		return errors.Wrap(errors.TypeQueue, "enqueue failed", err)
	}
	q.log.Debug("calculation enqueued", zap.String("id", id))
	return nil
}

// Dequeue blocks up to timeout for the next id. An empty string without an
// error means the wait timed out.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	vals, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(errors.TypeQueue, "dequeue failed", err)
	}
	if len(vals) != 2 {
		return "", errors.Newf(errors.TypeQueue, "unexpected BRPOP reply of %d values", len(vals))
	}
	return vals[1], nil
}

// Depth returns the number of queued ids.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, errors.Wrap(errors.TypeQueue, "queue length failed", err)
	}
	return n, nil
}

func (q *Queue) statusKey(id string) string {
	return fmt.Sprintf("calculations:status:%s", id)
}

// SetStatus publishes the current status of a calculation with the result
// TTL.
func (q *Queue) SetStatus(ctx context.Context, id string, status types.CalculationStatus) error {
	if err := q.client.Set(ctx, q.statusKey(id), string(status), q.resultTTL).Err(); err != nil {
		return errors.Wrap(errors.TypeQueue, "status publish failed", err)
	}
	return nil
}

// Status reads the published status; empty when unknown or expired.
func (q *Queue) Status(ctx context.Context, id string) (types.CalculationStatus, error) {
	val, err := q.client.Get(ctx, q.statusKey(id)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(errors.TypeQueue, "status read failed", err)
	}
	return types.CalculationStatus(val), nil
}

// Close releases the Redis connection.
func (q *Queue) Close() error {
	return q.client.Close()
}
