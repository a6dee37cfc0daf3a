package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cliniq-health/cliniq/internal/common"
)

// brpopTimeout bounds each blocking pop so Dequeue can notice a cancelled
// context between polls.
const brpopTimeout = 2 * time.Second

// RedisQueue is a durable queue over a Redis list. Units survive a process
// restart as long as Redis does.
type RedisQueue struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

func NewRedisQueue(ctx context.Context, cfg common.QueueConfig, logger *slog.Logger) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	logger.Info("connected to redis queue", "addr", cfg.RedisAddr, "key", cfg.RedisKey)
	return &RedisQueue{client: client, key: cfg.RedisKey, logger: logger}, nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, unit WorkUnit) error {
	payload, err := json.Marshal(unit)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		q.logger.Error("queue push failed", "document_id", unit.DocumentID, "error", err)
		return err
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (WorkUnit, error) {
	for {
		res, err := q.client.BRPop(ctx, brpopTimeout, q.key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			if ctx.Err() != nil {
				return WorkUnit{}, ctx.Err()
			}
			continue
		case err != nil:
			if ctx.Err() != nil {
				return WorkUnit{}, ctx.Err()
			}
			return WorkUnit{}, err
		}

		// BRPop returns [key, value].
		var unit WorkUnit
		if err := json.Unmarshal([]byte(res[1]), &unit); err != nil {
			q.logger.Warn("dropping malformed queue entry", "error", err)
			continue
		}
		return unit, nil
	}
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
