package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notechan/internal/notes/domain/entities"
	"notechan/internal/notes/ports/cleanup"
	"notechan/pkg/logger"
)

const (
	ErrorFailedToEncodeTask = "failed to encode cleanup task"
	ErrorFailedToPush       = "failed to push cleanup tasks"
	ErrorFailedToPop        = "failed to pop cleanup tasks"
	ErrorFailedToLen        = "failed to get cleanup queue length"
	LogDropUndecodableTask  = "dropping undecodable cleanup task"
)

// RedisCleanupQueue хранит задачи очистки в списке Redis в порядке FIFO.
type RedisCleanupQueue struct {
	client redis.UniversalClient
	key    string
}

// NewRedisCleanupQueue создает очередь в списке key.
func NewRedisCleanupQueue(client redis.UniversalClient, key string) *RedisCleanupQueue {
	return &RedisCleanupQueue{client: client, key: key}
}

var _ cleanup.Queue = (*RedisCleanupQueue)(nil)

// Push добавляет задачи в хвост очереди.
func (q *RedisCleanupQueue) Push(ctx context.Context, tasks ...entities.CleanupTask) error {
	if len(tasks) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(tasks))
	for _, task := range tasks {
		raw, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrorFailedToEncodeTask, err)
		}
		values = append(values, raw)
	}

	if err := q.client.RPush(ctx, q.key, values...).Err(); err != nil {
		logger.Log(ctx).Error(ctx, ErrorFailedToPush, zap.Int("count", len(tasks)), zap.Error(err))
		return fmt.Errorf("%s: %w", ErrorFailedToPush, err)
	}
	return nil
}

// Pop забирает до n задач из головы очереди. Нечитаемые записи отбрасываются.
func (q *RedisCleanupQueue) Pop(ctx context.Context, n int) ([]entities.CleanupTask, error) {
	if n <= 0 {
		return []entities.CleanupTask{}, nil
	}

	raw, err := q.client.LPopCount(ctx, q.key, n).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []entities.CleanupTask{}, nil
		}
		logger.Log(ctx).Error(ctx, ErrorFailedToPop, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrorFailedToPop, err)
	}

	tasks := make([]entities.CleanupTask, 0, len(raw))
	for _, item := range raw {
		var task entities.CleanupTask
		if err := json.Unmarshal([]byte(item), &task); err != nil {
			logger.Log(ctx).Warn(ctx, LogDropUndecodableTask, zap.String("raw", item), zap.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// Len возвращает длину очереди.
func (q *RedisCleanupQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrorFailedToLen, err)
	}
	return n, nil
}
