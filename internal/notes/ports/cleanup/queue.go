// Package cleanup определяет очередь задач дочистки после частичного удаления.
package cleanup

import (
	"context"

	"notechan/internal/notes/domain/entities"
)

// Queue хранит задачи очистки до их обработки.
type Queue interface {
	Push(ctx context.Context, tasks ...entities.CleanupTask) error

	// Pop забирает до n задач; пустая очередь дает пустой срез без ошибки.
	Pop(ctx context.Context, n int) ([]entities.CleanupTask, error)

	Len(ctx context.Context) (int64, error)
}
