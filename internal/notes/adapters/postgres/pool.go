// Package postgres provides PostgreSQL implementations of repositories.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"notechan/internal/notes/domain/entities"
	"notechan/pkg/logger"
)

// PgxPoolInterface - подмножество pgxpool.Pool, которое используют репозитории.
type PgxPoolInterface interface {
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

const (
	errBeginTx    = "failed to begin transaction"
	errCommitTx   = "failed to commit transaction"
	msgRollbackTx = "failed to roll back transaction"
)

// parseID проверяет, что id - UUID.
func parseID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", entities.ErrInvalidID, id)
	}
	return nil
}

// rollback откатывает незавершенную транзакцию, ошибка только логируется.
func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil {
		logger.Log(ctx).Warn(ctx, msgRollbackTx, zap.Error(err))
	}
}
