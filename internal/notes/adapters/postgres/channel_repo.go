package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"notechan/internal/notes/domain/entities"
	"notechan/internal/notes/ports/repositories"
	"notechan/pkg/logger"
)

const (
	errCreateChannel  = "failed to create channel"
	errResetDefault   = "failed to reset default channel"
	errGetChannel     = "failed to get channel"
	errListChannels   = "failed to list channels"
	errScanChannel    = "failed to scan channel"
	errIterateChannel = "error iterating channel rows"
)

const channelColumns = `id, user_id, name, type, is_default, created_at, deleted_at`

// ChannelRepository реализует интерфейс repositories.ChannelRepository для работы с Postgres.
type ChannelRepository struct {
	pool PgxPoolInterface
}

// NewChannelRepository создает новый экземпляр репозитория каналов.
func NewChannelRepository(pool PgxPoolInterface) repositories.ChannelRepository {
	return &ChannelRepository{pool: pool}
}

// Create сохраняет канал. Канал по умолчанию создается в транзакции вместе со снятием прежнего флага.
func (r *ChannelRepository) Create(ctx context.Context, channel *entities.Channel) (string, error) {
	log := logger.Log(ctx).With(zap.String("repository", "channel"), zap.String("method", "Create"))

	insert := `
        INSERT INTO channels (user_id, name, type, is_default, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	args := []interface{}{channel.UserID, channel.Name, string(channel.Type), channel.IsDefault, channel.CreatedAt}

	var channelID string
	if !channel.IsDefault {
		if err := r.pool.QueryRow(ctx, insert, args...).Scan(&channelID); err != nil {
			log.Error(ctx, errCreateChannel, zap.Error(err))
			return "", fmt.Errorf("%s: %w", errCreateChannel, err)
		}
		return channelID, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		log.Error(ctx, errBeginTx, zap.Error(err))
		return "", fmt.Errorf("%s: %w", errBeginTx, err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE channels SET is_default = FALSE WHERE user_id = $1 AND is_default`,
		channel.UserID,
	); err != nil {
		rollback(ctx, tx)
		log.Error(ctx, errResetDefault, zap.Error(err))
		return "", fmt.Errorf("%s: %w", errResetDefault, err)
	}

	if err := tx.QueryRow(ctx, insert, args...).Scan(&channelID); err != nil {
		rollback(ctx, tx)
		log.Error(ctx, errCreateChannel, zap.Error(err))
		return "", fmt.Errorf("%s: %w", errCreateChannel, err)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error(ctx, errCommitTx, zap.Error(err))
		return "", fmt.Errorf("%s: %w", errCommitTx, err)
	}

	log.Debug(ctx, "default channel created", zap.String("channel_id", channelID))
	return channelID, nil
}

// FindDefault ищет активный канал по умолчанию.
func (r *ChannelRepository) FindDefault(ctx context.Context, userID string) (*entities.Channel, error) {
	log := logger.Log(ctx).With(zap.String("repository", "channel"), zap.String("method", "FindDefault"))

	query := `SELECT ` + channelColumns + `
        FROM channels
        WHERE user_id = $1 AND is_default AND deleted_at IS NULL
        LIMIT 1`

	channel, err := scanChannel(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrChannelNotFound
		}
		log.Error(ctx, errGetChannel, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errGetChannel, err)
	}
	return channel, nil
}

// GetByID находит канал владельца, включая помеченные удаленными.
func (r *ChannelRepository) GetByID(ctx context.Context, channelID, userID string) (*entities.Channel, error) {
	log := logger.Log(ctx).With(zap.String("repository", "channel"), zap.String("method", "GetByID"))

	if err := parseID(channelID); err != nil {
		return nil, err
	}

	query := `SELECT ` + channelColumns + ` FROM channels WHERE id = $1 AND user_id = $2`

	channel, err := scanChannel(r.pool.QueryRow(ctx, query, channelID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrChannelNotFound
		}
		log.Error(ctx, errGetChannel, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errGetChannel, err)
	}
	return channel, nil
}

// ListByUserID возвращает все каналы владельца.
func (r *ChannelRepository) ListByUserID(ctx context.Context, userID string) ([]*entities.Channel, error) {
	log := logger.Log(ctx).With(zap.String("repository", "channel"), zap.String("method", "ListByUserID"))

	query := `SELECT ` + channelColumns + ` FROM channels WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		log.Error(ctx, errListChannels, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errListChannels, err)
	}
	defer rows.Close()

	var channels []*entities.Channel
	for rows.Next() {
		channel, err := scanChannel(rows)
		if err != nil {
			log.Error(ctx, errScanChannel, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", errScanChannel, err)
		}
		channels = append(channels, channel)
	}

	if err := rows.Err(); err != nil {
		log.Error(ctx, errIterateChannel, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errIterateChannel, err)
	}
	return channels, nil
}

// Delete удаляет канал владельца.
func (r *ChannelRepository) Delete(ctx context.Context, channelID, userID string) (int64, error) {
	log := logger.Log(ctx).With(zap.String("repository", "channel"), zap.String("method", "Delete"))

	if err := parseID(channelID); err != nil {
		return 0, err
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1 AND user_id = $2`, channelID, userID)
	if err != nil {
		log.Error(ctx, errDeleteChannel, zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errDeleteChannel, err)
	}
	return tag.RowsAffected(), nil
}

// scanChannel читает строку с колонками channelColumns.
func scanChannel(row pgx.Row) (*entities.Channel, error) {
	var (
		channel     entities.Channel
		channelType string
		deletedAt   *time.Time
	)
	if err := row.Scan(
		&channel.ID,
		&channel.UserID,
		&channel.Name,
		&channelType,
		&channel.IsDefault,
		&channel.CreatedAt,
		&deletedAt,
	); err != nil {
		return nil, err
	}

	channel.Type = entities.ChannelType(channelType)
	channel.DeletedAt = deletedAt
	return &channel, nil
}
