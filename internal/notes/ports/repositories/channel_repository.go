package repositories

import (
	"context"

	"notechan/internal/notes/domain/entities"
)

// ChannelRepository определяет интерфейс для работы с каналами.
type ChannelRepository interface {
	// Create сохраняет канал; если он помечен по умолчанию, прежний канал по умолчанию снимается.
	Create(ctx context.Context, channel *entities.Channel) (string, error)

	// FindDefault ищет активный канал по умолчанию, иначе entities.ErrChannelNotFound.
	FindDefault(ctx context.Context, userID string) (*entities.Channel, error)

	GetByID(ctx context.Context, channelID, userID string) (*entities.Channel, error)

	ListByUserID(ctx context.Context, userID string) ([]*entities.Channel, error)

	Delete(ctx context.Context, channelID, userID string) (int64, error)
}

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}
