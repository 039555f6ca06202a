package api

import (
	"context"

	"notechan/internal/notes/domain/entities"
)

// CreateChannelInput - данные нового канала.
type CreateChannelInput struct {
	Name      string
	Type      entities.ChannelType
	IsDefault bool
}

// CreatedChannel - результат создания канала.
type CreatedChannel struct {
	ID string `json:"id"`
}

// ChannelService определяет порт для операций с каналами.
type ChannelService interface {
	CreateChannel(ctx context.Context, userID string, in CreateChannelInput) (Envelope[CreatedChannel], error)

	ListChannels(ctx context.Context, userID string) (Envelope[[]entities.ChannelView], error)
}
