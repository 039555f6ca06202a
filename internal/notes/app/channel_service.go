package app

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"notechan/internal/notes/domain/entities"
	"notechan/internal/notes/ports/api"
	"notechan/internal/notes/ports/repositories"
	"notechan/pkg/logger"
)

const (
	methodCreateChannel = "CreateChannel"
	methodListChannels  = "ListChannels"

	msgChannelCreated = "channel created"

	ErrMsgEmptyChannelName = "channel name must not be empty"
	ErrMsgBadChannelType   = "unknown channel type"
	ErrMsgCreateChannel    = "failed to create channel"
	ErrMsgListChannels     = "failed to list channels"
)

// ChannelService реализует api.ChannelService.
type ChannelService struct {
	channels repositories.ChannelRepository
}

var _ api.ChannelService = (*ChannelService)(nil)

// NewChannelService создает сервис каналов.
func NewChannelService(channels repositories.ChannelRepository) *ChannelService {
	return &ChannelService{channels: channels}
}

// CreateChannel создает канал; канал по умолчанию заменяет прежний.
func (s *ChannelService) CreateChannel(ctx context.Context, userID string, in api.CreateChannelInput) (api.Envelope[api.CreatedChannel], error) {
	log := logger.Log(ctx).With(zap.String("method", methodCreateChannel), zap.String("user_id", userID))

	var none api.Envelope[api.CreatedChannel]

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return none, InvalidInput(ErrMsgEmptyChannelName)
	}
	if !in.Type.Valid() {
		return none, InvalidInput(ErrMsgBadChannelType)
	}

	id, err := s.channels.Create(ctx, entities.NewChannel(userID, name, in.Type, in.IsDefault))
	if err != nil {
		log.Error(ctx, ErrMsgCreateChannel, zap.Error(err))
		return none, classify(ErrMsgCreateChannel, err)
	}

	log.Info(ctx, msgChannelCreated, zap.String("channel_id", id), zap.Bool("is_default", in.IsDefault))
	return api.Wrap(api.CreatedChannel{ID: id}, http.StatusCreated), nil
}

// ListChannels возвращает активные каналы пользователя.
func (s *ChannelService) ListChannels(ctx context.Context, userID string) (api.Envelope[[]entities.ChannelView], error) {
	log := logger.Log(ctx).With(zap.String("method", methodListChannels), zap.String("user_id", userID))

	channels, err := s.channels.ListByUserID(ctx, userID)
	if err != nil {
		log.Error(ctx, ErrMsgListChannels, zap.Error(err))
		return api.Envelope[[]entities.ChannelView]{}, classify(ErrMsgListChannels, err)
	}

	views := make([]entities.ChannelView, 0, len(channels))
	for _, ch := range channels {
		if !ch.Active() {
			continue
		}
		views = append(views, entities.ChannelView{
			ID:        ch.ID,
			Name:      ch.Name,
			Type:      ch.Type,
			IsDefault: ch.IsDefault,
		})
	}

	return api.Wrap(views, http.StatusOK), nil
}
