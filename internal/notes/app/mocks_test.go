package app_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"notechan/internal/notes/domain/entities"
)

type mockNoteRepository struct {
	mock.Mock
}

func (m *mockNoteRepository) Create(ctx context.Context, note *entities.Note) (string, error) {
	args := m.Called(ctx, note)
	return args.String(0), args.Error(1)
}

func (m *mockNoteRepository) GetByID(ctx context.Context, noteID, userID string) (*entities.Note, error) {
	args := m.Called(ctx, noteID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) GetView(ctx context.Context, noteID, userID string) (*entities.NoteView, error) {
	args := m.Called(ctx, noteID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.NoteView), args.Error(1)
}

func (m *mockNoteRepository) ListByUserID(ctx context.Context, userID string, skip, limit int) ([]*entities.NoteSummary, error) {
	args := m.Called(ctx, userID, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.NoteSummary), args.Error(1)
}

func (m *mockNoteRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNoteRepository) Update(ctx context.Context, noteID, userID string, patch entities.NotePatch) (entities.UpdateResult, error) {
	args := m.Called(ctx, noteID, userID, patch)
	return args.Get(0).(entities.UpdateResult), args.Error(1)
}

func (m *mockNoteRepository) Delete(ctx context.Context, noteID, userID string) (int64, error) {
	args := m.Called(ctx, noteID, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNoteRepository) DeleteWithChannel(ctx context.Context, noteID, channelID, userID string) (int64, error) {
	args := m.Called(ctx, noteID, channelID, userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockChannelRepository struct {
	mock.Mock
}

func (m *mockChannelRepository) Create(ctx context.Context, channel *entities.Channel) (string, error) {
	args := m.Called(ctx, channel)
	return args.String(0), args.Error(1)
}

func (m *mockChannelRepository) FindDefault(ctx context.Context, userID string) (*entities.Channel, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Channel), args.Error(1)
}

func (m *mockChannelRepository) GetByID(ctx context.Context, channelID, userID string) (*entities.Channel, error) {
	args := m.Called(ctx, channelID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Channel), args.Error(1)
}

func (m *mockChannelRepository) ListByUserID(ctx context.Context, userID string) ([]*entities.Channel, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Channel), args.Error(1)
}

func (m *mockChannelRepository) Delete(ctx context.Context, channelID, userID string) (int64, error) {
	args := m.Called(ctx, channelID, userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *mockCache) Close() error {
	return m.Called().Error(0)
}
