package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"notechan/internal/notes/ports/repositories"
	"notechan/pkg/logger"
)

const (
	errPingDatabase  = "failed to ping database"
	errCreateIndexes = "failed to create indexes"
)

// RepositoryFactory создает репозитории поверх одной базы MongoDB.
type RepositoryFactory struct {
	db          *mongo.Database
	noteRepo    repositories.NoteRepository
	channelRepo repositories.ChannelRepository
}

// NewRepositoryFactory создает новую фабрику репозиториев.
func NewRepositoryFactory(db *mongo.Database) *RepositoryFactory {
	return &RepositoryFactory{
		db:          db,
		noteRepo:    NewNoteRepository(db),
		channelRepo: NewChannelRepository(db),
	}
}

// NoteRepository возвращает репозиторий заметок.
func (f *RepositoryFactory) NoteRepository() repositories.NoteRepository {
	return f.noteRepo
}

// ChannelRepository возвращает репозиторий каналов.
func (f *RepositoryFactory) ChannelRepository() repositories.ChannelRepository {
	return f.channelRepo
}

// Ping проверяет доступность базы данных.
func (f *RepositoryFactory) Ping(ctx context.Context) error {
	if err := f.db.Client().Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%s: %w", errPingDatabase, err)
	}
	return nil
}

// EnsureIndexes создает индексы для постраничного чтения и единственного канала по умолчанию.
func (f *RepositoryFactory) EnsureIndexes(ctx context.Context) error {
	log := logger.Log(ctx).With(zap.String("method", "EnsureIndexes"))

	notesIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}},
	}
	if _, err := f.db.Collection(NotesCollection).Indexes().CreateMany(ctx, notesIdx); err != nil {
		log.Error(ctx, errCreateIndexes, zap.String("collection", NotesCollection), zap.Error(err))
		return fmt.Errorf("%s: %w", errCreateIndexes, err)
	}

	channelsIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("uq_channels_default_per_user").
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "is_default", Value: true}}),
		},
	}
	if _, err := f.db.Collection(ChannelsCollection).Indexes().CreateMany(ctx, channelsIdx); err != nil {
		log.Error(ctx, errCreateIndexes, zap.String("collection", ChannelsCollection), zap.Error(err))
		return fmt.Errorf("%s: %w", errCreateIndexes, err)
	}

	log.Info(ctx, "mongo indexes ensured")
	return nil
}
