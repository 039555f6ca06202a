package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"notechan/internal/notes/domain/entities"
	"notechan/internal/notes/ports/repositories"
	"notechan/pkg/logger"
)

const (
	errCreateChannel = "failed to create channel"
	errResetDefault  = "failed to reset default channel"
	errGetChannel    = "failed to get channel"
	errListChannels  = "failed to list channels"
)

// ChannelRepository реализует интерфейс repositories.ChannelRepository для работы с MongoDB.
type ChannelRepository struct {
	channels *mongo.Collection
}

// NewChannelRepository создает новый экземпляр репозитория каналов.
func NewChannelRepository(db *mongo.Database) repositories.ChannelRepository {
	return &ChannelRepository{channels: db.Collection(ChannelsCollection)}
}

// Create сохраняет канал; для канала по умолчанию сначала снимается прежний флаг.
func (r *ChannelRepository) Create(ctx context.Context, channel *entities.Channel) (string, error) {
	log := logger.Log(ctx).With(zap.String("repository", "channel"), zap.String("method", "Create"))

	if channel.IsDefault {
		reset := bson.D{{Key: "$set", Value: bson.D{{Key: "is_default", Value: false}}}}
		if _, err := r.channels.UpdateMany(ctx, defaultFilter(channel.UserID), reset); err != nil {
			log.Error(ctx, errResetDefault, zap.Error(err))
			return "", fmt.Errorf("%s: %w", errResetDefault, err)
		}
	}

	doc := newChannelDocument(channel)
	doc.ID = bson.NewObjectID()

	if _, err := r.channels.InsertOne(ctx, doc); err != nil {
		log.Error(ctx, errCreateChannel, zap.Error(err))
		return "", fmt.Errorf("%s: %w", errCreateChannel, err)
	}
	return doc.ID.Hex(), nil
}

// FindDefault ищет активный канал по умолчанию.
func (r *ChannelRepository) FindDefault(ctx context.Context, userID string) (*entities.Channel, error) {
	return r.findOne(ctx, "FindDefault", activeDefaultFilter(userID))
}

// GetByID находит канал владельца.
func (r *ChannelRepository) GetByID(ctx context.Context, channelID, userID string) (*entities.Channel, error) {
	oid, err := parseObjectID(channelID)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, "GetByID", ownedFilter(oid, userID))
}

func (r *ChannelRepository) findOne(ctx context.Context, method string, filter bson.D) (*entities.Channel, error) {
	var doc channelDocument
	if err := r.channels.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entities.ErrChannelNotFound
		}
		logger.Log(ctx).Error(ctx, errGetChannel,
			zap.String("repository", "channel"), zap.String("method", method), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errGetChannel, err)
	}
	return doc.toEntity(), nil
}

// ListByUserID возвращает все каналы владельца.
func (r *ChannelRepository) ListByUserID(ctx context.Context, userID string) ([]*entities.Channel, error) {
	log := logger.Log(ctx).With(zap.String("repository", "channel"), zap.String("method", "ListByUserID"))

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.channels.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		log.Error(ctx, errListChannels, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errListChannels, err)
	}

	var docs []channelDocument
	if err := cursor.All(ctx, &docs); err != nil {
		log.Error(ctx, errListChannels, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errListChannels, err)
	}

	channels := make([]*entities.Channel, 0, len(docs))
	for _, doc := range docs {
		channels = append(channels, doc.toEntity())
	}
	return channels, nil
}

// Delete удаляет канал владельца.
func (r *ChannelRepository) Delete(ctx context.Context, channelID, userID string) (int64, error) {
	oid, err := parseObjectID(channelID)
	if err != nil {
		return 0, err
	}

	res, err := r.channels.DeleteOne(ctx, ownedFilter(oid, userID))
	if err != nil {
		logger.Log(ctx).Error(ctx, errDeleteChannel, zap.String("method", "Delete"), zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errDeleteChannel, err)
	}
	return res.DeletedCount, nil
}

func defaultFilter(userID string) bson.D {
	return bson.D{{Key: "user_id", Value: userID}, {Key: "is_default", Value: true}}
}

// activeDefaultFilter отбирает канал по умолчанию без отметки об удалении.
// deleted_at: null совпадает и с отсутствующим полем, и с явным null.
func activeDefaultFilter(userID string) bson.D {
	return append(defaultFilter(userID), bson.E{Key: "deleted_at", Value: nil})
}
