package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"notechan/internal/notes/domain/entities"
	"notechan/internal/notes/ports/repositories"
	"notechan/pkg/logger"
)

const (
	errCreateNote     = "failed to create note"
	errGetNote        = "failed to get note"
	errListNotes      = "failed to list notes"
	errCountNotes     = "failed to count notes"
	errUpdateNote     = "failed to update note"
	errTouchNote      = "failed to bump note updated_at"
	errDeleteNote     = "failed to delete note"
	errDeleteChannel  = "failed to delete channel"
	errEmptyNotePatch = "empty note patch"
)

// NoteRepository реализует интерфейс repositories.NoteRepository для работы с MongoDB.
type NoteRepository struct {
	notes    *mongo.Collection
	channels *mongo.Collection
}

// NewNoteRepository создает новый экземпляр репозитория заметок.
func NewNoteRepository(db *mongo.Database) repositories.NoteRepository {
	return &NoteRepository{
		notes:    db.Collection(NotesCollection),
		channels: db.Collection(ChannelsCollection),
	}
}

// Create сохраняет новую заметку.
func (r *NoteRepository) Create(ctx context.Context, note *entities.Note) (string, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "Create"))

	channelID, err := parseObjectID(note.ChannelID)
	if err != nil {
		return "", err
	}

	doc := newNoteDocument(note, channelID)
	doc.ID = bson.NewObjectID()

	if _, err := r.notes.InsertOne(ctx, doc); err != nil {
		log.Error(ctx, errCreateNote, zap.Error(err))
		return "", fmt.Errorf("%s: %w", errCreateNote, err)
	}

	log.Debug(ctx, "note created", zap.String("note_id", doc.ID.Hex()))
	return doc.ID.Hex(), nil
}

// GetByID находит заметку владельца.
func (r *NoteRepository) GetByID(ctx context.Context, noteID, userID string) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "GetByID"))

	oid, err := parseObjectID(noteID)
	if err != nil {
		return nil, err
	}

	var doc noteDocument
	if err := r.notes.FindOne(ctx, ownedFilter(oid, userID)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entities.ErrNoteNotFound
		}
		log.Error(ctx, errGetNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errGetNote, err)
	}
	return doc.toEntity(), nil
}

// GetView находит заметку вместе с каналом через $lookup.
func (r *NoteRepository) GetView(ctx context.Context, noteID, userID string) (*entities.NoteView, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "GetView"))

	oid, err := parseObjectID(noteID)
	if err != nil {
		return nil, err
	}

	cursor, err := r.notes.Aggregate(ctx, viewPipeline(oid, userID))
	if err != nil {
		log.Error(ctx, errGetNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errGetNote, err)
	}

	var docs []noteWithChannel
	if err := cursor.All(ctx, &docs); err != nil {
		log.Error(ctx, errGetNote, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errGetNote, err)
	}
	if len(docs) == 0 {
		return nil, entities.ErrNoteNotFound
	}
	return docs[0].toView(), nil
}

func viewPipeline(noteID bson.ObjectID, userID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: ownedFilter(noteID, userID)}},
		{{Key: "$limit", Value: 1}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: ChannelsCollection},
			{Key: "localField", Value: "channel_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "channel"},
		}}},
	}
}

// ListByUserID возвращает страницу заметок владельца в порядке создания.
func (r *NoteRepository) ListByUserID(ctx context.Context, userID string, skip, limit int) ([]*entities.NoteSummary, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "ListByUserID"))

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.notes.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		log.Error(ctx, errListNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errListNotes, err)
	}

	var docs []noteDocument
	if err := cursor.All(ctx, &docs); err != nil {
		log.Error(ctx, errListNotes, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errListNotes, err)
	}

	notes := make([]*entities.NoteSummary, 0, len(docs))
	for _, doc := range docs {
		notes = append(notes, doc.toSummary())
	}
	return notes, nil
}

// CountByUserID считает заметки владельца.
func (r *NoteRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	total, err := r.notes.CountDocuments(ctx, bson.D{{Key: "user_id", Value: userID}})
	if err != nil {
		logger.Log(ctx).Error(ctx, errCountNotes, zap.String("method", "CountByUserID"), zap.Error(err))
		return 0, fmt.Errorf("%s: %w", errCountNotes, err)
	}
	return total, nil
}

// Update применяет присутствующие поля patch.
// updated_at сдвигается, только если документ действительно изменился.
func (r *NoteRepository) Update(ctx context.Context, noteID, userID string, patch entities.NotePatch) (entities.UpdateResult, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "Update"))

	oid, err := parseObjectID(noteID)
	if err != nil {
		return entities.UpdateResult{}, err
	}
	set, err := patchSet(patch)
	if err != nil {
		return entities.UpdateResult{}, err
	}

	filter := ownedFilter(oid, userID)
	res, err := r.notes.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		log.Error(ctx, errUpdateNote, zap.Error(err))
		return entities.UpdateResult{}, fmt.Errorf("%s: %w", errUpdateNote, err)
	}

	if res.ModifiedCount > 0 {
		touch := bson.D{{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().UTC()}}}}
		if _, err := r.notes.UpdateOne(ctx, filter, touch); err != nil {
			log.Warn(ctx, errTouchNote, zap.Error(err))
		}
	}

	return entities.UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// Delete удаляет заметку владельца.
func (r *NoteRepository) Delete(ctx context.Context, noteID, userID string) (int64, error) {
	oid, err := parseObjectID(noteID)
	if err != nil {
		return 0, err
	}
	return r.deleteOne(ctx, r.notes, oid, userID, errDeleteNote)
}

// DeleteWithChannel параллельно удаляет заметку и канал.
// Без транзакций одна из сторон может уцелеть, тогда возвращается *entities.PartialDeleteError.
func (r *NoteRepository) DeleteWithChannel(ctx context.Context, noteID, channelID, userID string) (int64, error) {
	log := logger.Log(ctx).With(zap.String("repository", "note"), zap.String("method", "DeleteWithChannel"))

	noteOID, err := parseObjectID(noteID)
	if err != nil {
		return 0, err
	}
	channelOID, err := parseObjectID(channelID)
	if err != nil {
		return 0, err
	}

	var (
		g          errgroup.Group
		deleted    int64
		noteErr    error
		channelErr error
	)
	g.Go(func() error {
		deleted, noteErr = r.deleteOne(ctx, r.notes, noteOID, userID, errDeleteNote)
		return nil
	})
	g.Go(func() error {
		_, channelErr = r.deleteOne(ctx, r.channels, channelOID, userID, errDeleteChannel)
		return nil
	})
	_ = g.Wait()

	deleted, err = deleteOutcome(userID, noteID, channelID, deleted, noteErr, channelErr)
	if err != nil {
		log.Warn(ctx, "note and channel delete incomplete", zap.Error(err))
	}
	return deleted, err
}

func (r *NoteRepository) deleteOne(ctx context.Context, coll *mongo.Collection, id bson.ObjectID, userID, msg string) (int64, error) {
	res, err := coll.DeleteOne(ctx, ownedFilter(id, userID))
	if err != nil {
		logger.Log(ctx).Error(ctx, msg, zap.String("collection", coll.Name()), zap.Error(err))
		return 0, fmt.Errorf("%s: %w", msg, err)
	}
	return res.DeletedCount, nil
}
