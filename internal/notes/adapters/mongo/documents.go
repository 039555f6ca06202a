// Package mongo provides MongoDB implementations of repositories.
package mongo

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"notechan/internal/notes/domain/entities"
)

// Имена коллекций.
const (
	NotesCollection    = "notes"
	ChannelsCollection = "channels"
)

type noteDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    string        `bson:"user_id"`
	ChannelID bson.ObjectID `bson:"channel_id"`
	Content   string        `bson:"content"`
	Tags      []string      `bson:"tags"`
	Status    string        `bson:"status"`
	CreatedAt time.Time     `bson:"created_at"`
	UpdatedAt time.Time     `bson:"updated_at"`
}

type channelDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    string        `bson:"user_id"`
	Name      string        `bson:"name"`
	Type      string        `bson:"type"`
	IsDefault bool          `bson:"is_default"`
	CreatedAt time.Time     `bson:"created_at"`
	DeletedAt *time.Time    `bson:"deleted_at,omitempty"`
}

// noteWithChannel - результат $lookup заметки с ее каналом.
type noteWithChannel struct {
	noteDocument `bson:",inline"`
	Channel      []channelDocument `bson:"channel"`
}

// parseObjectID разбирает hex-идентификатор документа.
func parseObjectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: %q", entities.ErrInvalidID, id)
	}
	return oid, nil
}

func ownedFilter(id bson.ObjectID, userID string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: userID}}
}

func newNoteDocument(note *entities.Note, channelID bson.ObjectID) noteDocument {
	return noteDocument{
		UserID:    note.UserID,
		ChannelID: channelID,
		Content:   note.Content,
		Tags:      entities.CopyTags(note.Tags),
		Status:    string(note.Status),
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
	}
}

func (d noteDocument) toEntity() *entities.Note {
	return &entities.Note{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		ChannelID: d.ChannelID.Hex(),
		Content:   d.Content,
		Tags:      entities.CopyTags(d.Tags),
		Status:    entities.NoteStatus(d.Status),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d noteDocument) toSummary() *entities.NoteSummary {
	return &entities.NoteSummary{
		ID:      d.ID.Hex(),
		Content: d.Content,
		Tags:    entities.CopyTags(d.Tags),
		Status:  entities.NoteStatus(d.Status),
	}
}

// toView собирает представление заметки; чужой или отсутствующий канал дает пустую ссылку.
func (d noteWithChannel) toView() *entities.NoteView {
	view := &entities.NoteView{
		ID:      d.ID.Hex(),
		Content: d.Content,
		Tags:    entities.CopyTags(d.Tags),
		Status:  entities.NoteStatus(d.Status),
	}
	for _, ch := range d.Channel {
		if ch.UserID == d.UserID {
			view.Channel = entities.ChannelRef{Name: ch.Name, Type: entities.ChannelType(ch.Type)}
			break
		}
	}
	return view
}

func newChannelDocument(channel *entities.Channel) channelDocument {
	return channelDocument{
		UserID:    channel.UserID,
		Name:      channel.Name,
		Type:      string(channel.Type),
		IsDefault: channel.IsDefault,
		CreatedAt: channel.CreatedAt,
		DeletedAt: channel.DeletedAt,
	}
}

func (d channelDocument) toEntity() *entities.Channel {
	return &entities.Channel{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Name:      d.Name,
		Type:      entities.ChannelType(d.Type),
		IsDefault: d.IsDefault,
		CreatedAt: d.CreatedAt,
		DeletedAt: d.DeletedAt,
	}
}

// patchSet строит $set для присутствующих полей patch.
func patchSet(patch entities.NotePatch) (bson.D, error) {
	var set bson.D
	if patch.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *patch.Content})
	}
	if patch.Tags != nil {
		set = append(set, bson.E{Key: "tags", Value: entities.CopyTags(*patch.Tags)})
	}
	if patch.ChannelID != nil {
		oid, err := parseObjectID(*patch.ChannelID)
		if err != nil {
			return nil, err
		}
		set = append(set, bson.E{Key: "channel_id", Value: oid})
	}
	if patch.Status != nil {
		set = append(set, bson.E{Key: "status", Value: string(*patch.Status)})
	}
	if len(set) == 0 {
		return nil, errors.New(errEmptyNotePatch)
	}
	return set, nil
}

// deleteOutcome сводит результаты параллельного удаления заметки и канала.
func deleteOutcome(userID, noteID, channelID string, deleted int64, noteErr, channelErr error) (int64, error) {
	switch {
	case noteErr == nil && channelErr == nil:
		return deleted, nil
	case noteErr != nil && channelErr != nil:
		return 0, fmt.Errorf("%s: %w", errDeleteNote, errors.Join(noteErr, channelErr))
	default:
		return deleted, &entities.PartialDeleteError{
			UserID:     userID,
			NoteID:     noteID,
			ChannelID:  channelID,
			NoteErr:    noteErr,
			ChannelErr: channelErr,
		}
	}
}
