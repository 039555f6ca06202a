package api

import (
	"context"

	"notechan/internal/notes/domain/entities"
)

// CreateNoteInput - данные новой заметки. Пустой ChannelID означает канал по умолчанию.
type CreateNoteInput struct {
	ChannelID string
	Content   string
	Tags      []string
}

// CreatedNote - результат создания.
type CreatedNote struct {
	ID string `json:"id"`
}

// UpdatedNote - результат условного обновления.
type UpdatedNote struct {
	ID            string `json:"id"`
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
}

// DeletedNote - результат удаления.
type DeletedNote struct {
	ID           string `json:"id"`
	DeletedCount int64  `json:"deletedCount"`
}

// NoteService определяет основной порт для операций с заметками.
type NoteService interface {
	CreateNote(ctx context.Context, userID string, in CreateNoteInput) (Envelope[CreatedNote], error)

	GetNote(ctx context.Context, userID, noteID string) (Envelope[*entities.NoteView], error)

	GetNotes(ctx context.Context, userID string, query PageQuery) (Envelope[Page[*entities.NoteSummary]], error)

	UpdateNote(ctx context.Context, userID, noteID string, patch entities.NotePatch) (Envelope[UpdatedNote], error)

	DeleteNote(ctx context.Context, userID, noteID string) (Envelope[DeletedNote], error)
}
