// Package repositories defines repository interfaces for the notes service.
package repositories

import (
	"context"

	"notechan/internal/notes/domain/entities"
)

// NoteRepository определяет интерфейс для работы с репозиторием заметок.
// Все методы ограничены владельцем userID.
type NoteRepository interface {
	Create(ctx context.Context, note *entities.Note) (string, error)

	// GetByID возвращает entities.ErrNoteNotFound, если заметки нет или она чужая.
	GetByID(ctx context.Context, noteID, userID string) (*entities.Note, error)

	GetView(ctx context.Context, noteID, userID string) (*entities.NoteView, error)

	ListByUserID(ctx context.Context, userID string, skip, limit int) ([]*entities.NoteSummary, error)

	CountByUserID(ctx context.Context, userID string) (int64, error)

	// Update не считает отсутствие совпадения ошибкой.
	Update(ctx context.Context, noteID, userID string, patch entities.NotePatch) (entities.UpdateResult, error)

	Delete(ctx context.Context, noteID, userID string) (int64, error)

	// DeleteWithChannel удаляет заметку и ее канал.
	// Если удалилась только одна сторона, возвращается *entities.PartialDeleteError.
	DeleteWithChannel(ctx context.Context, noteID, channelID, userID string) (int64, error)
}
