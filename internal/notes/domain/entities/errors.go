package entities

import (
	"errors"
	"fmt"
)

// Ошибки хранилища, общие для всех адаптеров.
var (
	ErrNoteNotFound    = errors.New("note not found")
	ErrChannelNotFound = errors.New("channel not found")
	ErrInvalidID       = errors.New("invalid identifier")
)

// PartialDeleteError означает, что из пары заметка+канал удалилась только одна сторона.
type PartialDeleteError struct {
	UserID    string
	NoteID    string
	ChannelID string

	NoteErr    error
	ChannelErr error
}

func (e *PartialDeleteError) Error() string {
	switch {
	case e.NoteErr != nil:
		return fmt.Sprintf("partial delete: channel %s removed, note %s kept: %v", e.ChannelID, e.NoteID, e.NoteErr)
	default:
		return fmt.Sprintf("partial delete: note %s removed, channel %s kept: %v", e.NoteID, e.ChannelID, e.ChannelErr)
	}
}

func (e *PartialDeleteError) Unwrap() []error {
	var errs []error
	if e.NoteErr != nil {
		errs = append(errs, e.NoteErr)
	}
	if e.ChannelErr != nil {
		errs = append(errs, e.ChannelErr)
	}
	return errs
}

// NoteDeleted сообщает, удалилась ли заметка.
func (e *PartialDeleteError) NoteDeleted() bool {
	return e.NoteErr == nil
}

// Leftovers возвращает задачи очистки для уцелевшей половины.
func (e *PartialDeleteError) Leftovers() []CleanupTask {
	var tasks []CleanupTask
	if e.NoteErr != nil {
		tasks = append(tasks, NewCleanupTask(CleanupNote, e.NoteID, e.UserID))
	}
	if e.ChannelErr != nil {
		tasks = append(tasks, NewCleanupTask(CleanupChannel, e.ChannelID, e.UserID))
	}
	return tasks
}
