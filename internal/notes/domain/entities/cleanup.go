package entities

import "time"

// CleanupKind - вид объекта, оставшегося после частичного удаления.
type CleanupKind string

// Виды задач очистки.
const (
	CleanupNote    CleanupKind = "note"
	CleanupChannel CleanupKind = "channel"
)

// CleanupTask описывает объект, который нужно дочистить.
type CleanupTask struct {
	Kind       CleanupKind `json:"kind"`
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	Attempts   int         `json:"attempts"`
	EnqueuedAt time.Time   `json:"enqueuedAt"`
}

// NewCleanupTask создает задачу очистки.
func NewCleanupTask(kind CleanupKind, id, userID string) CleanupTask {
	return CleanupTask{
		Kind:       kind,
		ID:         id,
		UserID:     userID,
		EnqueuedAt: time.Now().UTC(),
	}
}
