// Package entities defines the domain entities for the notes service.
package entities

import "time"

// NoteStatus описывает состояние заметки.
type NoteStatus string

// Допустимые состояния заметки.
const (
	NoteStatusDraft    NoteStatus = "draft"
	NoteStatusActive   NoteStatus = "active"
	NoteStatusArchived NoteStatus = "archived"
)

// Valid сообщает, является ли статус допустимым.
func (s NoteStatus) Valid() bool {
	switch s {
	case NoteStatusDraft, NoteStatusActive, NoteStatusArchived:
		return true
	default:
		return false
	}
}

// Note представляет собой заметку пользователя.
type Note struct {
	ID        string
	UserID    string
	ChannelID string
	Content   string
	Tags      []string
	Status    NoteStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewNote создает активную заметку в канале channelID.
func NewNote(userID, channelID, content string, tags []string) *Note {
	now := time.Now().UTC()
	return &Note{
		UserID:    userID,
		ChannelID: channelID,
		Content:   content,
		Tags:      CopyTags(tags),
		Status:    NoteStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ChannelRef - канал заметки в том виде, в каком его видит клиент.
type ChannelRef struct {
	Name string      `json:"name"`
	Type ChannelType `json:"type"`
}

// NoteView - заметка вместе с именем и типом ее канала.
type NoteView struct {
	ID      string     `json:"id"`
	Content string     `json:"content"`
	Tags    []string   `json:"tags"`
	Channel ChannelRef `json:"channel"`
	Status  NoteStatus `json:"status"`
}

// NoteSummary - элемент постраничного списка, без канала.
type NoteSummary struct {
	ID      string     `json:"id"`
	Content string     `json:"content"`
	Tags    []string   `json:"tags"`
	Status  NoteStatus `json:"status"`
}

// NotePatch содержит только изменяемые поля; nil означает "не менять".
type NotePatch struct {
	Content   *string
	Tags      *[]string
	ChannelID *string
	Status    *NoteStatus
}

// IsEmpty сообщает, что патч ничего не меняет.
func (p NotePatch) IsEmpty() bool {
	return p.Content == nil && p.Tags == nil && p.ChannelID == nil && p.Status == nil
}

// UpdateResult - счетчики условного обновления.
type UpdateResult struct {
	Matched  int64
	Modified int64
}

// CopyTags возвращает независимую копию тегов; nil превращается в пустой срез.
func CopyTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
