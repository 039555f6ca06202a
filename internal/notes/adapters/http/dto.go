package http

import (
	"notechan/internal/notes/domain/entities"
	"notechan/internal/notes/ports/api"
)

// CreateNoteRequest содержит данные для создания заметки.
type CreateNoteRequest struct {
	ChannelID string   `json:"channelId"`
	Content   string   `json:"content" validate:"required"`
	Tags      []string `json:"tags" validate:"omitempty,max=32,dive,required,max=64"`
}

func (r *CreateNoteRequest) toInput() api.CreateNoteInput {
	return api.CreateNoteInput{
		ChannelID: r.ChannelID,
		Content:   r.Content,
		Tags:      r.Tags,
	}
}

// UpdateNoteRequest содержит изменяемые поля; отсутствующие поля не трогаются.
type UpdateNoteRequest struct {
	Content   *string   `json:"content"`
	Tags      *[]string `json:"tags" validate:"omitempty,max=32,dive,required,max=64"`
	ChannelID *string   `json:"channelId"`
	Status    *string   `json:"status" validate:"omitempty,oneof=draft active archived"`
}

func (r *UpdateNoteRequest) toPatch() entities.NotePatch {
	patch := entities.NotePatch{
		Content:   r.Content,
		Tags:      r.Tags,
		ChannelID: r.ChannelID,
	}
	if r.Status != nil {
		status := entities.NoteStatus(*r.Status)
		patch.Status = &status
	}
	return patch
}

// CreateChannelRequest содержит данные для создания канала.
type CreateChannelRequest struct {
	Name      string `json:"name" validate:"required,max=128"`
	Type      string `json:"type" validate:"required,oneof=personal email telegram webhook"`
	IsDefault bool   `json:"isDefault"`
}

func (r *CreateChannelRequest) toInput() api.CreateChannelInput {
	return api.CreateChannelInput{
		Name:      r.Name,
		Type:      entities.ChannelType(r.Type),
		IsDefault: r.IsDefault,
	}
}

// ErrorResponse - тело ответа с ошибкой.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
}

// HealthResponse - тело ответа проверки готовности.
type HealthResponse struct {
	Status string `json:"status"`
}
