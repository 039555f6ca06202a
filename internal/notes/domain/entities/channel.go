package entities

import "time"

// ChannelType - тип канала доставки.
type ChannelType string

// Поддерживаемые типы каналов.
const (
	ChannelTypePersonal ChannelType = "personal"
	ChannelTypeEmail    ChannelType = "email"
	ChannelTypeTelegram ChannelType = "telegram"
	ChannelTypeWebhook  ChannelType = "webhook"
)

// Valid сообщает, является ли тип допустимым.
func (t ChannelType) Valid() bool {
	switch t {
	case ChannelTypePersonal, ChannelTypeEmail, ChannelTypeTelegram, ChannelTypeWebhook:
		return true
	default:
		return false
	}
}

// Channel представляет канал пользователя, к которому привязаны заметки.
type Channel struct {
	ID        string
	UserID    string
	Name      string
	Type      ChannelType
	IsDefault bool
	CreatedAt time.Time
	DeletedAt *time.Time
}

// NewChannel создает активный канал.
func NewChannel(userID, name string, channelType ChannelType, isDefault bool) *Channel {
	return &Channel{
		UserID:    userID,
		Name:      name,
		Type:      channelType,
		IsDefault: isDefault,
		CreatedAt: time.Now().UTC(),
	}
}

// Active сообщает, что канал не помечен как удаленный.
func (c *Channel) Active() bool {
	return c.DeletedAt == nil
}

// ChannelView - канал в ответе списка каналов.
type ChannelView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Type      ChannelType `json:"type"`
	IsDefault bool        `json:"isDefault"`
}
