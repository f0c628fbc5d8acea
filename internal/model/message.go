package model

import (
	"time"
)

// Role represents the author of an AI chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Chat is an AI legal-assistant session owned by one user.
type Chat struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"userId" gorm:"size:256;not null;index"`
	Title     string    `json:"title" gorm:"default:New Chat"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ChatMessage is one turn of a Chat.
type ChatMessage struct {
	ID        string    `json:"id,omitempty" gorm:"type:uuid;primaryKey"`
	ChatID    string    `json:"chatId,omitempty" gorm:"type:uuid;not null;index"`
	Role      Role      `json:"role" gorm:"size:20;not null"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt,omitempty"`

	Chat *Chat `json:"-" gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE"`
}

// CreateChatRequest is the request to create a new chat.
type CreateChatRequest struct {
	Title string `json:"title" validate:"max=256"`
}

// UpdateChatRequest is the request to rename a chat.
type UpdateChatRequest struct {
	Title string `json:"title" validate:"required,max=256"`
}

// AppendChatMessageRequest is the body of POST /chats/{id}/messages.
type AppendChatMessageRequest struct {
	Content string `json:"content" validate:"required"`
	Role    Role   `json:"role,omitempty" validate:"omitempty,oneof=user assistant"`
}

// SendChatMessageRequest is the body of POST /chats/{id}/stream.
type SendChatMessageRequest struct {
	Content string `json:"content" validate:"required"`
	Model   string `json:"model,omitempty" validate:"max=128"`
}
