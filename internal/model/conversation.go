package model

import (
	"time"
)

// DirectMessage is one message between two participants. ConversationID is
// an opaque grouping key shared by both directions of the exchange.
type DirectMessage struct {
	ID             string    `json:"id" gorm:"type:uuid;primaryKey"`
	ConversationID string    `json:"conversationId" gorm:"size:64;not null;index"`
	SenderID       string    `json:"senderId" gorm:"size:256;not null;index"`
	ReceiverID     string    `json:"receiverId" gorm:"size:256;not null;index:idx_dm_receiver_read"`
	Content        string    `json:"content" gorm:"not null"`
	Read           bool      `json:"read" gorm:"not null;default:false;index:idx_dm_receiver_read"`
	CreatedAt      time.Time `json:"createdAt" gorm:"not null;index"`
}

// Counterparty returns the endpoint of m that is not viewer.
func (m *DirectMessage) Counterparty(viewer string) string {
	if m.SenderID == viewer {
		return m.ReceiverID
	}
	return m.SenderID
}

// ConversationSummary is the derived view of one conversation for a viewer.
type ConversationSummary struct {
	ConversationID     string        `json:"conversationId"`
	OtherParticipantID string        `json:"otherParticipantId"`
	LatestMessage      DirectMessage `json:"latestMessage"`
	UnreadCount        int           `json:"unreadCount"`
}

// ListConversationsResponse is the response of GET /messages/conversations.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
}

// ConversationMessagesResponse carries one conversation's messages.
type ConversationMessagesResponse struct {
	ConversationID string          `json:"conversationId"`
	Messages       []DirectMessage `json:"messages"`
}

// SendDirectMessageRequest is the body of POST /messages.
type SendDirectMessageRequest struct {
	ReceiverID     string `json:"receiverId" validate:"required,max=256"`
	Content        string `json:"content" validate:"required"`
	ConversationID string `json:"conversationId,omitempty" validate:"omitempty,max=64"`
}

// MarkReadRequest is the body of PUT /messages/read.
type MarkReadRequest struct {
	ConversationID string `json:"conversationId" validate:"required,max=64"`
}
