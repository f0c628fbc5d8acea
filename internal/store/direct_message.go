package store

import (
	"context"
	"sort"

	"github.com/justicehub/platform/internal/model"
)

// CreateDirectMessage inserts a direct message.
func (s *Store) CreateDirectMessage(ctx context.Context, m *model.DirectMessage) error {
	return translate(s.db.WithContext(ctx).Create(m).Error)
}

// ListParticipantMessages returns every message sent or received by
// participant, newest first.
func (s *Store) ListParticipantMessages(ctx context.Context, participant string) ([]model.DirectMessage, error) {
	var out []model.DirectMessage
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", participant, participant).
		Order("created_at DESC").
		Find(&out).Error
	return out, translate(err)
}

// ListConversationMessages returns the messages of one conversation, newest
// first.
func (s *Store) ListConversationMessages(ctx context.Context, conversationID string) ([]model.DirectMessage, error) {
	var out []model.DirectMessage
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Find(&out).Error
	return out, translate(err)
}

// MarkConversationRead flags every unread message of the conversation
// addressed to receiver as read and returns how many rows changed.
func (s *Store) MarkConversationRead(ctx context.Context, conversationID, receiver string) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.DirectMessage{}).
		Where("conversation_id = ? AND receiver_id = ? AND read = ?", conversationID, receiver, false).
		Update("read", true)
	return res.RowsAffected, translate(res.Error)
}

// FindConversationID returns the id of the most recent conversation between
// a and b, or "" when they never exchanged a message.
func (s *Store) FindConversationID(ctx context.Context, a, b string) (string, error) {
	var m model.DirectMessage
	err := s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at DESC").
		Limit(1).
		Find(&m).Error
	if err != nil {
		return "", translate(err)
	}
	return m.ConversationID, nil
}

// CountUnread counts unread messages addressed to receiver.
func (s *Store) CountUnread(ctx context.Context, receiver string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.DirectMessage{}).
		Where("receiver_id = ? AND read = ?", receiver, false).
		Count(&n).Error
	return n, translate(err)
}

// RecentParticipantMessages returns up to perDirection sent and perDirection
// received messages, merged newest first.
func (s *Store) RecentParticipantMessages(ctx context.Context, participant string, perDirection int) ([]model.DirectMessage, error) {
	var sent, received []model.DirectMessage
	db := s.db.WithContext(ctx)

	if err := db.Where("sender_id = ?", participant).
		Order("created_at DESC").Limit(perDirection).Find(&sent).Error; err != nil {
		return nil, translate(err)
	}
	if err := db.Where("receiver_id = ?", participant).
		Order("created_at DESC").Limit(perDirection).Find(&received).Error; err != nil {
		return nil, translate(err)
	}

	out := append(sent, received...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
