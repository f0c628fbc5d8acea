package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/justicehub/platform/internal/model"
)

// CreateChat inserts a chat session.
func (s *Store) CreateChat(ctx context.Context, c *model.Chat) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

// GetChat returns one chat by id.
func (s *Store) GetChat(ctx context.Context, id string) (*model.Chat, error) {
	c := &model.Chat{}
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(c).Error; err != nil {
		return nil, translate(err)
	}
	return c, nil
}

// ListChats returns a user's chats, most recently updated first.
func (s *Store) ListChats(ctx context.Context, userID string) ([]model.Chat, error) {
	var out []model.Chat
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&out).Error
	return out, translate(err)
}

// UpdateChat persists the title and bumps updated_at.
func (s *Store) UpdateChat(ctx context.Context, c *model.Chat) error {
	res := s.db.WithContext(ctx).Model(c).
		Updates(map[string]interface{}{"title": c.Title, "updated_at": c.UpdatedAt})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChat removes a chat and its messages, messages first.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&model.ChatMessage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Chat{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}))
}

// CreateChatMessage appends a message and touches the parent chat.
func (s *Store) CreateChatMessage(ctx context.Context, m *model.ChatMessage) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&model.Chat{}).Where("id = ?", m.ChatID).
			Update("updated_at", m.CreatedAt).Error
	}))
}

// ListChatMessages returns a chat's messages in conversation order.
func (s *Store) ListChatMessages(ctx context.Context, chatID string) ([]model.ChatMessage, error) {
	var out []model.ChatMessage
	err := s.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&out).Error
	return out, translate(err)
}
