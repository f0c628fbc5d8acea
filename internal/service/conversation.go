package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/pkg/logger"
	"github.com/justicehub/platform/pkg/metrics"
)

const maxDirectMessageLength = 10000

// DirectMessageStore is the persistence the conversation service needs.
type DirectMessageStore interface {
	CreateDirectMessage(ctx context.Context, m *model.DirectMessage) error
	ListParticipantMessages(ctx context.Context, participant string) ([]model.DirectMessage, error)
	ListConversationMessages(ctx context.Context, conversationID string) ([]model.DirectMessage, error)
	MarkConversationRead(ctx context.Context, conversationID, receiver string) (int64, error)
	FindConversationID(ctx context.Context, a, b string) (string, error)
}

// MessagePublisher delivers a stored message to live subscribers.
type MessagePublisher interface {
	PublishDirectMessage(ctx context.Context, m *model.DirectMessage) (uint64, error)
}

// ConversationService handles direct messages between two participants and
// derives the per-viewer conversation list from them.
type ConversationService struct {
	store     DirectMessageStore
	publisher MessagePublisher
	now       Clock
	logger    *logger.Logger
}

// NewConversationService creates a new conversation service. publisher may
// be nil, in which case messages are only stored.
func NewConversationService(st DirectMessageStore, publisher MessagePublisher, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:     st,
		publisher: publisher,
		now:       systemClock,
		logger:    log.Component("conversations"),
	}
}

// Aggregate groups messages by conversation id as seen by viewer. For each
// group the latest message wins (the first one seen on a timestamp tie),
// unread counts messages addressed to viewer that are not read, and the
// counterparty is the endpoint of the latest message that is not viewer.
// The result is ordered by latest message, newest first.
func Aggregate(messages []model.DirectMessage, viewer string) []model.ConversationSummary {
	groups := make(map[string]*model.ConversationSummary)
	var order []string

	for i := range messages {
		m := &messages[i]
		g, ok := groups[m.ConversationID]
		if !ok {
			g = &model.ConversationSummary{
				ConversationID: m.ConversationID,
				LatestMessage:  *m,
			}
			groups[m.ConversationID] = g
			order = append(order, m.ConversationID)
		} else if m.CreatedAt.After(g.LatestMessage.CreatedAt) {
			g.LatestMessage = *m
		}

		if m.ReceiverID == viewer && !m.Read {
			g.UnreadCount++
		}
	}

	out := make([]model.ConversationSummary, 0, len(order))
	for _, id := range order {
		g := groups[id]
		g.OtherParticipantID = g.LatestMessage.Counterparty(viewer)
		out = append(out, *g)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LatestMessage.CreatedAt.After(out[j].LatestMessage.CreatedAt)
	})
	return out
}

// List returns every conversation viewer takes part in.
func (s *ConversationService) List(ctx context.Context, viewer string) (*model.ListConversationsResponse, error) {
	messages, err := s.store.ListParticipantMessages(ctx, viewer)
	if err != nil {
		return nil, storeErr(err, "messages")
	}
	return &model.ListConversationsResponse{
		Conversations: Aggregate(messages, viewer),
	}, nil
}

// Messages returns a conversation newest first and marks the messages
// addressed to viewer read. Conversations viewer is not part of are
// reported as not found.
func (s *ConversationService) Messages(ctx context.Context, viewer, conversationID string) (*model.ConversationMessagesResponse, error) {
	messages, err := s.store.ListConversationMessages(ctx, conversationID)
	if err != nil {
		return nil, storeErr(err, "messages")
	}
	if !participates(messages, viewer) {
		return nil, fmt.Errorf("%w: conversation", ErrNotFound)
	}

	if _, err := s.store.MarkConversationRead(ctx, conversationID, viewer); err != nil {
		return nil, storeErr(err, "messages")
	}

	return &model.ConversationMessagesResponse{
		ConversationID: conversationID,
		Messages:       messages,
	}, nil
}

// With returns the conversation viewer shares with counterparty. The id is
// empty when they have not exchanged a message yet.
func (s *ConversationService) With(ctx context.Context, viewer, counterparty string) (*model.ConversationMessagesResponse, error) {
	if strings.TrimSpace(counterparty) == "" {
		return nil, fmt.Errorf("%w: counterparty is required", ErrValidation)
	}

	id, err := s.store.FindConversationID(ctx, viewer, counterparty)
	if err != nil {
		return nil, storeErr(err, "messages")
	}

	resp := &model.ConversationMessagesResponse{
		ConversationID: id,
		Messages:       []model.DirectMessage{},
	}
	if id == "" {
		return resp, nil
	}

	messages, err := s.store.ListConversationMessages(ctx, id)
	if err != nil {
		return nil, storeErr(err, "messages")
	}
	resp.Messages = messages
	return resp, nil
}

// MarkRead flags every message in the conversation addressed to viewer as
// read. Marking an already-read conversation is not an error.
func (s *ConversationService) MarkRead(ctx context.Context, viewer, conversationID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return fmt.Errorf("%w: conversation id is required", ErrValidation)
	}

	n, err := s.store.MarkConversationRead(ctx, conversationID, viewer)
	if err != nil {
		return storeErr(err, "messages")
	}
	logger.FromContext(ctx).Debug("messages marked read",
		zap.String("conversation_id", conversationID),
		zap.Int64("count", n),
	)
	return nil
}

// Send stores a message from sender to req.ReceiverID and publishes it for
// live delivery. Without a conversation id a new conversation is started.
func (s *ConversationService) Send(ctx context.Context, sender string, req *model.SendDirectMessageRequest) (*model.DirectMessage, error) {
	content := strings.TrimSpace(req.Content)
	switch {
	case content == "":
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	case !utf8.ValidString(content):
		return nil, fmt.Errorf("%w: content must be valid UTF-8", ErrValidation)
	case len(content) > maxDirectMessageLength:
		return nil, fmt.Errorf("%w: content exceeds %d bytes", ErrValidation, maxDirectMessageLength)
	case strings.TrimSpace(req.ReceiverID) == "":
		return nil, fmt.Errorf("%w: receiver is required", ErrValidation)
	case req.ReceiverID == sender:
		return nil, fmt.Errorf("%w: cannot message yourself", ErrValidation)
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.Must(uuid.NewV7()).String()
	} else {
		existing, err := s.store.ListConversationMessages(ctx, conversationID)
		if err != nil {
			return nil, storeErr(err, "messages")
		}
		// A conversation belongs to exactly two participants.
		if len(existing) > 0 && !betweenPair(existing, sender, req.ReceiverID) {
			return nil, fmt.Errorf("%w: conversation", ErrNotFound)
		}
	}

	msg := &model.DirectMessage{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		SenderID:       sender,
		ReceiverID:     req.ReceiverID,
		Content:        content,
		Read:           false,
		CreatedAt:      s.now(),
	}
	if err := s.store.CreateDirectMessage(ctx, msg); err != nil {
		return nil, storeErr(err, "message")
	}
	metrics.DirectMessagesTotal.Inc()

	if s.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if _, err := s.publisher.PublishDirectMessage(pubCtx, msg); err != nil {
			// The message is stored; live delivery is best effort.
			logger.FromContext(ctx).Warn("failed to publish direct message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return msg, nil
}

func participates(messages []model.DirectMessage, viewer string) bool {
	for i := range messages {
		if messages[i].SenderID == viewer || messages[i].ReceiverID == viewer {
			return true
		}
	}
	return false
}

func betweenPair(messages []model.DirectMessage, a, b string) bool {
	for i := range messages {
		m := &messages[i]
		if !(m.SenderID == a && m.ReceiverID == b) && !(m.SenderID == b && m.ReceiverID == a) {
			return false
		}
	}
	return true
}
