package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/justicehub/platform/internal/llm"
	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/pkg/logger"
	"github.com/justicehub/platform/pkg/metrics"
)

const (
	defaultChatTitle   = "New Chat"
	chatHistoryLimit   = 50
	chatMaxTokens      = 2048
	chatTemperature    = 0.3
	maxChatMessageSize = 16000
)

// AssistantSystemPrompt keeps the assistant on legal topics.
const AssistantSystemPrompt = `You are LawGPT for India, an AI legal assistant specializing exclusively in Indian law. You will only respond to queries related to Indian legal matters and will politely decline to answer any questions outside this domain.

Response scope:
- Only answer questions about Indian law, legal procedures, rights, regulations, case law and legal concepts specific to India.
- Do not answer questions about non-legal topics, laws of other countries, or personal advice unrelated to legal matters.

Response guidelines:
- Provide structured, concise and easy-to-understand answers.
- Base responses on Indian legislation, including the Constitution, IPC, CrPC, CPC, Contract Act, IBC and IT Act.
- Simplify legal jargon and give judicial context where applicable.
- Present unbiased legal information without personal opinions.

When answering:
1. Begin with a brief, direct answer before explaining in detail.
2. Mention relevant Supreme Court or High Court judgments where applicable.
3. Cite specific sections of the relevant laws.
4. If a question needs case-specific advice, recommend consulting a legal professional.

For non-legal queries, politely say you only answer questions about Indian law.

Always end with: "This response provides general legal information based on Indian law. It is not a substitute for professional legal advice. For case-specific assistance, please consult a qualified lawyer."`

// ChatStore is the persistence the chat service needs.
type ChatStore interface {
	CreateChat(ctx context.Context, c *model.Chat) error
	GetChat(ctx context.Context, id string) (*model.Chat, error)
	ListChats(ctx context.Context, userID string) ([]model.Chat, error)
	UpdateChat(ctx context.Context, c *model.Chat) error
	DeleteChat(ctx context.Context, id string) error
	CreateChatMessage(ctx context.Context, m *model.ChatMessage) error
	ListChatMessages(ctx context.Context, chatID string) ([]model.ChatMessage, error)
}

// TokenCallback is called for each token during streaming.
type TokenCallback func(token string, index int) error

// ChatService manages AI legal-assistant sessions.
type ChatService struct {
	store     ChatStore
	llmClient llm.Client
	model     string
	now       Clock
	logger    *logger.Logger
}

// NewChatService creates a new chat service.
func NewChatService(st ChatStore, llmClient llm.Client, model string, log *logger.Logger) *ChatService {
	return &ChatService{
		store:     st,
		llmClient: llmClient,
		model:     model,
		now:       systemClock,
		logger:    log.Component("chats"),
	}
}

// Create starts a chat owned by userID.
func (s *ChatService) Create(ctx context.Context, userID string, req *model.CreateChatRequest) (*model.Chat, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = defaultChatTitle
	}

	now := s.now()
	c := &model.Chat{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateChat(ctx, c); err != nil {
		return nil, storeErr(err, "chat")
	}
	return c, nil
}

// Get returns one of userID's chats. Chats of other users are reported as
// not found.
func (s *ChatService) Get(ctx context.Context, userID, chatID string) (*model.Chat, error) {
	c, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, storeErr(err, "chat")
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("%w: chat", ErrNotFound)
	}
	return c, nil
}

// List returns userID's chats, most recent first.
func (s *ChatService) List(ctx context.Context, userID string) ([]model.Chat, error) {
	out, err := s.store.ListChats(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "chats")
	}
	return out, nil
}

// Rename changes a chat's title.
func (s *ChatService) Rename(ctx context.Context, userID, chatID string, req *model.UpdateChatRequest) (*model.Chat, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	c, err := s.Get(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	c.Title = title
	c.UpdatedAt = s.now()
	if err := s.store.UpdateChat(ctx, c); err != nil {
		return nil, storeErr(err, "chat")
	}
	return c, nil
}

// Delete removes a chat with its messages.
func (s *ChatService) Delete(ctx context.Context, userID, chatID string) error {
	if _, err := s.Get(ctx, userID, chatID); err != nil {
		return err
	}
	if err := s.store.DeleteChat(ctx, chatID); err != nil {
		return storeErr(err, "chat")
	}
	return nil
}

// Messages returns a chat's messages in order.
func (s *ChatService) Messages(ctx context.Context, userID, chatID string) ([]model.ChatMessage, error) {
	if _, err := s.Get(ctx, userID, chatID); err != nil {
		return nil, err
	}
	out, err := s.store.ListChatMessages(ctx, chatID)
	if err != nil {
		return nil, storeErr(err, "messages")
	}
	return out, nil
}

// Append stores a message without calling the model.
func (s *ChatService) Append(ctx context.Context, userID, chatID string, req *model.AppendChatMessageRequest) (*model.ChatMessage, error) {
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if role != model.RoleUser && role != model.RoleAssistant {
		return nil, fmt.Errorf("%w: role must be user or assistant", ErrValidation)
	}
	if err := checkChatContent(req.Content); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, userID, chatID); err != nil {
		return nil, err
	}
	return s.saveMessage(ctx, chatID, role, req.Content)
}

// SendWithStream stores the user's message, streams the assistant reply
// through onToken and stores the reply once complete.
func (s *ChatService) SendWithStream(
	ctx context.Context,
	userID, chatID string,
	req *model.SendChatMessageRequest,
	onToken TokenCallback,
) (*model.ChatMessage, *model.ChatMessage, *llm.CompletionResponse, error) {
	if err := checkChatContent(req.Content); err != nil {
		return nil, nil, nil, err
	}
	modelName, err := s.chatModel(req.Model)
	if err != nil {
		return nil, nil, nil, err
	}
	if _, err := s.Get(ctx, userID, chatID); err != nil {
		return nil, nil, nil, err
	}

	userMsg, err := s.saveMessage(ctx, chatID, model.RoleUser, req.Content)
	if err != nil {
		return nil, nil, nil, err
	}

	history, err := s.store.ListChatMessages(ctx, chatID)
	if err != nil {
		return userMsg, nil, nil, storeErr(err, "messages")
	}
	if len(history) > chatHistoryLimit {
		history = history[len(history)-chatHistoryLimit:]
	}

	chatMessages := make([]llm.ChatMessage, 0, len(history))
	for _, msg := range history {
		if msg.Role != model.RoleUser && msg.Role != model.RoleAssistant {
			continue
		}
		chatMessages = append(chatMessages, llm.ChatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	resp, err := s.llmClient.CompleteStream(ctx, &llm.CompletionRequest{
		Purpose:     llm.PurposeAssistant,
		Model:       modelName,
		System:      AssistantSystemPrompt,
		Messages:    chatMessages,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
		Stream:      true,
	}, func(token string, index int) error {
		return onToken(token, index)
	})
	if err != nil {
		logger.FromContext(ctx).Error("assistant stream failed",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return userMsg, nil, nil, fmt.Errorf("%w: assistant stream failed", ErrUpstream)
	}

	// The client may have gone away mid-stream; the reply is still kept.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	assistantMsg, err := s.saveMessage(saveCtx, chatID, model.RoleAssistant, resp.Content)
	if err != nil {
		return userMsg, nil, resp, err
	}
	return userMsg, assistantMsg, resp, nil
}

// chatModel resolves the requested model. Only models the provider lists
// are accepted.
func (s *ChatService) chatModel(requested string) (string, error) {
	if requested == "" {
		return s.model, nil
	}
	for _, m := range s.llmClient.Models() {
		if m == requested {
			return requested, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported model %q", ErrValidation, requested)
}

// saveMessage persists one chat message.
func (s *ChatService) saveMessage(ctx context.Context, chatID string, role model.Role, content string) (*model.ChatMessage, error) {
	msg := &model.ChatMessage{
		ID:        uuid.Must(uuid.NewV7()).String(),
		ChatID:    chatID,
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateChatMessage(ctx, msg); err != nil {
		return nil, storeErr(err, "message")
	}
	metrics.ChatMessagesTotal.WithLabelValues(string(role)).Inc()
	return msg, nil
}

func checkChatContent(content string) error {
	switch {
	case strings.TrimSpace(content) == "":
		return fmt.Errorf("%w: content is required", ErrValidation)
	case len(content) > maxChatMessageSize:
		return fmt.Errorf("%w: content exceeds %d bytes", ErrValidation, maxChatMessageSize)
	}
	return nil
}
