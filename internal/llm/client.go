// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"errors"
)

// ErrProviderRateLimited is returned when the provider throttled the call.
var ErrProviderRateLimited = errors.New("llm provider rate limited")

const defaultMaxTokens = 4096

// StreamCallback is called for each token during streaming.
type StreamCallback func(token string, index int) error

// Purpose labels what a completion is used for in metrics and traces.
type Purpose string

const (
	PurposeAssistant Purpose = "assistant"
	PurposePersona   Purpose = "persona"
	PurposeSearch    Purpose = "search"
)

// CompletionRequest represents a completion request. System carries the
// system prompt; Messages hold only user and assistant turns. JSON asks the
// provider for a single JSON object as the reply.
type CompletionRequest struct {
	Purpose     Purpose
	Model       string
	System      string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
	Stream      bool
	JSON        bool
}

// resolve fills the model and token limit the caller left unset.
func (r *CompletionRequest) resolve(defaultModel string) (model string, maxTokens int) {
	model, maxTokens = r.Model, r.MaxTokens
	if model == "" {
		model = defaultModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return model, maxTokens
}

// ChatMessage represents a chat message for LLM.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// CompleteStream sends a streaming completion request.
	CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

// ParseProvider maps a configured provider name; anything unrecognised is
// Anthropic.
func ParseProvider(name string) Provider {
	if Provider(name) == ProviderOpenAI {
		return ProviderOpenAI
	}
	return ProviderAnthropic
}

// NewClient creates a new LLM client based on provider. An unknown provider
// falls back to Anthropic.
func NewClient(provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	default:
		return NewAnthropicClient(apiKey)
	}
}
