package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicDefaultModel = "claude-3-5-sonnet-20241022"

// jsonPrefill starts the assistant turn so the reply continues a JSON
// object. The Messages API has no response-format switch.
const jsonPrefill = "{"

// AnthropicClient is the Anthropic LLM client.
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

// Name returns the provider name.
func (c *AnthropicClient) Name() string {
	return string(ProviderAnthropic)
}

// Models returns available models.
func (c *AnthropicClient) Models() []string {
	return []string{
		"claude-3-5-sonnet-20241022",
		"claude-3-5-haiku-20241022",
		"claude-3-haiku-20240307",
	}
}

func textTurn(role anthropic.MessageParamRole, text string) anthropic.MessageParam {
	return anthropic.MessageParam{
		Role: anthropic.F(role),
		Content: anthropic.F([]anthropic.ContentBlockParamUnion{
			anthropic.TextBlockParam{
				Type: anthropic.F(anthropic.TextBlockParamTypeText),
				Text: anthropic.F(text),
			},
		}),
	}
}

// messageParams converts a request. System-role messages are folded into
// the system prompt since the Messages API only accepts user and assistant
// turns.
func messageParams(req *CompletionRequest) anthropic.MessageNewParams {
	model, maxTokens := req.resolve(anthropicDefaultModel)

	var system []string
	if req.System != "" {
		system = append(system, req.System)
	}
	turns := make([]anthropic.MessageParam, 0, len(req.Messages)+1)
	for _, msg := range req.Messages {
		if msg.Role == "system" {
			system = append(system, msg.Content)
			continue
		}
		turns = append(turns, textTurn(anthropic.MessageParamRole(msg.Role), msg.Content))
	}
	if req.JSON {
		turns = append(turns, textTurn(anthropic.MessageParamRoleAssistant, jsonPrefill))
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(model),
		MaxTokens: anthropic.F(int64(maxTokens)),
		Messages:  anthropic.F(turns),
	}
	if len(system) > 0 {
		params.System = anthropic.F([]anthropic.TextBlockParam{{
			Type: anthropic.F(anthropic.TextBlockParamTypeText),
			Text: anthropic.F(strings.Join(system, "\n\n")),
		}})
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.F(req.Temperature)
	}
	return params
}

// anthropicError tags provider throttling so callers can tell it apart.
func anthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrProviderRateLimited, err)
	}
	return err
}

// Complete sends a completion request.
func (c *AnthropicClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	resp, err := c.client.Messages.New(ctx, messageParams(req))
	if err != nil {
		return nil, anthropicError(err)
	}

	var content strings.Builder
	if req.JSON {
		content.WriteString(jsonPrefill)
	}
	for _, block := range resp.Content {
		if block.Type == anthropic.ContentBlockTypeText {
			content.WriteString(block.Text)
		}
	}

	return &CompletionResponse{
		Content:    content.String(),
		Model:      resp.Model,
		TokensIn:   int(resp.Usage.InputTokens),
		TokensOut:  int(resp.Usage.OutputTokens),
		StopReason: string(resp.StopReason),
		LatencyMs:  time.Since(start).Milliseconds(),
	}, nil
}

// CompleteStream sends a streaming completion request. JSON mode is not
// applied to streams.
func (c *AnthropicClient) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	start := time.Now()

	plain := *req
	plain.JSON = false
	model, _ := plain.resolve(anthropicDefaultModel)
	stream := c.client.Messages.NewStreaming(ctx, messageParams(&plain))

	out := &CompletionResponse{Model: model}
	var content strings.Builder
	index := 0

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case anthropic.MessageStreamEventTypeMessageStart:
			out.TokensIn = int(event.Message.Usage.InputTokens)
		case anthropic.MessageStreamEventTypeContentBlockDelta:
			if event.Delta.Type != "text_delta" {
				continue
			}
			content.WriteString(event.Delta.Text)
			if err := callback(event.Delta.Text, index); err != nil {
				return nil, err
			}
			index++
		case anthropic.MessageStreamEventTypeMessageDelta:
			out.StopReason = string(event.Delta.StopReason)
			out.TokensOut = int(event.Usage.OutputTokens)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, anthropicError(err)
	}

	out.Content = content.String()
	out.LatencyMs = time.Since(start).Milliseconds()
	return out, nil
}
