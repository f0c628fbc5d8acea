package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/justicehub/platform/internal/llm"
	"github.com/justicehub/platform/internal/model"
	"github.com/justicehub/platform/pkg/logger"
)

const personaHistoryLimit = 10

// LawyerGetter resolves a lawyer profile by id.
type LawyerGetter interface {
	Get(ctx context.Context, id uint) (*model.LawyerProfile, error)
}

// LawyerAssistant answers client questions in the voice of a specific
// lawyer. Outbound calls are throttled per instance.
type LawyerAssistant struct {
	lawyers   LawyerGetter
	llmClient llm.Client
	model     string
	limiter   *rate.Limiter
	logger    *logger.Logger
}

// NewLawyerAssistant creates a persona assistant allowing rps model calls
// per second.
func NewLawyerAssistant(lawyers LawyerGetter, llmClient llm.Client, model string, rps float64, log *logger.Logger) *LawyerAssistant {
	return &LawyerAssistant{
		lawyers:   lawyers,
		llmClient: llmClient,
		model:     model,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		logger:    log.Component("persona"),
	}
}

// Reply produces the lawyer's answer to req.Message given the earlier turns.
func (a *LawyerAssistant) Reply(ctx context.Context, lawyerID uint, req *model.AssistantRequest) (*model.AssistantResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}

	lawyer, err := a.lawyers.Get(ctx, lawyerID)
	if err != nil {
		return nil, err
	}

	if !a.limiter.Allow() {
		return nil, fmt.Errorf("%w: assistant is busy, try again shortly", ErrRateLimited)
	}

	resp, err := a.llmClient.Complete(ctx, &llm.CompletionRequest{
		Purpose:   llm.PurposePersona,
		Model:     a.model,
		Messages:  []llm.ChatMessage{{Role: "user", Content: PersonaPrompt(lawyer, req.Message, req.ChatHistory)}},
		MaxTokens: 1024,
	})
	if err != nil {
		logger.FromContext(ctx).Error("persona completion failed",
			zap.Uint("lawyer_id", lawyerID),
			zap.Error(err),
		)
		if errors.Is(err, llm.ErrProviderRateLimited) {
			return nil, fmt.Errorf("%w: assistant is busy, try again shortly", ErrRateLimited)
		}
		return nil, fmt.Errorf("%w: assistant unavailable", ErrUpstream)
	}
	if strings.TrimSpace(resp.Content) == "" {
		return nil, fmt.Errorf("%w: empty assistant reply", ErrUpstream)
	}

	return &model.AssistantResponse{Response: resp.Content}, nil
}

// PersonaPrompt renders the instruction for answering as lawyer. Only the
// last ten history turns are included.
func PersonaPrompt(lawyer *model.LawyerProfile, message string, history []model.ChatMessage) string {
	if len(history) > personaHistoryLimit {
		history = history[len(history)-personaHistoryLimit:]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a lawyer representing a lawyer named %s who specializes in %s with %d years of experience.\n",
		lawyer.Name, lawyer.Specialization, lawyer.Experience)
	fmt.Fprintf(&b, "You're based in %s.\n", lawyer.Location)
	b.WriteString(`Act as if you are this lawyer providing legal consultation through a chat interface.
Be professional, knowledgeable, and helpful, while maintaining the appropriate tone expected from a legal professional.

Remember that:
1. You cannot give binding legal advice - always clarify this
2. You should suggest scheduling a real consultation for complex matters
3. You should ask clarifying questions when needed
4. You should be empathetic but professional
5. Keep responses concise and focused on the legal matter at hand

Previous conversation (if any):
`)
	for _, m := range history {
		speaker := "Client"
		if m.Role == model.RoleAssistant {
			speaker = "Lawyer"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
	}
	fmt.Fprintf(&b, "\nLatest client message: %s\n\nRespond as the lawyer:", message)
	return b.String()
}
