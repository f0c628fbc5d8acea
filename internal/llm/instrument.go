package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/justicehub/platform/pkg/metrics"
)

var tracer = otel.Tracer("github.com/justicehub/platform/internal/llm")

// Instrumented wraps a Client with Prometheus metrics and trace spans.
type Instrumented struct {
	next Client
}

// Instrument wraps c.
func Instrument(c Client) *Instrumented {
	return &Instrumented{next: c}
}

// Name returns the provider name.
func (c *Instrumented) Name() string { return c.next.Name() }

// Models returns available models.
func (c *Instrumented) Models() []string { return c.next.Models() }

// Complete sends a completion request.
func (c *Instrumented) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	ctx, span := c.start(ctx, "llm.complete", req)
	defer span.End()

	start := time.Now()
	resp, err := c.next.Complete(ctx, req)
	c.record(span, req, resp, err, time.Since(start))
	return resp, err
}

// CompleteStream sends a streaming completion request.
func (c *Instrumented) CompleteStream(ctx context.Context, req *CompletionRequest, callback StreamCallback) (*CompletionResponse, error) {
	ctx, span := c.start(ctx, "llm.stream", req)
	defer span.End()

	start := time.Now()
	resp, err := c.next.CompleteStream(ctx, req, callback)
	c.record(span, req, resp, err, time.Since(start))
	return resp, err
}

func (c *Instrumented) start(ctx context.Context, name string, req *CompletionRequest) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("llm.provider", c.next.Name()),
		attribute.String("llm.purpose", string(req.Purpose)),
		attribute.String("llm.model", req.Model),
		attribute.Int("llm.messages", len(req.Messages)),
	))
}

func (c *Instrumented) record(span trace.Span, req *CompletionRequest, resp *CompletionResponse, err error, elapsed time.Duration) {
	model := req.Model
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		metrics.RecordLLMCall(string(req.Purpose), model, "error", elapsed.Seconds(), 0, 0)
		return
	}

	if resp.Model != "" {
		model = resp.Model
	}
	span.SetAttributes(
		attribute.Int("llm.tokens_in", resp.TokensIn),
		attribute.Int("llm.tokens_out", resp.TokensOut),
		attribute.String("llm.stop_reason", resp.StopReason),
	)
	metrics.RecordLLMCall(string(req.Purpose), model, "success", elapsed.Seconds(), resp.TokensIn, resp.TokensOut)
}
