package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pep299/iracify/internal/infrastructure"
)

// CompletionRequest is a single-shot prompt for the model.
type CompletionRequest struct {
	System      string
	User        string
	Model       string // overrides the repository default when set
	Temperature float32
}

// LLMRepository sends prompts to a completion API and returns the raw text.
type LLMRepository interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Provider() string
}

// completeFunc is the provider-specific call, made with the timeout already applied.
type completeFunc func(ctx context.Context, model string, req CompletionRequest) (string, error)

// complete wraps a provider call with the request timeout, a span and the
// error classification shared by all providers.
func complete(ctx context.Context, provider, defaultModel string, timeout time.Duration, statusOf func(error) int, call completeFunc, req CompletionRequest) (string, error) {
	if req.System == "" || req.User == "" {
		return "", &ModelCallError{Provider: provider, Err: errors.New("prompts must be provided")}
	}
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = defaultModel
	}

	ctx, span := infrastructure.Tracer().Start(ctx, "model.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
	)

	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := call(ctxWithTimeout, model, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctxWithTimeout.Err(), context.DeadlineExceeded) {
			return "", &TimeoutError{Provider: provider, Timeout: timeout, Err: err}
		}
		return "", &ModelCallError{Provider: provider, StatusCode: statusOf(err), Err: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		span.SetStatus(codes.Error, "empty completion")
		return "", &ModelCallError{Provider: provider, Err: errors.New("empty response")}
	}
	span.SetAttributes(attribute.Int("llm.response_chars", len(text)))
	return text, nil
}
