package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/model"
	"github.com/pep299/iracify/internal/prompt"
	"github.com/pep299/iracify/internal/repository"
	"github.com/pep299/iracify/internal/validator"
)

// InvalidOutputError is returned when the model answered but its output
// could not be validated. Raw is kept for developer mode.
type InvalidOutputError struct {
	Raw string
	Err error
}

func (e *InvalidOutputError) Error() string {
	return fmt.Sprintf("model output rejected: %v", e.Err)
}

func (e *InvalidOutputError) Unwrap() error { return e.Err }

// Timings records how long each stage of a summary took.
type Timings struct {
	Fetch    time.Duration
	Model    time.Duration
	Validate time.Duration
	Total    time.Duration
}

// Outcome is a validated summary together with what produced it.
type Outcome struct {
	Result     model.Result
	Raw        string
	Source     string
	SourceKind string
	Candidates []string
	Reprompted bool
	Timings    Timings
}

type SummarizerOptions struct {
	// RepromptOnInvalid retries the model once when its first answer fails validation.
	RepromptOnInvalid bool
}

type Summarizer struct {
	llm     repository.LLMRepository
	sources repository.SourceRepository
	logger  *infrastructure.Logger
	opts    SummarizerOptions
}

func NewSummarizer(
	llm repository.LLMRepository,
	sources repository.SourceRepository,
	logger *infrastructure.Logger,
	opts SummarizerOptions,
) *Summarizer {
	return &Summarizer{
		llm:     llm,
		sources: sources,
		logger:  logger,
		opts:    opts,
	}
}

// Summarize runs the full pipeline: input, prompt, model call, validation
// and guardrails.
func (s *Summarizer) Summarize(ctx context.Context, in Input, settings model.Settings) (*Outcome, error) {
	ctx, span := infrastructure.Tracer().Start(ctx, "summarize")
	defer span.End()
	span.SetAttributes(attribute.String("input.kind", string(in.Kind)), attribute.String("llm.provider", s.llm.Provider()))

	settings = settings.Clamp()
	start := time.Now()
	out := &Outcome{}

	text, sourceURL, kind, err := resolve(ctx, s.sources, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "input rejected")
		return nil, fmt.Errorf("reading input: %w", err)
	}
	out.Timings.Fetch = time.Since(start)
	out.Source = sourceURL
	if in.Kind == InputUpload {
		out.Source = in.FileName
	}
	out.SourceKind = kind

	p := prompt.SummaryPrompt(text, prompt.Options{TopK: settings.TopK})
	out.Candidates = p.CandidateNumbers()
	s.logger.Info("Summary prompt built",
		"input", in.Kind,
		"chars", len(text),
		"candidates", len(out.Candidates),
		"eclis", len(p.ECLIs),
	)

	v := validator.New(validator.Options{ReferencePolicy: settings.ReferencePolicy})
	req := repository.CompletionRequest{
		System:      p.System,
		User:        p.User,
		Model:       settings.Model,
		Temperature: settings.Temperature,
	}

	result, err := s.completeAndValidate(ctx, v, req, out)
	if err != nil && s.opts.RepromptOnInvalid && isInvalidOutput(err) {
		s.logger.Warn("Model output rejected, re-prompting", "error", err)
		out.Reprompted = true
		req.User = p.User + prompt.RepromptSuffix(errors.Unwrap(err))
		result, err = s.completeAndValidate(ctx, v, req, out)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "summary failed")
		return nil, err
	}

	result.Warnings = append(result.Warnings, demoteUnknownIDs(&result.Summary, out.Candidates)...)
	result.Warnings = append(result.Warnings, enforceMinRoles(&result.Summary, out.Candidates)...)

	var urls []string
	if sourceURL != "" {
		urls = []string{sourceURL}
	}
	result.Summary.Sources = mergeSources(result.Summary.Sources, p.ECLIs, urls)

	out.Result = result
	out.Timings.Total = time.Since(start)

	span.SetAttributes(
		attribute.Int("summary.considerations", len(result.Summary.Considerations)),
		attribute.Int("summary.warnings", len(result.Warnings)),
	)
	s.logger.Info("Summary complete",
		"considerations", len(result.Summary.Considerations),
		"warnings", len(result.Warnings),
		"reprompted", out.Reprompted,
		"fetch_duration_ms", out.Timings.Fetch.Milliseconds(),
		"model_duration_ms", out.Timings.Model.Milliseconds(),
		"validate_duration_ms", out.Timings.Validate.Milliseconds(),
		"total_duration_ms", out.Timings.Total.Milliseconds(),
	)
	return out, nil
}

func (s *Summarizer) completeAndValidate(ctx context.Context, v *validator.Validator, req repository.CompletionRequest, out *Outcome) (model.Result, error) {
	modelStart := time.Now()
	raw, err := s.llm.Complete(ctx, req)
	out.Timings.Model += time.Since(modelStart)
	if err != nil {
		return model.Result{}, fmt.Errorf("calling %s: %w", s.llm.Provider(), err)
	}
	out.Raw = raw

	_, span := infrastructure.Tracer().Start(ctx, "validate")
	defer span.End()

	validateStart := time.Now()
	result, err := v.Validate(raw)
	out.Timings.Validate += time.Since(validateStart)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid model output")
		return model.Result{}, &InvalidOutputError{Raw: raw, Err: err}
	}
	return result, nil
}

func isInvalidOutput(err error) bool {
	var invalid *InvalidOutputError
	return errors.As(err, &invalid)
}
