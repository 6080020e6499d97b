package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/model"
	"github.com/pep299/iracify/internal/prompt"
	"github.com/pep299/iracify/internal/repository"
	"github.com/pep299/iracify/internal/validator"
)

var (
	// ErrNoQuestions means every quiz item the model produced was rejected.
	ErrNoQuestions = errors.New("model returned no usable quiz questions")
	// ErrTooManyAnswers means more answers were submitted than there are questions.
	ErrTooManyAnswers = errors.New("more answers than quiz questions")
)

// Unanswered marks a question the user skipped.
const Unanswered = -1

type Quiz struct {
	llm    repository.LLMRepository
	logger *infrastructure.Logger
}

func NewQuiz(llm repository.LLMRepository, logger *infrastructure.Logger) *Quiz {
	return &Quiz{llm: llm, logger: logger}
}

// Generate asks the model for a multiple-choice quiz about summary.
func (q *Quiz) Generate(ctx context.Context, summary model.StructuredSummary, settings model.Settings) ([]model.QuizItem, []model.Warning, error) {
	ctx, span := infrastructure.Tracer().Start(ctx, "quiz.generate")
	defer span.End()

	settings = settings.Clamp()
	p := prompt.QuizPrompt(summary, settings.QuizQuestions)
	raw, err := q.llm.Complete(ctx, repository.CompletionRequest{
		System:      p.System,
		User:        p.User,
		Model:       settings.Model,
		Temperature: settings.Temperature,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		return nil, nil, fmt.Errorf("calling %s: %w", q.llm.Provider(), err)
	}

	v := validator.New(validator.Options{ReferencePolicy: settings.ReferencePolicy})
	items, warnings, err := v.ValidateQuiz(raw, summary)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid quiz")
		return nil, nil, &InvalidOutputError{Raw: raw, Err: err}
	}
	if len(items) == 0 {
		span.SetStatus(codes.Error, "empty quiz")
		return nil, warnings, &InvalidOutputError{Raw: raw, Err: ErrNoQuestions}
	}

	if len(items) > settings.QuizQuestions {
		warnings = append(warnings, model.Warning{
			Field:   "quiz",
			Message: fmt.Sprintf("model returned %d questions, kept the first %d", len(items), settings.QuizQuestions),
		})
		items = items[:settings.QuizQuestions]
	} else if len(items) < settings.QuizQuestions {
		warnings = append(warnings, model.Warning{
			Field:   "quiz",
			Message: fmt.Sprintf("requested %d questions, got %d", settings.QuizQuestions, len(items)),
		})
	}

	span.SetAttributes(attribute.Int("quiz.questions", len(items)))
	q.logger.Info("Quiz generated", "questions", len(items), "warnings", len(warnings))
	return items, warnings, nil
}

// Grade scores answers against items. Missing or out-of-range answers count
// as wrong.
func Grade(items []model.QuizItem, answers []int) (model.QuizGrade, error) {
	if len(answers) > len(items) {
		return model.QuizGrade{}, fmt.Errorf("%w: %d answers for %d questions", ErrTooManyAnswers, len(answers), len(items))
	}

	grade := model.QuizGrade{Total: len(items), Questions: make([]model.QuestionGrade, len(items))}
	for i, item := range items {
		answer := Unanswered
		if i < len(answers) && answers[i] >= 0 && answers[i] < model.QuizChoiceCount {
			answer = answers[i]
		}
		correct := answer == item.CorrectIndex
		if correct {
			grade.Score++
		}
		grade.Questions[i] = model.QuestionGrade{
			Index:        i,
			Answer:       answer,
			CorrectIndex: item.CorrectIndex,
			Correct:      correct,
			Explanation:  item.Explanation,
			Reference:    item.ReferenceConsiderationID,
		}
	}
	return grade, nil
}
