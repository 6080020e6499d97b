package validator

import (
	"fmt"
	"strings"

	"github.com/pep299/iracify/internal/model"
)

const (
	MinHighlights = 3
	MaxHighlights = 5

	DefaultMinEssenceWords = 80
	DefaultMaxEssenceWords = 160
)

// Options controls optional validator behaviour.
type Options struct {
	// QuizRequested makes a "quiz" array part of the summary document.
	QuizRequested bool
	// ReferencePolicy decides whether a dangling quiz reference drops the
	// item (default) or fails validation.
	ReferencePolicy model.ReferencePolicy
	MinEssenceWords int
	MaxEssenceWords int
}

// Validator turns raw model output into a validated result. It performs no I/O.
type Validator struct {
	opts Options
}

// New creates a validator, filling unset options with defaults.
func New(opts Options) *Validator {
	if _, ok := model.ParseReferencePolicy(string(opts.ReferencePolicy)); !ok {
		opts.ReferencePolicy = model.ReferencePolicyDrop
	}
	if opts.MinEssenceWords <= 0 {
		opts.MinEssenceWords = DefaultMinEssenceWords
	}
	if opts.MaxEssenceWords <= 0 {
		opts.MaxEssenceWords = DefaultMaxEssenceWords
	}
	return &Validator{opts: opts}
}

// Validate parses, schema-checks and semantically checks a summary document.
func (v *Validator) Validate(raw string) (model.Result, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return model.Result{}, err
	}

	rs, err := decodeSummary(obj)
	if err != nil {
		return model.Result{}, err
	}
	var rq []rawQuizItem
	if v.opts.QuizRequested {
		if rq, err = decodeQuiz(obj); err != nil {
			return model.Result{}, err
		}
	}

	summary, warnings, err := v.checkSummary(rs)
	if err != nil {
		return model.Result{}, err
	}

	result := model.Result{Summary: summary, Warnings: warnings}
	if v.opts.QuizRequested {
		quiz, qw, err := v.checkQuiz(rq, summary)
		if err != nil {
			return model.Result{}, err
		}
		result.Quiz = quiz
		result.Warnings = append(result.Warnings, qw...)
	}
	return result, nil
}

// ValidateQuiz validates a standalone {"quiz": [...]} document against an
// already validated summary.
func (v *Validator) ValidateQuiz(raw string, summary model.StructuredSummary) ([]model.QuizItem, []model.Warning, error) {
	obj, err := parseObject(raw)
	if err != nil {
		return nil, nil, err
	}
	rq, err := decodeQuiz(obj)
	if err != nil {
		return nil, nil, err
	}
	return v.checkQuiz(rq, summary)
}

func (v *Validator) checkSummary(rs *rawSummary) (model.StructuredSummary, []model.Warning, error) {
	if n := len(rs.highlights); n < MinHighlights || n > MaxHighlights {
		return model.StructuredSummary{}, nil, semanticViolation(
			"highlights must contain %d to %d items, got %d", MinHighlights, MaxHighlights, n)
	}

	considerations := make([]model.Consideration, 0, len(rs.considerations))
	for i, rc := range rs.considerations {
		role, ok := model.ParseRole(rc.role)
		if !ok {
			return model.StructuredSummary{}, nil, semanticViolation(
				"considerations[%d].role %q is not one of Rule, Application, Conclusion, Other", i, rc.role)
		}
		considerations = append(considerations, model.Consideration{ID: rc.id, Role: role, Text: rc.text})
	}

	var warnings []model.Warning
	if n := len(strings.Fields(rs.essence)); n < v.opts.MinEssenceWords || n > v.opts.MaxEssenceWords {
		warnings = append(warnings, model.Warning{
			Field:   "essence",
			Message: fmt.Sprintf("word count %d outside [%d,%d]", n, v.opts.MinEssenceWords, v.opts.MaxEssenceWords),
		})
	}
	seen := make(map[string]struct{}, len(considerations))
	for i, c := range considerations {
		if _, dup := seen[c.ID]; dup {
			warnings = append(warnings, model.Warning{
				Field:   fmt.Sprintf("considerations[%d].id", i),
				Message: fmt.Sprintf("duplicate id %q", c.ID),
			})
		}
		seen[c.ID] = struct{}{}
	}

	return model.StructuredSummary{
		Issue:          rs.issue,
		Rule:           rs.rule,
		Application:    rs.application,
		Conclusion:     rs.conclusion,
		Essence:        rs.essence,
		Highlights:     rs.highlights,
		Considerations: considerations,
		Sources:        rs.sources,
	}, warnings, nil
}

func (v *Validator) checkQuiz(rq []rawQuizItem, summary model.StructuredSummary) ([]model.QuizItem, []model.Warning, error) {
	for i, q := range rq {
		if len(q.choices) != model.QuizChoiceCount {
			return nil, nil, semanticViolation("quiz[%d].choices must contain %d items, got %d",
				i, model.QuizChoiceCount, len(q.choices))
		}
		seen := make(map[string]struct{}, len(q.choices))
		for _, c := range q.choices {
			key := strings.ToLower(c)
			if _, dup := seen[key]; dup {
				return nil, nil, semanticViolation("quiz[%d].choices contains duplicate %q", i, c)
			}
			seen[key] = struct{}{}
		}
		if q.correctIndex < 0 || q.correctIndex >= model.QuizChoiceCount {
			return nil, nil, semanticViolation("quiz[%d].correctIndex %d outside [0,%d]",
				i, q.correctIndex, model.QuizChoiceCount-1)
		}
	}

	ids := summary.ConsiderationIDs()
	quiz := make([]model.QuizItem, 0, len(rq))
	var warnings []model.Warning
	for i, q := range rq {
		if q.reference != "" {
			if _, ok := ids[q.reference]; !ok {
				if v.opts.ReferencePolicy == model.ReferencePolicyStrict {
					return nil, nil, danglingReference(q.reference)
				}
				warnings = append(warnings, model.Warning{
					Field:   fmt.Sprintf("quiz[%d].referenceConsiderationId", i),
					Message: fmt.Sprintf("unknown consideration %q, question dropped", q.reference),
				})
				continue
			}
		}
		quiz = append(quiz, model.QuizItem{
			Question:                 q.question,
			Choices:                  q.choices,
			CorrectIndex:             q.correctIndex,
			Explanation:              q.explanation,
			ReferenceConsiderationID: q.reference,
		})
	}
	return quiz, warnings, nil
}
