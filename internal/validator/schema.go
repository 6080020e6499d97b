package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// The decoders below walk the schema depth-first in declaration order and
// stop at the first offending field, so the reported field is stable.

type rawConsideration struct {
	id   string
	role string
	text string
}

type rawSummary struct {
	issue          string
	rule           string
	application    string
	conclusion     string
	essence        string
	highlights     []string
	considerations []rawConsideration
	sources        []string
}

type rawQuizItem struct {
	question     string
	choices      []string
	correctIndex int
	explanation  string
	reference    string
}

func decodeSummary(obj object) (*rawSummary, error) {
	var (
		s   rawSummary
		err error
	)
	text := []struct {
		name string
		dst  *string
	}{
		{"issue", &s.issue},
		{"rule", &s.rule},
		{"application", &s.application},
		{"conclusion", &s.conclusion},
		{"essence", &s.essence},
	}
	for _, f := range text {
		if *f.dst, err = requiredText(obj, f.name, f.name); err != nil {
			return nil, err
		}
	}

	if s.highlights, err = requiredTextList(obj, "highlights", "highlights"); err != nil {
		return nil, err
	}

	items, err := requiredArray(obj, "considerations", "considerations")
	if err != nil {
		return nil, err
	}
	s.considerations = make([]rawConsideration, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("considerations[%d]", i)
		c, err := decodeConsideration(item, path)
		if err != nil {
			return nil, err
		}
		s.considerations = append(s.considerations, *c)
	}

	if raw, ok := obj.field("sources"); ok {
		if s.sources, err = textList(raw, "sources"); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func decodeConsideration(raw json.RawMessage, path string) (*rawConsideration, error) {
	obj, err := asObject(raw, path)
	if err != nil {
		return nil, err
	}
	var c rawConsideration
	if c.id, err = requiredText(obj, "id", path+".id"); err != nil {
		return nil, err
	}
	// The role value itself is checked semantically; here it only has to be a string.
	if c.role, err = requiredString(obj, "role", path+".role"); err != nil {
		return nil, err
	}
	if c.text, err = requiredText(obj, "text", path+".text"); err != nil {
		return nil, err
	}
	return &c, nil
}

func decodeQuiz(obj object) ([]rawQuizItem, error) {
	items, err := requiredArray(obj, "quiz", "quiz")
	if err != nil {
		return nil, err
	}
	quiz := make([]rawQuizItem, 0, len(items))
	for i, item := range items {
		q, err := decodeQuizItem(item, fmt.Sprintf("quiz[%d]", i))
		if err != nil {
			return nil, err
		}
		quiz = append(quiz, *q)
	}
	return quiz, nil
}

func decodeQuizItem(raw json.RawMessage, path string) (*rawQuizItem, error) {
	obj, err := asObject(raw, path)
	if err != nil {
		return nil, err
	}
	var q rawQuizItem
	if q.question, err = requiredText(obj, "question", path+".question"); err != nil {
		return nil, err
	}
	if q.choices, err = requiredTextList(obj, "choices", path+".choices"); err != nil {
		return nil, err
	}

	idx, ok := obj.field("correctIndex")
	if !ok {
		return nil, schemaViolation(path+".correctIndex", "missing required field")
	}
	// Integral floats such as 1.0 count as integers.
	var f float64
	if err := json.Unmarshal(idx, &f); err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil, schemaViolation(path+".correctIndex", "expected integer")
	}
	q.correctIndex = int(f)

	if q.explanation, err = requiredText(obj, "explanation", path+".explanation"); err != nil {
		return nil, err
	}
	if ref, ok := obj.field("referenceConsiderationId"); ok {
		if err := json.Unmarshal(ref, &q.reference); err != nil {
			return nil, schemaViolation(path+".referenceConsiderationId", "expected string")
		}
		q.reference = strings.TrimSpace(q.reference)
	}
	return &q, nil
}

func asObject(raw json.RawMessage, path string) (object, error) {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, schemaViolation(path, "expected object")
	}
	return obj, nil
}

func requiredString(obj object, name, path string) (string, error) {
	raw, ok := obj.field(name)
	if !ok {
		return "", schemaViolation(path, "missing required field")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", schemaViolation(path, "expected string")
	}
	return s, nil
}

func requiredText(obj object, name, path string) (string, error) {
	s, err := requiredString(obj, name, path)
	if err != nil {
		return "", err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", schemaViolation(path, "must not be empty")
	}
	return s, nil
}

func requiredArray(obj object, name, path string) ([]json.RawMessage, error) {
	raw, ok := obj.field(name)
	if !ok {
		return nil, schemaViolation(path, "missing required field")
	}
	return array(raw, path)
}

func array(raw json.RawMessage, path string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, schemaViolation(path, "expected array")
	}
	return items, nil
}

func requiredTextList(obj object, name, path string) ([]string, error) {
	raw, ok := obj.field(name)
	if !ok {
		return nil, schemaViolation(path, "missing required field")
	}
	return textList(raw, path)
}

func textList(raw json.RawMessage, path string) ([]string, error) {
	items, err := array(raw, path)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		elem := fmt.Sprintf("%s[%d]", path, i)
		var s string
		if isNull(item) || json.Unmarshal(item, &s) != nil {
			return nil, schemaViolation(elem, "expected string")
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, schemaViolation(elem, "must not be empty")
		}
		out = append(out, s)
	}
	return out, nil
}
