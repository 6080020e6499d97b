package model

// ReferencePolicy decides what happens to a quiz item whose reference
// does not match any consideration.
type ReferencePolicy string

const (
	ReferencePolicyDrop   ReferencePolicy = "drop"
	ReferencePolicyStrict ReferencePolicy = "strict"
)

// ParseReferencePolicy returns the policy for s, or false if s is not a known policy.
func ParseReferencePolicy(s string) (ReferencePolicy, bool) {
	switch ReferencePolicy(s) {
	case ReferencePolicyDrop, ReferencePolicyStrict:
		return ReferencePolicy(s), true
	}
	return "", false
}

// Settings are the per-session tunables exposed in the admin panel.
type Settings struct {
	Model           string          `json:"model"`
	TopK            int             `json:"topK"`
	Temperature     float32         `json:"temperature"`
	QuizQuestions   int             `json:"quizQuestions"`
	DevMode         bool            `json:"devMode"`
	ReferencePolicy ReferencePolicy `json:"referencePolicy"`
}

const (
	MinTopK          = 3
	MaxTopK          = 20
	MinQuizQuestions = 4
	MaxQuizQuestions = 5
)

// Clamp forces every setting into its allowed range.
func (s Settings) Clamp() Settings {
	if s.TopK < MinTopK {
		s.TopK = MinTopK
	}
	if s.TopK > MaxTopK {
		s.TopK = MaxTopK
	}
	if s.Temperature < 0 {
		s.Temperature = 0
	}
	if s.Temperature > 1 {
		s.Temperature = 1
	}
	if s.QuizQuestions < MinQuizQuestions {
		s.QuizQuestions = MinQuizQuestions
	}
	if s.QuizQuestions > MaxQuizQuestions {
		s.QuizQuestions = MaxQuizQuestions
	}
	if _, ok := ParseReferencePolicy(string(s.ReferencePolicy)); !ok {
		s.ReferencePolicy = ReferencePolicyDrop
	}
	return s
}
