package model

import "strings"

// Role labels the function a consideration plays in the IRAC structure.
type Role string

const (
	RoleRule        Role = "Rule"
	RoleApplication Role = "Application"
	RoleConclusion  Role = "Conclusion"
	RoleOther       Role = "Other"
)

// Roles lists the recognized roles in canonical casing.
var Roles = []Role{RoleRule, RoleApplication, RoleConclusion, RoleOther}

// ParseRole matches s case-insensitively against the recognized roles.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if strings.EqualFold(s, string(r)) {
			return r, true
		}
	}
	return "", false
}

type Consideration struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
	Text string `json:"text"`
}

type StructuredSummary struct {
	Issue          string          `json:"issue"`
	Rule           string          `json:"rule"`
	Application    string          `json:"application"`
	Conclusion     string          `json:"conclusion"`
	Essence        string          `json:"essence"`
	Highlights     []string        `json:"highlights"`
	Considerations []Consideration `json:"considerations"`
	Sources        []string        `json:"sources,omitempty"`
}

// ConsiderationIDs returns the set of consideration ids.
func (s *StructuredSummary) ConsiderationIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s.Considerations))
	for _, c := range s.Considerations {
		ids[c.ID] = struct{}{}
	}
	return ids
}

// Warning is a non-fatal finding recorded while validating model output.
type Warning struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Field == "" {
		return w.Message
	}
	return w.Field + ": " + w.Message
}

// Result is the successful outcome of validating a model response.
type Result struct {
	Summary  StructuredSummary `json:"summary"`
	Quiz     []QuizItem        `json:"quiz,omitempty"`
	Warnings []Warning         `json:"warnings,omitempty"`
}
