package service

import (
	"fmt"
	"strings"

	"github.com/pep299/iracify/internal/model"
)

var roleKeywords = map[model.Role][]string{
	model.RoleRule:        {"rechtsregel", "maatstaf", "toetsingskader", "volgt uit", "heeft te gelden"},
	model.RoleApplication: {"toegepast", "in casu", "in dit geval", "het hof", "de rechtbank", "past toe"},
	model.RoleConclusion:  {"concludeert", "oordeelt", "veroordeelt", "vernietigt", "verwerpt", "gegrond", "ongegrond", "beslist"},
}

var requiredRoles = []model.Role{model.RoleRule, model.RoleApplication, model.RoleConclusion}

// demoteUnknownIDs relabels considerations the model attributed to r.o.
// numbers it was never shown. Without candidates nothing can be checked.
func demoteUnknownIDs(summary *model.StructuredSummary, candidates []string) []model.Warning {
	if len(candidates) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		allowed[c] = struct{}{}
	}

	var warnings []model.Warning
	for i := range summary.Considerations {
		c := &summary.Considerations[i]
		if _, ok := allowed[c.ID]; ok || c.Role == model.RoleOther {
			continue
		}
		warnings = append(warnings, model.Warning{
			Field:   fmt.Sprintf("considerations[%d].role", i),
			Message: fmt.Sprintf("r.o. %q is not among the candidate fragments; %s demoted to Other", c.ID, c.Role),
		})
		c.Role = model.RoleOther
	}
	return warnings
}

// enforceMinRoles makes sure Rule, Application and Conclusion each appear at
// least once by relabeling the best keyword match among Other considerations.
func enforceMinRoles(summary *model.StructuredSummary, candidates []string) []model.Warning {
	present := make(map[model.Role]bool, len(model.Roles))
	for _, c := range summary.Considerations {
		present[c.Role] = true
	}

	allowed := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		allowed[c] = struct{}{}
	}

	var warnings []model.Warning
	for _, want := range requiredRoles {
		if present[want] {
			continue
		}
		best, bestScore := -1, 0
		for i, c := range summary.Considerations {
			if c.Role != model.RoleOther {
				continue
			}
			if _, ok := allowed[c.ID]; len(allowed) > 0 && !ok {
				continue
			}
			if score := keywordScore(c.Text, roleKeywords[want]); score > bestScore {
				best, bestScore = i, score
			}
		}
		if best < 0 {
			warnings = append(warnings, model.Warning{
				Field:   "considerations",
				Message: fmt.Sprintf("no consideration labeled %s", want),
			})
			continue
		}
		summary.Considerations[best].Role = want
		present[want] = true
		warnings = append(warnings, model.Warning{
			Field:   fmt.Sprintf("considerations[%d].role", best),
			Message: fmt.Sprintf("relabeled Other as %s to cover the missing role", want),
		})
	}
	return warnings
}

func keywordScore(text string, keywords []string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			score++
		}
	}
	return score
}

// mergeSources combines model-reported sources, ECLIs found in the text and
// the input URL, preserving first occurrence order.
func mergeSources(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var merged []string
	for _, list := range lists {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			merged = append(merged, s)
		}
	}
	return merged
}
