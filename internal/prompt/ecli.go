package prompt

import (
	"regexp"
	"strings"
)

var ecliPattern = regexp.MustCompile(`(?i)\bECLI:[A-Z]{2}:[A-Z]{2,}:\d{4}:[A-Z0-9]+(?:-\d+)?\b`)

// ExtractECLIs returns the European Case Law Identifiers found in text,
// upper-cased, in order of first appearance and without duplicates.
func ExtractECLIs(text string) []string {
	matches := ecliPattern.FindAllString(text, -1)
	seen := make(map[string]struct{}, len(matches))
	eclis := make([]string, 0, len(matches))
	for _, m := range matches {
		id := strings.ToUpper(m)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		eclis = append(eclis, id)
	}
	return eclis
}
