package prompt

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	horizontalSpace = regexp.MustCompile(`[\t\x{00A0}]+`)
	trailingSpace   = regexp.MustCompile(`[ \f\v]+\n`)
	blankLines      = regexp.MustCompile(`\n{3,}`)

	quoteReplacer = strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
	)
)

// Normalize canonicalizes judgment text before segmentation and prompting.
func Normalize(text string) string {
	t := strings.ReplaceAll(text, "\r\n", "\n")
	t = strings.ReplaceAll(t, "\r", "\n")
	t = norm.NFC.String(t)
	t = horizontalSpace.ReplaceAllString(t, " ")
	t = quoteReplacer.Replace(t)
	t = trailingSpace.ReplaceAllString(t, "\n")
	t = blankLines.ReplaceAllString(t, "\n\n")
	return strings.TrimSpace(t)
}

// Clamp cuts s to at most n runes, marking the cut with an ellipsis.
func Clamp(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
