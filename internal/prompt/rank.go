package prompt

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	DefaultTopK = 12

	// MaxFragmentRunes bounds each candidate fragment in the prompt.
	MaxFragmentRunes = 1600

	// A parent shorter than this is dropped in favour of its children.
	minParentRunes = 220
)

var strongKeywords = []string{
	"rechtsregel", "toetsingskader", "maatstaf", "oordeelt", "overweegt",
	"schending", "niet-ontvankelijk", "verwerpt", "gegrond", "ongegrond",
	"cassatie", "sluit aan bij", "art.", "artikel", "evrm", "bw", "sr", "sv",
	"proportionaliteit", "subsidiariteit", "motiveringsgebrek", "belangenafweging", "kwalificatie",
}

var articleReference = regexp.MustCompile(`\bart\.\s*\d+`)

// Score rates how likely a block carries the decisive reasoning.
func Score(b Block, hasECLI bool) float64 {
	text := strings.ToLower(b.Number + " " + b.Content)

	score := 0.0
	for _, kw := range strongKeywords {
		if strings.Contains(text, kw) {
			score += 2.0
		}
	}
	if articleReference.MatchString(text) {
		score += 1.5
	}
	if strings.Contains(text, "evrm") {
		score += 1.0
	}

	switch n := utf8.RuneCountInString(b.Content); {
	case n >= 250 && n <= 1200:
		score += 1.2
	case n > 1800:
		score -= 0.6
	case n < 120:
		score -= 0.4
	}
	if hasECLI {
		score += 0.3
	}

	// deeper numbers (3.1.2) are more specific than their parents (3)
	depth := float64(strings.Count(b.Number, "."))
	if bonus := 0.3 * depth; bonus < 0.9 {
		score += bonus
	} else {
		score += 0.9
	}
	return score
}

// Rank picks the topK most relevant blocks. The order is fully
// deterministic: score desc, content length desc, r.o. number asc.
func Rank(blocks []Block, text string, topK int) []Block {
	if topK <= 0 {
		topK = DefaultTopK
	}
	hasECLI := len(ExtractECLIs(text)) > 0

	type scored struct {
		block  Block
		score  float64
		length int
	}
	candidates := make([]scored, 0, len(blocks))
	for _, b := range blocks {
		length := utf8.RuneCountInString(b.Content)
		if hasChildren(b.Number, blocks) && length < minParentRunes {
			continue
		}
		candidates = append(candidates, scored{block: b, score: Score(b, hasECLI), length: length})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.length != b.length {
			return a.length > b.length
		}
		return CompareNumbers(a.block.Number, b.block.Number) < 0
	})

	top := make([]Block, 0, topK)
	seen := make(map[string]struct{}, topK)
	for _, c := range candidates {
		if _, dup := seen[c.block.Number]; dup {
			continue
		}
		seen[c.block.Number] = struct{}{}
		top = append(top, Block{
			Number:  c.block.Number,
			Content: Clamp(strings.TrimSpace(c.block.Content), MaxFragmentRunes),
		})
		if len(top) >= topK {
			break
		}
	}
	return top
}

func hasChildren(number string, blocks []Block) bool {
	prefix := number + "."
	for _, b := range blocks {
		if strings.HasPrefix(b.Number, prefix) {
			return true
		}
	}
	return false
}

// Numbers returns the r.o. numbers of blocks in order.
func Numbers(blocks []Block) []string {
	nums := make([]string, len(blocks))
	for i, b := range blocks {
		nums[i] = b.Number
	}
	return nums
}
