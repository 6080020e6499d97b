package prompt

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Block is one rechtsoverweging (r.o.): a numbered consideration of the court.
type Block struct {
	Number  string
	Content string
}

var (
	roHeader      = regexp.MustCompile(`(?i)\b(?:r\.?o\.?|rov\.)\s*(\d+(?:\.\d+){0,3})\b`)
	numberHeader  = regexp.MustCompile(`(?m)^(\d+(?:\.\d+){0,3})\.?[\s:—\-]`)
	headerResidue = regexp.MustCompile(`^\s*[:\-—]\s*`)
)

// Numbered headings above this are more likely amounts or years than r.o. numbers.
const maxHeadingNumber = 50

type header struct {
	number     string
	start, end int
}

// Segment splits text into r.o. blocks. Explicit "r.o."/"rov." markers are
// preferred; without them, numbered headings at line start are used.
func Segment(text string) []Block {
	t := Normalize(text)
	headers := collectHeaders(t)

	var blocks []Block
	for i, h := range headers {
		next := len(t)
		if i+1 < len(headers) {
			next = headers[i+1].start
		}
		content := strings.TrimSpace(t[h.end:next])
		content = headerResidue.ReplaceAllString(content, "")
		content = stripRepeatedNumber(content, h.number)
		if content != "" {
			blocks = append(blocks, Block{Number: h.number, Content: content})
		}
	}
	return blocks
}

func collectHeaders(t string) []header {
	var headers []header
	for _, m := range roHeader.FindAllStringSubmatchIndex(t, -1) {
		headers = append(headers, header{number: t[m[2]:m[3]], start: m[0], end: m[1]})
	}
	if len(headers) == 0 {
		for _, m := range numberHeader.FindAllStringSubmatchIndex(t, -1) {
			num := t[m[2]:m[3]]
			first, err := strconv.Atoi(strings.SplitN(num, ".", 2)[0])
			if err != nil || first <= 0 || first > maxHeadingNumber {
				continue
			}
			headers = append(headers, header{number: num, start: m[0], end: m[1]})
		}
	}
	sort.SliceStable(headers, func(i, j int) bool { return headers[i].start < headers[j].start })
	return headers
}

// stripRepeatedNumber drops a leading echo of the header number, as in "r.o. 3.1 3.1. De maatstaf".
func stripRepeatedNumber(content, number string) string {
	for {
		rest := strings.TrimPrefix(content, number)
		if rest == content || (rest != "" && rest[0] >= '0' && rest[0] <= '9') {
			return content
		}
		rest = strings.TrimPrefix(rest, ".")
		content = strings.TrimLeft(rest, " \t\n")
	}
}

// CompareNumbers orders r.o. numbers numerically component by component, so
// "3.2" < "3.10" < "4". Non-numeric numbers sort last.
func CompareNumbers(a, b string) int {
	ka, oka := numberKey(a)
	kb, okb := numberKey(b)
	switch {
	case !oka && !okb:
		return strings.Compare(a, b)
	case !oka:
		return 1
	case !okb:
		return -1
	}
	for i := 0; i < len(ka) && i < len(kb); i++ {
		if ka[i] != kb[i] {
			if ka[i] < kb[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(ka) < len(kb):
		return -1
	case len(ka) > len(kb):
		return 1
	}
	return 0
}

func numberKey(num string) ([]int, bool) {
	parts := strings.Split(num, ".")
	key := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		key = append(key, n)
	}
	return key, true
}
