package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pep299/iracify/internal/model"
)

const demoJudgment = `
ECLI:NL:HR:2022:9999
De Hoge Raad overweegt als volgt.
r.o. 3 In cassatie staat centraal of het weigeren van bewijsstukken het recht op een eerlijk proces schendt.
r.o. 3.1 De maatstaf volgt uit art. 6 EVRM.
r.o. 3.2 Het hof sloot stukken uit, maar motiveerde niet.
r.o. 3.3 De Hoge Raad oordeelt dat het hof ontoereikend motiveerde.
r.o. 4 Het middel slaagt; uitspraak wordt vernietigd.
`

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"tabs and nbsp", "a\t\tb c", "a b c"},
		{"curly quotes", "“ja” en ‘nee’", `"ja" en 'nee'`},
		{"trailing spaces", "regel   \nvolgende", "regel\nvolgende"},
		{"blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"nfc", "e\u0301", "\u00e9"},
		{"trim", "  \n tekst \n ", "tekst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, "abc", Clamp("abc", 3))
	assert.Equal(t, "ab…", Clamp("abc", 2))
	assert.Equal(t, "éé…", Clamp("ééé", 2))
}

func TestExtractECLIs(t *testing.T) {
	text := "Zie ecli:nl:hr:2020:123 en ECLI:NL:GHAMS:2019:4567-2, en opnieuw ECLI:NL:HR:2020:123."

	got := ExtractECLIs(text)
	want := []string{"ECLI:NL:HR:2020:123", "ECLI:NL:GHAMS:2019:4567-2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractECLIs() mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, ExtractECLIs("geen identificatie"))
}

func TestSegment_ROHeaders(t *testing.T) {
	blocks := Segment(demoJudgment)

	require.Len(t, blocks, 5)
	assert.Equal(t, []string{"3", "3.1", "3.2", "3.3", "4"}, Numbers(blocks))
	assert.Equal(t, "De maatstaf volgt uit art. 6 EVRM.", blocks[1].Content)
}

func TestSegment_NumberedHeadingFallback(t *testing.T) {
	text := "Uitspraak\n2. De feiten\nEiser vordert.\n2.1 Gedaagde betwist dit.\n1999 was een goed jaar.\n3: Beslissing\nToegewezen."

	blocks := Segment(text)

	assert.Equal(t, []string{"2", "2.1", "3"}, Numbers(blocks))
	assert.Equal(t, "De feiten\nEiser vordert.", blocks[0].Content)
	assert.Equal(t, "Beslissing\nToegewezen.", blocks[2].Content)
}

func TestSegment_StripsRepeatedNumber(t *testing.T) {
	blocks := Segment("r.o. 5.2 5.2. Het oordeel luidt.\nr.o. 5.3 - Afsluiting.")

	require.Len(t, blocks, 2)
	assert.Equal(t, "Het oordeel luidt.", blocks[0].Content)
	assert.Equal(t, "Afsluiting.", blocks[1].Content)
}

func TestSegment_NoHeaders(t *testing.T) {
	assert.Empty(t, Segment("Een tekst zonder enige nummering."))
}

func TestCompareNumbers(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"3", "3.1", -1},
		{"3.2", "3.10", -1},
		{"4", "3.10", 1},
		{"3.3", "3.3", 0},
		{"x", "3", 1},
		{"3", "x", -1},
	}
	for _, tt := range tests {
		if got := CompareNumbers(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareNumbers(%q, %q): expected %d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}

func TestRank(t *testing.T) {
	blocks := Segment(demoJudgment)

	ranked := Rank(blocks, demoJudgment, 12)

	// r.o. 3 is a short parent with children and is left out.
	assert.NotContains(t, Numbers(ranked), "3")
	assert.ElementsMatch(t, []string{"3.1", "3.2", "3.3", "4"}, Numbers(ranked))
	// art. + EVRM + maatstaf scores highest
	assert.Equal(t, "3.1", ranked[0].Number)
}

func TestRank_Deterministic(t *testing.T) {
	blocks := []Block{
		{Number: "2", Content: "gelijk"},
		{Number: "10", Content: "gelijk"},
		{Number: "1", Content: "gelijk"},
		{Number: "1", Content: "dubbel"},
	}

	first := Rank(blocks, "", 10)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Rank(blocks, "", 10))
	}
	assert.Equal(t, []string{"1", "2", "10"}, Numbers(first))
}

func TestRank_TopKAndClamp(t *testing.T) {
	long := strings.Repeat("x", MaxFragmentRunes+50)
	blocks := []Block{{Number: "1", Content: long}, {Number: "2", Content: "kort"}, {Number: "3", Content: "kort"}}

	ranked := Rank(blocks, "", 2)

	require.Len(t, ranked, 2)
	for _, b := range ranked {
		if b.Number == "1" {
			assert.True(t, strings.HasSuffix(b.Content, "…"))
			assert.Equal(t, MaxFragmentRunes+1, len([]rune(b.Content)))
		}
	}
}

func TestSummaryPrompt(t *testing.T) {
	p := SummaryPrompt(demoJudgment, Options{TopK: 3})

	assert.Equal(t, SystemInstruction, p.System)
	assert.Equal(t, []string{"ECLI:NL:HR:2022:9999"}, p.ECLIs)
	assert.Len(t, p.CandidateNumbers(), 3)
	assert.Contains(t, p.User, `"considerations"`)
	assert.Contains(t, p.User, "ECLI:NL:HR:2022:9999")
	assert.Contains(t, p.User, "[3.1]\nDe maatstaf volgt uit art. 6 EVRM.")
	assert.NotContains(t, p.User, `"quiz"`)

	withQuiz := SummaryPrompt(demoJudgment, Options{TopK: 3, QuizQuestions: 4})
	assert.Contains(t, withQuiz.User, `"quiz"`)
	assert.Contains(t, withQuiz.User, "Maak 4 multiple-choice quizvragen")
}

func TestSummaryPrompt_WithoutSegments(t *testing.T) {
	p := SummaryPrompt("Korte tekst zonder overwegingen.", Options{})

	assert.Empty(t, p.Candidates)
	assert.NotContains(t, p.User, "Kandidaat r.o.-fragmenten")
	assert.Contains(t, p.User, "Korte tekst zonder overwegingen.")
}

func TestQuizPrompt(t *testing.T) {
	summary := model.StructuredSummary{
		Issue:      "Vraag",
		Rule:       "Regel",
		Conclusion: "Uitkomst",
		Considerations: []model.Consideration{
			{ID: "3.1", Role: model.RoleRule, Text: "Maatstaf"},
		},
	}

	p := QuizPrompt(summary, 0)

	assert.Equal(t, QuizSystemInstruction, p.System)
	assert.Contains(t, p.User, "quiz van 5 vragen")
	assert.Contains(t, p.User, "[3.1] (Rule) Maatstaf")
	assert.Contains(t, p.User, "Issue: Vraag")
}

func TestRepromptSuffix(t *testing.T) {
	s := RepromptSuffix(errors.New("schema violation at issue: missing required field"))
	assert.Contains(t, s, "schema violation at issue")
}
