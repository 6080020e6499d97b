package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/mocks"
	"github.com/pep299/iracify/internal/model"
	"github.com/pep299/iracify/internal/repository"
	"github.com/pep299/iracify/internal/validator"
)

const judgment = `
ECLI:NL:HR:2022:9999
De Hoge Raad overweegt als volgt.
r.o. 3 In cassatie staat centraal of het weigeren van bewijsstukken het recht op een eerlijk proces schendt.
r.o. 3.1 De maatstaf volgt uit art. 6 EVRM.
r.o. 3.2 Het hof sloot stukken uit, maar motiveerde niet.
r.o. 3.3 De Hoge Raad oordeelt dat het hof ontoereikend motiveerde.
r.o. 4 Het middel slaagt; uitspraak wordt vernietigd.
`

const validSummary = `{
  "issue": "Schendt het weigeren van bewijsstukken het recht op een eerlijk proces?",
  "rule": "Art. 6 EVRM vereist een deugdelijke motivering.",
  "application": "Het hof sloot stukken uit zonder motivering.",
  "conclusion": "Het arrest wordt vernietigd.",
  "essence": "Het hof moet motiveren waarom bewijs wordt uitgesloten.",
  "highlights": ["art. 6 EVRM", "motiveringsplicht", "vernietiging"],
  "considerations": [
    {"id": "3.1", "role": "Rule", "text": "De maatstaf volgt uit art. 6 EVRM."},
    {"id": "3.2", "role": "Application", "text": "Het hof sloot stukken uit, maar motiveerde niet."},
    {"id": "3.3", "role": "Conclusion", "text": "De Hoge Raad oordeelt dat het hof ontoereikend motiveerde."}
  ],
  "sources": ["ECLI:NL:HR:2022:9999"]
}`

func testSettings() model.Settings {
	return model.Settings{TopK: 12, Temperature: 0.1, QuizQuestions: 5, ReferencePolicy: model.ReferencePolicyDrop}
}

func newTestSummarizer(llm *mocks.MockLLMRepo, source *mocks.MockSourceRepo, reprompt bool) *Summarizer {
	if source == nil {
		source = &mocks.MockSourceRepo{}
	}
	return NewSummarizer(llm, source, infrastructure.NewNopLogger(), SummarizerOptions{RepromptOnInvalid: reprompt})
}

func TestSummarizer_PastedText(t *testing.T) {
	llm := &mocks.MockLLMRepo{Responses: []string{validSummary}}
	s := newTestSummarizer(llm, nil, false)

	out, err := s.Summarize(context.Background(), TextInput(judgment), testSettings())
	require.NoError(t, err)

	assert.Equal(t, 1, llm.Calls())
	assert.Equal(t, []string{"3.1", "3.2", "3.3", "4"}, out.Candidates)
	assert.Equal(t, validSummary, out.Raw)
	assert.Equal(t, repository.KindText, out.SourceKind)
	assert.False(t, out.Reprompted)
	assert.Len(t, out.Result.Summary.Considerations, 3)
	assert.Equal(t, []string{"ECLI:NL:HR:2022:9999"}, out.Result.Summary.Sources)

	req := llm.Requests[0]
	assert.Contains(t, req.User, "[3.3]")
	assert.Contains(t, req.User, "ECLI:NL:HR:2022:9999")
	assert.InDelta(t, 0.1, req.Temperature, 1e-6)
}

func TestSummarizer_URLInputAddsSource(t *testing.T) {
	llm := &mocks.MockLLMRepo{Responses: []string{validSummary}}
	source := &mocks.MockSourceRepo{Text: judgment}
	s := newTestSummarizer(llm, source, false)

	out, err := s.Summarize(context.Background(), URLInput("https://uitspraken.rechtspraak.nl/x"), testSettings())
	require.NoError(t, err)

	assert.Equal(t, "https://uitspraken.rechtspraak.nl/x", source.FetchedURL)
	assert.Equal(t, "https://uitspraken.rechtspraak.nl/x", out.Source)
	assert.Equal(t, []string{"ECLI:NL:HR:2022:9999", "https://uitspraken.rechtspraak.nl/x"}, out.Result.Summary.Sources)
}

func TestSummarizer_Upload(t *testing.T) {
	llm := &mocks.MockLLMRepo{Responses: []string{validSummary}}
	source := &mocks.MockSourceRepo{}
	s := newTestSummarizer(llm, source, false)

	out, err := s.Summarize(context.Background(), UploadInput("arrest.txt", []byte(judgment)), testSettings())
	require.NoError(t, err)

	assert.Equal(t, "arrest.txt", source.UploadName)
	assert.Equal(t, "arrest.txt", out.Source)
}

func TestSummarizer_InputErrors(t *testing.T) {
	t.Run("pasted text too short", func(t *testing.T) {
		llm := &mocks.MockLLMRepo{Responses: []string{validSummary}}
		_, err := newTestSummarizer(llm, nil, false).Summarize(context.Background(), TextInput("te kort"), testSettings())

		var fetchErr *repository.FetchError
		require.True(t, errors.As(err, &fetchErr), "expected FetchError, got %T: %v", err, err)
		assert.Equal(t, 0, llm.Calls())
	})

	t.Run("fetch failure", func(t *testing.T) {
		llm := &mocks.MockLLMRepo{Responses: []string{validSummary}}
		source := &mocks.MockSourceRepo{Err: &repository.FetchError{Source: "https://x", StatusCode: 404}}
		_, err := newTestSummarizer(llm, source, false).Summarize(context.Background(), URLInput("https://x"), testSettings())

		var fetchErr *repository.FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, 404, fetchErr.StatusCode)
	})
}

func TestSummarizer_ModelErrorsPassThrough(t *testing.T) {
	timeout := &repository.TimeoutError{Provider: "mock"}
	llm := &mocks.MockLLMRepo{Err: timeout}

	_, err := newTestSummarizer(llm, nil, true).Summarize(context.Background(), TextInput(judgment), testSettings())

	var timeoutErr *repository.TimeoutError
	require.True(t, errors.As(err, &timeoutErr))
	assert.Equal(t, 1, llm.Calls(), "model errors are not re-prompted")
}

func TestSummarizer_InvalidOutput(t *testing.T) {
	llm := &mocks.MockLLMRepo{Responses: []string{"geen json"}}

	_, err := newTestSummarizer(llm, nil, false).Summarize(context.Background(), TextInput(judgment), testSettings())

	var invalid *InvalidOutputError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "geen json", invalid.Raw)
	assert.True(t, validator.IsKind(err, validator.KindMalformedOutput))
	assert.Equal(t, 1, llm.Calls())
}

func TestSummarizer_Reprompt(t *testing.T) {
	t.Run("second answer accepted", func(t *testing.T) {
		llm := &mocks.MockLLMRepo{Responses: []string{`{"issue": "x"}`, validSummary}}

		out, err := newTestSummarizer(llm, nil, true).Summarize(context.Background(), TextInput(judgment), testSettings())
		require.NoError(t, err)

		assert.True(t, out.Reprompted)
		assert.Equal(t, 2, llm.Calls())
		assert.True(t, strings.HasPrefix(llm.Requests[1].User, llm.Requests[0].User))
		assert.Contains(t, llm.Requests[1].User, "ongeldig")
	})

	t.Run("second answer also invalid", func(t *testing.T) {
		llm := &mocks.MockLLMRepo{Responses: []string{"{}"}}

		_, err := newTestSummarizer(llm, nil, true).Summarize(context.Background(), TextInput(judgment), testSettings())

		assert.True(t, validator.IsKind(err, validator.KindSchemaViolation))
		assert.Equal(t, 2, llm.Calls())
	})
}

func TestSummarizer_Guardrails(t *testing.T) {
	raw := strings.Replace(validSummary, `"id": "3.1", "role": "Rule"`, `"id": "9.9", "role": "Rule"`, 1)
	llm := &mocks.MockLLMRepo{Responses: []string{raw}}

	out, err := newTestSummarizer(llm, nil, false).Summarize(context.Background(), TextInput(judgment), testSettings())
	require.NoError(t, err)

	roles := map[string]model.Role{}
	for _, c := range out.Result.Summary.Considerations {
		roles[c.ID] = c.Role
	}
	assert.Equal(t, model.RoleOther, roles["9.9"], "unknown r.o. is demoted")

	var fields []string
	for _, w := range out.Result.Warnings {
		fields = append(fields, w.Field)
	}
	assert.Contains(t, fields, "considerations[0].role")
}

func TestSummarizer_ClampsSettings(t *testing.T) {
	llm := &mocks.MockLLMRepo{Responses: []string{validSummary}}
	settings := testSettings()
	settings.Temperature = 3
	settings.Model = "gpt-4.1"

	_, err := newTestSummarizer(llm, nil, false).Summarize(context.Background(), TextInput(judgment), settings)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, llm.Requests[0].Temperature, 1e-6)
	assert.Equal(t, "gpt-4.1", llm.Requests[0].Model)
}
