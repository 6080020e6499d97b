package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/mocks"
	"github.com/pep299/iracify/internal/model"
	"github.com/pep299/iracify/internal/service"
	"github.com/pep299/iracify/internal/session"
	"github.com/pep299/iracify/internal/transport/middleware"
	"github.com/pep299/iracify/internal/view"
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

func quizJSON(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"question": "Vraag %d?", "choices": ["a", "b", "c", "d"], "correctIndex": %d, "explanation": "uitleg", "referenceConsiderationId": "3.1"}`, i+1, i%4)
	}
	return `{"quiz": [` + strings.Join(items, ",") + `]}`
}

type testEnv struct {
	llm    *mocks.MockLLMRepo
	source *mocks.MockSourceRepo
	store  *session.Store
	cfg    *infrastructure.Config

	summaries *Summaries
	quiz      *Quiz
	admin     *Admin
	ui        *UI

	sessionID string
}

func newTestEnv(t *testing.T, responses ...string) *testEnv {
	t.Helper()

	renderer, err := view.NewRenderer()
	require.NoError(t, err)

	logger := infrastructure.NewNopLogger()
	llm := &mocks.MockLLMRepo{Responses: responses}
	source := &mocks.MockSourceRepo{Text: judgment}
	cfg := &infrastructure.Config{AdminToken: "secret"}
	store := session.NewStore(time.Hour, model.Settings{
		TopK:            12,
		Temperature:     0.1,
		QuizQuestions:   4,
		ReferencePolicy: model.ReferencePolicyDrop,
	}, logger)

	summarizer := service.NewSummarizer(llm, source, logger, service.SummarizerOptions{})
	quiz := service.NewQuiz(llm, logger)

	return &testEnv{
		llm:       llm,
		source:    source,
		store:     store,
		cfg:       cfg,
		summaries: NewSummaries(summarizer, store, logger),
		quiz:      NewQuiz(quiz, store, logger),
		admin:     NewAdmin(store, "mock", logger),
		ui:        NewUI(summarizer, quiz, store, renderer, cfg, "mock", logger),
		sessionID: store.Create().ID,
	}
}

// serve runs h behind the session middleware with the env's session cookie.
func (e *testEnv) serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: e.sessionID})
	w := httptest.NewRecorder()
	middleware.Session(e.store)(h).ServeHTTP(w, req)
	return w
}

func (e *testEnv) session(t *testing.T) *session.Session {
	t.Helper()
	sess, err := e.store.Get(e.sessionID)
	require.NoError(t, err)
	return sess
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, target string, fields map[string]string, fileName string, file []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Kind   string          `json:"kind"`
	Data   json.RawMessage `json:"data"`
}

func decode(t *testing.T, body io.Reader) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}
