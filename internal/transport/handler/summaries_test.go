package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pep299/iracify/internal/model"
	"github.com/pep299/iracify/internal/repository"
	"github.com/pep299/iracify/internal/session"
)

func TestSummaries_Text(t *testing.T) {
	env := newTestEnv(t, validSummary)

	body, _ := json.Marshal(textRequest{Text: judgment})
	w := env.serve(http.HandlerFunc(env.summaries.Text), jsonRequest("POST", "/api/v1/summaries/text", string(body)))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w.Body)
	assert.Equal(t, "success", resp.Status)

	var data summaryData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, []string{"3.1", "3.2", "3.3", "4"}, data.Candidates)
	assert.Len(t, data.Summary.Considerations, 3)
	assert.Empty(t, data.Raw, "raw output is only shown in developer mode")
	assert.Contains(t, data.TimingsMs, "total")

	sess := env.session(t)
	require.NotNil(t, sess.Result)
	assert.Equal(t, "Het arrest wordt vernietigd.", sess.Result.Summary.Conclusion)
	assert.Equal(t, validSummary, sess.Raw)
}

func TestSummaries_TextInvalidJSON(t *testing.T) {
	env := newTestEnv(t, validSummary)

	w := env.serve(http.HandlerFunc(env.summaries.Text), jsonRequest("POST", "/api/v1/summaries/text", "{"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.llm.Calls())
}

func TestSummaries_TextTooShort(t *testing.T) {
	env := newTestEnv(t, validSummary)

	w := env.serve(http.HandlerFunc(env.summaries.Text), jsonRequest("POST", "/api/v1/summaries/text", `{"text": "te kort"}`))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "FetchError", decode(t, w.Body).Kind)
	assert.Equal(t, 0, env.llm.Calls())
}

func TestSummaries_URL(t *testing.T) {
	env := newTestEnv(t, validSummary)

	w := env.serve(http.HandlerFunc(env.summaries.URL), jsonRequest("POST", "/api/v1/summaries/url", `{"url": "https://uitspraken.rechtspraak.nl/x"}`))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://uitspraken.rechtspraak.nl/x", env.source.FetchedURL)
	assert.Equal(t, "https://uitspraken.rechtspraak.nl/x", env.session(t).Source)
}

func TestSummaries_URLErrors(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		env := newTestEnv(t, validSummary)
		w := env.serve(http.HandlerFunc(env.summaries.URL), jsonRequest("POST", "/api/v1/summaries/url", `{}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("fetch failure", func(t *testing.T) {
		env := newTestEnv(t, validSummary)
		env.source.Err = &repository.FetchError{Source: "https://x", StatusCode: 404}

		w := env.serve(http.HandlerFunc(env.summaries.URL), jsonRequest("POST", "/api/v1/summaries/url", `{"url": "https://x"}`))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "FetchError", decode(t, w.Body).Kind)
	})

	t.Run("model failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.llm.Err = &repository.ModelCallError{Provider: "mock", StatusCode: 500}

		w := env.serve(http.HandlerFunc(env.summaries.URL), jsonRequest("POST", "/api/v1/summaries/url", `{"url": "https://x"}`))
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, "ModelCallError", decode(t, w.Body).Kind)
	})
}

func TestSummaries_Upload(t *testing.T) {
	env := newTestEnv(t, validSummary)

	req := multipartRequest(t, "/api/v1/summaries/upload", nil, "arrest.txt", []byte(judgment))
	w := env.serve(http.HandlerFunc(env.summaries.Upload), req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "arrest.txt", env.source.UploadName)
	assert.Equal(t, "arrest.txt", env.session(t).Source)
}

func TestSummaries_UploadMissingFile(t *testing.T) {
	env := newTestEnv(t, validSummary)

	req := multipartRequest(t, "/api/v1/summaries/upload", map[string]string{"text": "x"}, "", nil)
	w := env.serve(http.HandlerFunc(env.summaries.Upload), req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "file is required", decode(t, w.Body).Error)
}

func TestSummaries_InvalidOutputKeepsPreviousSummary(t *testing.T) {
	env := newTestEnv(t, validSummary, "geen json")
	text, _ := json.Marshal(textRequest{Text: judgment})

	w := env.serve(http.HandlerFunc(env.summaries.Text), jsonRequest("POST", "/", string(text)))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.serve(http.HandlerFunc(env.summaries.Text), jsonRequest("POST", "/", string(text)))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	resp := decode(t, w.Body)
	assert.Equal(t, "MalformedOutput", resp.Kind)
	assert.Empty(t, resp.Data, "raw output is hidden outside developer mode")

	sess := env.session(t)
	require.NotNil(t, sess.Result)
	assert.Equal(t, "Het arrest wordt vernietigd.", sess.Result.Summary.Conclusion)
	assert.Equal(t, "geen json", sess.Raw)
}

func TestSummaries_DevModeShowsRaw(t *testing.T) {
	env := newTestEnv(t, "geen json")
	_, err := env.store.Update(env.sessionID, func(s *session.Session) error {
		s.Settings.DevMode = true
		return nil
	})
	require.NoError(t, err)

	text, _ := json.Marshal(textRequest{Text: judgment})
	w := env.serve(http.HandlerFunc(env.summaries.Text), jsonRequest("POST", "/", string(text)))

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var data rawData
	require.NoError(t, json.Unmarshal(decode(t, w.Body).Data, &data))
	assert.Equal(t, "geen json", data.Raw)
}

func TestSummaries_Current(t *testing.T) {
	env := newTestEnv(t, validSummary)

	w := env.serve(http.HandlerFunc(env.summaries.Current), jsonRequest("GET", "/api/v1/summaries/current", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)

	text, _ := json.Marshal(textRequest{Text: judgment})
	env.serve(http.HandlerFunc(env.summaries.Text), jsonRequest("POST", "/", string(text)))

	w = env.serve(http.HandlerFunc(env.summaries.Current), jsonRequest("GET", "/api/v1/summaries/current", ""))
	require.Equal(t, http.StatusOK, w.Code)

	var data summaryData
	require.NoError(t, json.Unmarshal(decode(t, w.Body).Data, &data))
	assert.Equal(t, "Het arrest wordt vernietigd.", data.Summary.Conclusion)
}

func TestSummaries_Download(t *testing.T) {
	env := newTestEnv(t, validSummary)

	w := env.serve(http.HandlerFunc(env.summaries.Download), jsonRequest("GET", "/", ""))
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, err := env.store.Update(env.sessionID, func(s *session.Session) error {
		s.Result = &model.Result{Summary: model.StructuredSummary{Issue: "Vraag"}}
		s.Quiz = []model.QuizItem{{Question: "Q?", Choices: []string{"a", "b", "c", "d"}, CorrectIndex: 2}}
		return nil
	})
	require.NoError(t, err)

	w = env.serve(http.HandlerFunc(env.summaries.Download), jsonRequest("GET", "/", ""))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="iracify_output.json"`, w.Header().Get("Content-Disposition"))

	var out model.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "Vraag", out.Summary.Issue)
	require.Len(t, out.Quiz, 1)
	assert.Equal(t, 2, out.Quiz[0].CorrectIndex)
}
