package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/model"
	"github.com/pep299/iracify/internal/repository"
	"github.com/pep299/iracify/internal/service"
	"github.com/pep299/iracify/internal/session"
	"github.com/pep299/iracify/internal/transport/middleware"
	"github.com/pep299/iracify/internal/transport/response"
)

// DownloadFileName is the attachment name of the exported summary.
const DownloadFileName = "iracify_output.json"

type Summaries struct {
	summarizer *service.Summarizer
	store      *session.Store
	logger     *infrastructure.Logger
}

func NewSummaries(summarizer *service.Summarizer, store *session.Store, logger *infrastructure.Logger) *Summaries {
	return &Summaries{
		summarizer: summarizer,
		store:      store,
		logger:     logger,
	}
}

type textRequest struct {
	Text string `json:"text"`
}

type urlRequest struct {
	URL string `json:"url"`
}

type summaryData struct {
	Summary    model.StructuredSummary `json:"summary"`
	Warnings   []model.Warning         `json:"warnings,omitempty"`
	Source     string                  `json:"source,omitempty"`
	Candidates []string                `json:"candidates,omitempty"`
	Reprompted bool                    `json:"reprompted,omitempty"`
	TimingsMs  map[string]int64        `json:"timingsMs,omitempty"`
	Raw        string                  `json:"raw,omitempty"`
}

type rawData struct {
	Raw string `json:"raw"`
}

func (h *Summaries) Text(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "Invalid JSON")
		return
	}
	h.respond(w, r, service.TextInput(req.Text))
}

func (h *Summaries) URL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.URL == "" {
		response.WriteBadRequest(w, "url is required")
		return
	}
	h.respond(w, r, service.URLInput(req.URL))
}

func (h *Summaries) Upload(w http.ResponseWriter, r *http.Request) {
	name, data, err := readUpload(w, r)
	if err != nil {
		response.WriteBadRequest(w, err.Error())
		return
	}
	if name == "" {
		response.WriteBadRequest(w, "file is required")
		return
	}
	h.respond(w, r, service.UploadInput(name, data))
}

func (h *Summaries) respond(w http.ResponseWriter, r *http.Request, in service.Input) {
	sess, out, err := runSummary(r.Context(), h.summarizer, h.store, middleware.SessionID(r.Context()), in)
	if err != nil {
		h.logger.Warn("Summary failed", "input", in.Kind, "error", err)
		response.WriteFailure(w, err, devRaw(sess, err))
		return
	}

	data := summaryData{
		Summary:    out.Result.Summary,
		Warnings:   out.Result.Warnings,
		Source:     out.Source,
		Candidates: out.Candidates,
		Reprompted: out.Reprompted,
		TimingsMs: map[string]int64{
			"fetch":    out.Timings.Fetch.Milliseconds(),
			"model":    out.Timings.Model.Milliseconds(),
			"validate": out.Timings.Validate.Milliseconds(),
			"total":    out.Timings.Total.Milliseconds(),
		},
	}
	if sess.Settings.DevMode {
		data.Raw = out.Raw
	}
	response.WriteSuccess(w, "Summary created", data)
}

func (h *Summaries) Current(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(middleware.SessionID(r.Context()))
	if err != nil || sess.Result == nil {
		response.WriteNotFound(w, "No summary in this session")
		return
	}
	response.WriteSuccess(w, "", summaryData{
		Summary:  sess.Result.Summary,
		Warnings: sess.Result.Warnings,
		Source:   sess.Source,
	})
}

// Download exports the current summary, with the quiz when one exists.
func (h *Summaries) Download(w http.ResponseWriter, r *http.Request) {
	sess, err := h.store.Get(middleware.SessionID(r.Context()))
	if err != nil || sess.Result == nil {
		response.WriteNotFound(w, "No summary in this session")
		return
	}

	out := *sess.Result
	out.Quiz = sess.Quiz
	body, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		response.WriteInternalError(w, "Failed to encode summary")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadFileName))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// runSummary summarizes in with the session's settings and stores the
// result in the session. On failure the session keeps its previous summary;
// only the rejected raw output is recorded.
func runSummary(ctx context.Context, summarizer *service.Summarizer, store *session.Store, id string, in service.Input) (*session.Session, *service.Outcome, error) {
	sess, err := store.Get(id)
	if err != nil {
		return nil, nil, fmt.Errorf("loading session: %w", err)
	}

	out, err := summarizer.Summarize(ctx, in, sess.Settings)
	if err != nil {
		var invalid *service.InvalidOutputError
		if errors.As(err, &invalid) {
			if updated, uerr := store.Update(id, func(s *session.Session) error {
				s.Raw = invalid.Raw
				return nil
			}); uerr == nil {
				sess = updated
			}
		}
		return sess, nil, err
	}

	sess, err = store.Update(id, func(s *session.Session) error {
		s.ResetSummary()
		result := out.Result
		s.Result = &result
		s.Raw = out.Raw
		s.Source = out.Source
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("saving summary: %w", err)
	}
	return sess, out, nil
}

// devRaw returns the rejected model output for sessions in developer mode.
func devRaw(sess *session.Session, err error) interface{} {
	var invalid *service.InvalidOutputError
	if sess == nil || !sess.Settings.DevMode || !errors.As(err, &invalid) {
		return nil
	}
	return rawData{Raw: invalid.Raw}
}

// readUpload reads the multipart "file" field. A missing file or a
// non-multipart body yields an empty name and no error.
func readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, repository.MaxBodyBytes+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("reading file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, repository.MaxBodyBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("reading file: %w", err)
	}
	if len(data) > repository.MaxBodyBytes {
		return "", nil, errors.New("file exceeds 8 MiB")
	}
	return header.Filename, data, nil
}
