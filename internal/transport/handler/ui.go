package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/repository"
	"github.com/pep299/iracify/internal/service"
	"github.com/pep299/iracify/internal/session"
	"github.com/pep299/iracify/internal/transport/middleware"
	"github.com/pep299/iracify/internal/transport/response"
	"github.com/pep299/iracify/internal/validator"
	"github.com/pep299/iracify/internal/view"
)

// UI serves the HTML page and its form posts. Every post redirects back to
// the page; failures are shown there as a flash message.
type UI struct {
	summarizer *service.Summarizer
	quiz       *service.Quiz
	store      *session.Store
	renderer   *view.Renderer
	cfg        *infrastructure.Config
	provider   string
	logger     *infrastructure.Logger
}

func NewUI(
	summarizer *service.Summarizer,
	quiz *service.Quiz,
	store *session.Store,
	renderer *view.Renderer,
	cfg *infrastructure.Config,
	provider string,
	logger *infrastructure.Logger,
) *UI {
	return &UI{
		summarizer: summarizer,
		quiz:       quiz,
		store:      store,
		renderer:   renderer,
		cfg:        cfg,
		provider:   provider,
		logger:     logger,
	}
}

func (h *UI) Index(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionID(r.Context())
	sess, err := h.store.Get(id)
	if err != nil {
		http.Redirect(w, r, homeURL(r), http.StatusSeeOther)
		return
	}
	if sess.Flash != "" {
		h.store.Update(id, func(s *session.Session) error {
			s.Flash = ""
			return nil
		})
	}

	admin := middleware.IsAdmin(h.cfg, r)
	page := view.Build(sess, admin, r.URL.Query().Get(middleware.TokenParam), h.provider)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w, page); err != nil {
		h.logger.Error("Rendering page failed", "error", err)
	}
}

func (h *UI) Summarize(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionID(r.Context())

	name, data, err := readUpload(w, r)
	if err != nil {
		h.flash(id, "Het formulier kon niet worden gelezen: "+err.Error())
		http.Redirect(w, r, homeURL(r), http.StatusSeeOther)
		return
	}

	var in service.Input
	switch {
	case name != "":
		in = service.UploadInput(name, data)
	case strings.TrimSpace(r.FormValue("url")) != "":
		in = service.URLInput(strings.TrimSpace(r.FormValue("url")))
	case strings.TrimSpace(r.FormValue("text")) != "":
		in = service.TextInput(r.FormValue("text"))
	default:
		h.flash(id, "Voer eerst tekst of een URL in, of upload een bestand.")
		http.Redirect(w, r, homeURL(r), http.StatusSeeOther)
		return
	}

	if _, _, err := runSummary(r.Context(), h.summarizer, h.store, id, in); err != nil {
		h.logger.Warn("Summary failed", "input", in.Kind, "error", err)
		h.flash(id, flashMessage(err))
	}
	http.Redirect(w, r, homeURL(r), http.StatusSeeOther)
}

func (h *UI) Quiz(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionID(r.Context())
	if _, err := generateQuiz(r.Context(), h.quiz, h.store, id); err != nil {
		h.logger.Warn("Quiz generation failed", "error", err)
		if errors.Is(err, errNoSummary) {
			h.flash(id, "Maak eerst een samenvatting. Daarna kun je de quiz genereren.")
		} else {
			h.flash(id, "Kon geen quiz genereren: "+flashMessage(err))
		}
	}
	http.Redirect(w, r, homeURL(r), http.StatusSeeOther)
}

func (h *UI) Grade(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionID(r.Context())
	if err := r.ParseForm(); err != nil {
		response.WriteBadRequest(w, "Invalid form")
		return
	}

	sess, err := h.store.Get(id)
	if err != nil {
		http.Redirect(w, r, homeURL(r), http.StatusSeeOther)
		return
	}
	answers := make([]int, len(sess.Quiz))
	for i := range answers {
		answers[i] = service.Unanswered
		if n, err := strconv.Atoi(r.PostForm.Get(fmt.Sprintf("answer-%d", i))); err == nil {
			answers[i] = n
		}
	}

	if _, err := gradeQuiz(h.store, id, answers); err != nil {
		h.flash(id, "Genereer eerst een quiz.")
	}
	http.Redirect(w, r, homeURL(r), http.StatusSeeOther)
}

func (h *UI) flash(id, msg string) {
	h.store.Update(id, func(s *session.Session) error {
		s.Flash = msg
		return nil
	})
}

// homeURL keeps the admin token across redirects.
func homeURL(r *http.Request) string {
	token := r.URL.Query().Get(middleware.TokenParam)
	if token == "" {
		return "/"
	}
	return "/?" + url.Values{middleware.TokenParam: {token}}.Encode()
}

func flashMessage(err error) string {
	var (
		fetchErr   *repository.FetchError
		timeoutErr *repository.TimeoutError
		callErr    *repository.ModelCallError
		verr       *validator.Error
	)
	switch {
	case errors.As(err, &fetchErr):
		return "Kon onvoldoende tekst ophalen: " + fetchErr.Error()
	case errors.As(err, &timeoutErr):
		return "Het model reageerde niet op tijd. Probeer het opnieuw."
	case errors.As(err, &callErr):
		return "De aanroep van het model is mislukt: " + callErr.Error()
	case errors.As(err, &verr):
		return fmt.Sprintf("Het model gaf een ongeldig antwoord (%s): %v", verr.Kind, verr)
	default:
		return err.Error()
	}
}
