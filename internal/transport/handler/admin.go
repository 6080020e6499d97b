package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/model"
	"github.com/pep299/iracify/internal/session"
	"github.com/pep299/iracify/internal/transport/middleware"
	"github.com/pep299/iracify/internal/transport/response"
)

// Admin serves the settings panel. It must sit behind middleware.Admin.
type Admin struct {
	store    *session.Store
	provider string
	logger   *infrastructure.Logger
}

func NewAdmin(store *session.Store, provider string, logger *infrastructure.Logger) *Admin {
	return &Admin{
		store:    store,
		provider: provider,
		logger:   logger,
	}
}

type adminData struct {
	Settings model.Settings `json:"settings"`
	Defaults model.Settings `json:"defaults"`
	Provider string         `json:"provider"`
	Sessions session.Stats  `json:"sessions"`
}

func (h *Admin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := middleware.SessionID(r.Context())

	if r.Method == http.MethodPost {
		form := isForm(r)
		settings, err := h.store.Update(id, func(s *session.Session) error {
			next, err := decodeSettings(r, s.Settings)
			if err != nil {
				return err
			}
			s.Settings = next
			return nil
		})
		if err != nil {
			response.WriteBadRequest(w, err.Error())
			return
		}
		h.logger.Info("Session settings updated",
			"model", settings.Settings.Model,
			"top_k", settings.Settings.TopK,
			"quiz_questions", settings.Settings.QuizQuestions,
			"reference_policy", settings.Settings.ReferencePolicy,
			"dev_mode", settings.Settings.DevMode,
		)
		if form {
			q := url.Values{middleware.TokenParam: {r.URL.Query().Get(middleware.TokenParam)}}
			http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
			return
		}
	}

	sess, err := h.store.Get(id)
	if err != nil {
		response.WriteNotFound(w, "Session expired")
		return
	}
	response.WriteSuccess(w, "", adminData{
		Settings: sess.Settings,
		Defaults: h.store.Defaults(),
		Provider: h.provider,
		Sessions: h.store.Stats(),
	})
}

func isForm(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

// settingsPatch holds the fields a request may change; nil means unchanged.
type settingsPatch struct {
	Model           *string  `json:"model"`
	TopK            *int     `json:"topK"`
	Temperature     *float32 `json:"temperature"`
	QuizQuestions   *int     `json:"quizQuestions"`
	DevMode         *bool    `json:"devMode"`
	ReferencePolicy *string  `json:"referencePolicy"`
}

// decodeSettings applies a JSON or form patch to current and clamps the
// result. An unknown reference policy is rejected rather than clamped.
func decodeSettings(r *http.Request, current model.Settings) (model.Settings, error) {
	var patch settingsPatch
	if isForm(r) {
		p, err := formPatch(r)
		if err != nil {
			return current, err
		}
		patch = p
	} else if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return current, fmt.Errorf("invalid JSON: %w", err)
	}

	next := current
	if patch.Model != nil {
		next.Model = strings.TrimSpace(*patch.Model)
	}
	if patch.TopK != nil {
		next.TopK = *patch.TopK
	}
	if patch.Temperature != nil {
		next.Temperature = *patch.Temperature
	}
	if patch.QuizQuestions != nil {
		next.QuizQuestions = *patch.QuizQuestions
	}
	if patch.DevMode != nil {
		next.DevMode = *patch.DevMode
	}
	if patch.ReferencePolicy != nil {
		policy, ok := model.ParseReferencePolicy(strings.ToLower(strings.TrimSpace(*patch.ReferencePolicy)))
		if !ok {
			return current, fmt.Errorf("referencePolicy must be drop or strict, got %q", *patch.ReferencePolicy)
		}
		next.ReferencePolicy = policy
	}
	return next.Clamp(), nil
}

// formPatch reads settings from an HTML form. An unchecked devMode box is
// absent from the form, so the form always sets devMode.
func formPatch(r *http.Request) (settingsPatch, error) {
	var patch settingsPatch
	if err := r.ParseForm(); err != nil {
		return patch, fmt.Errorf("invalid form: %w", err)
	}

	if v, ok := formValue(r, "model"); ok {
		patch.Model = &v
	}
	if v, ok := formValue(r, "topK"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return patch, errors.New("topK must be a number")
		}
		patch.TopK = &n
	}
	if v, ok := formValue(r, "temperature"); ok {
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return patch, errors.New("temperature must be a number")
		}
		t := float32(f)
		patch.Temperature = &t
	}
	if v, ok := formValue(r, "quizQuestions"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return patch, errors.New("quizQuestions must be a number")
		}
		patch.QuizQuestions = &n
	}
	if v, ok := formValue(r, "referencePolicy"); ok {
		patch.ReferencePolicy = &v
	}
	dev := r.PostForm.Get("devMode") == "true"
	patch.DevMode = &dev
	return patch, nil
}

func formValue(r *http.Request, key string) (string, bool) {
	if _, ok := r.PostForm[key]; !ok {
		return "", false
	}
	return strings.TrimSpace(r.PostForm.Get(key)), true
}
