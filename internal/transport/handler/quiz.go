package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/model"
	"github.com/pep299/iracify/internal/service"
	"github.com/pep299/iracify/internal/session"
	"github.com/pep299/iracify/internal/transport/middleware"
	"github.com/pep299/iracify/internal/transport/response"
)

var (
	errNoSummary = errors.New("create a summary first")
	errNoQuiz    = errors.New("generate a quiz first")
)

type Quiz struct {
	quiz   *service.Quiz
	store  *session.Store
	logger *infrastructure.Logger
}

func NewQuiz(quiz *service.Quiz, store *session.Store, logger *infrastructure.Logger) *Quiz {
	return &Quiz{
		quiz:   quiz,
		store:  store,
		logger: logger,
	}
}

// question is a quiz item without its answer.
type question struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
}

type quizData struct {
	Questions []question      `json:"questions"`
	Warnings  []model.Warning `json:"warnings,omitempty"`
}

type answersRequest struct {
	Answers []int `json:"answers"`
}

func (h *Quiz) Generate(w http.ResponseWriter, r *http.Request) {
	sess, err := generateQuiz(r.Context(), h.quiz, h.store, middleware.SessionID(r.Context()))
	if errors.Is(err, errNoSummary) {
		response.WriteError(w, http.StatusConflict, "Create a summary first")
		return
	}
	if err != nil {
		h.logger.Warn("Quiz generation failed", "error", err)
		response.WriteFailure(w, err, devRaw(sess, err))
		return
	}

	data := quizData{Questions: make([]question, len(sess.Quiz)), Warnings: sess.QuizWarnings}
	for i, item := range sess.Quiz {
		data.Questions[i] = question{Index: i, Question: item.Question, Choices: item.Choices}
	}
	response.WriteSuccess(w, "Quiz generated", data)
}

func (h *Quiz) Answers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "Invalid JSON")
		return
	}

	grade, err := gradeQuiz(h.store, middleware.SessionID(r.Context()), req.Answers)
	if errors.Is(err, errNoQuiz) {
		response.WriteError(w, http.StatusConflict, "Generate a quiz first")
		return
	}
	if err != nil {
		response.WriteFailure(w, err, nil)
		return
	}
	response.WriteSuccess(w, "Quiz graded", grade)
}

func generateQuiz(ctx context.Context, quiz *service.Quiz, store *session.Store, id string) (*session.Session, error) {
	sess, err := store.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.Result == nil {
		return sess, errNoSummary
	}

	items, warnings, err := quiz.Generate(ctx, sess.Result.Summary, sess.Settings)
	if err != nil {
		var invalid *service.InvalidOutputError
		if errors.As(err, &invalid) {
			store.Update(id, func(s *session.Session) error {
				s.Raw = invalid.Raw
				return nil
			})
		}
		return sess, err
	}

	return store.Update(id, func(s *session.Session) error {
		s.ResetQuiz()
		s.Quiz = items
		s.QuizWarnings = warnings
		return nil
	})
}

func gradeQuiz(store *session.Store, id string, answers []int) (*model.QuizGrade, error) {
	var grade model.QuizGrade
	_, err := store.Update(id, func(s *session.Session) error {
		if len(s.Quiz) == 0 {
			return errNoQuiz
		}
		g, err := service.Grade(s.Quiz, answers)
		if err != nil {
			return err
		}
		grade = g
		s.Grade = &g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &grade, nil
}
