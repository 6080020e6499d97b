package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"runtime/debug"
	"sync"

	"github.com/gorilla/mux"

	"github.com/pep299/iracify/internal/application"
	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/transport/middleware"
	"github.com/pep299/iracify/internal/transport/response"
)

// Version is reported by the health check of the Cloud Functions entry point.
var Version = "dev"

// SetupRoutes builds the router for app.
func SetupRoutes(app *application.Application) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.WriteNotFound(w, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Use(middleware.Logging(app.Logger))

	// Health check stays outside the session middleware
	r.Handle("/healthz", app.HealthHandler).Methods("GET")

	sessions := middleware.Session(app.Store)

	// HTML page
	ui := r.NewRoute().Subrouter()
	ui.Use(sessions)
	ui.HandleFunc("/", app.UIHandler.Index).Methods("GET")
	ui.HandleFunc("/ui/summarize", app.UIHandler.Summarize).Methods("POST")
	ui.HandleFunc("/ui/quiz", app.UIHandler.Quiz).Methods("POST")
	ui.HandleFunc("/ui/quiz/grade", app.UIHandler.Grade).Methods("POST")

	// JSON API
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(sessions)
	api.HandleFunc("/summaries/text", app.SummariesHandler.Text).Methods("POST")
	api.HandleFunc("/summaries/url", app.SummariesHandler.URL).Methods("POST")
	api.HandleFunc("/summaries/upload", app.SummariesHandler.Upload).Methods("POST")
	api.HandleFunc("/summaries/current", app.SummariesHandler.Current).Methods("GET")
	api.HandleFunc("/summaries/current/download", app.SummariesHandler.Download).Methods("GET")
	api.HandleFunc("/quiz", app.QuizHandler.Generate).Methods("POST")
	api.HandleFunc("/quiz/answers", app.QuizHandler.Answers).Methods("POST")

	// Settings panel
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.Admin(app.Config), sessions)
	admin.Handle("/settings", app.AdminHandler).Methods("GET", "POST")

	return r
}

// CreateHandler builds the application behind the Cloud Functions entry
// point. The returned cleanup flushes traces and releases the application.
func CreateHandler() (http.Handler, func(), error) {
	ctx := context.Background()

	app, err := application.New(ctx, Version)
	if err != nil {
		// No application logger exists yet.
		log.Printf("Error creating application: %v\nStack:\n%s", err, debug.Stack())
		return nil, nil, err
	}
	logger := app.Logger

	shutdownTracing, err := infrastructure.InitTracing(ctx, app.Config, logger, Version)
	if err != nil {
		logger.Error("Failed to initialize tracing", "error", err)
		app.Close()
		return nil, nil, fmt.Errorf("initializing tracing: %w", err)
	}

	cleanup := func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Tracing shutdown error", "error", err)
		}
		if err := app.Close(); err != nil {
			logger.Error("Application close error", "error", err)
		}
	}

	if err := app.Store.StartSweeper(app.Config.SessionSweepSchedule); err != nil {
		logger.Error("Failed to start session sweeper", "error", err)
		cleanup()
		return nil, nil, err
	}

	return SetupRoutes(app), cleanup, nil
}

var (
	once       sync.Once
	handler    http.Handler
	handlerErr error
	// handlerCleanup is held for the life of the instance. Cloud Functions
	// offers no shutdown hook to call it from.
	handlerCleanup func()
)

// HandleRequest handles a single HTTP request (for Cloud Functions). The
// application is built on the first request and reused, so sessions live as
// long as the instance.
func HandleRequest(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		handler, handlerCleanup, handlerErr = CreateHandler()
	})
	if handlerErr != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	handler.ServeHTTP(w, r)
}
