package application

import (
	"context"
	"fmt"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/repository"
	"github.com/pep299/iracify/internal/service"
	"github.com/pep299/iracify/internal/session"
	"github.com/pep299/iracify/internal/transport/handler"
	"github.com/pep299/iracify/internal/view"
)

// Application holds the wired components behind the HTTP routes.
type Application struct {
	Config   *infrastructure.Config
	Logger   *infrastructure.Logger
	Store    *session.Store
	Provider string

	SummariesHandler *handler.Summaries
	QuizHandler      *handler.Quiz
	AdminHandler     *handler.Admin
	UIHandler        *handler.UI
	HealthHandler    *handler.Health

	cleanup []func() error
}

// Dependencies are the external collaborators of Build.
type Dependencies struct {
	Config  *infrastructure.Config
	Logger  *infrastructure.Logger
	LLM     repository.LLMRepository
	Sources repository.SourceRepository
	Version string
}

// New loads configuration and creates the application with real model and
// source clients.
func New(ctx context.Context, version string) (*Application, error) {
	cfg, err := infrastructure.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := infrastructure.NewLogger(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	llm, err := newLLM(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating model client: %w", err)
	}

	var objects repository.ObjectReader
	if cfg.GCSEnabled {
		objects, err = repository.NewGCSReader(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating storage client: %w", err)
		}
	}

	app, err := Build(Dependencies{
		Config:  cfg,
		Logger:  logger,
		LLM:     llm,
		Sources: repository.NewSourceRepository(cfg.FetchTimeout, objects, logger),
		Version: version,
	})
	if err != nil {
		return nil, err
	}
	if objects != nil {
		app.cleanup = append(app.cleanup, objects.Close)
	}

	logger.Info("Application created",
		"provider", llm.Provider(),
		"model", cfg.ModelName,
		"admin_enabled", cfg.AdminEnabled(),
		"gcs_enabled", cfg.GCSEnabled,
	)
	return app, nil
}

func newLLM(ctx context.Context, cfg *infrastructure.Config) (repository.LLMRepository, error) {
	switch cfg.ModelProvider {
	case infrastructure.ProviderGemini:
		return repository.NewGeminiRepository(ctx, repository.GeminiConfig{
			APIKey:  cfg.GeminiAPIKey,
			Model:   cfg.ModelName,
			Timeout: cfg.ModelTimeout,
		})
	default:
		return repository.NewOpenAIRepository(repository.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.ModelName,
			Timeout: cfg.ModelTimeout,
		})
	}
}

// Build wires services, the session store and handlers around the given
// clients.
func Build(deps Dependencies) (*Application, error) {
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = infrastructure.NewNopLogger()
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	store := session.NewStore(cfg.SessionTTL, cfg.DefaultSettings(), logger)

	summarizer := service.NewSummarizer(deps.LLM, deps.Sources, logger, service.SummarizerOptions{
		RepromptOnInvalid: cfg.RepromptOnInvalid,
	})
	quiz := service.NewQuiz(deps.LLM, logger)
	provider := deps.LLM.Provider()

	return &Application{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Provider: provider,

		SummariesHandler: handler.NewSummaries(summarizer, store, logger),
		QuizHandler:      handler.NewQuiz(quiz, store, logger),
		AdminHandler:     handler.NewAdmin(store, provider, logger),
		UIHandler:        handler.NewUI(summarizer, quiz, store, renderer, cfg, provider, logger),
		HealthHandler:    handler.NewHealth(deps.Version, provider),
	}, nil
}

// Close stops the session sweeper and releases client resources.
func (a *Application) Close() error {
	a.Store.Stop()

	var firstErr error
	for _, fn := range a.cleanup {
		if err := fn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.Logger.Sync()
	return firstErr
}
