package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pep299/iracify/internal/infrastructure"
	"github.com/pep299/iracify/internal/mocks"
	"github.com/pep299/iracify/internal/model"
)

func TestBuild(t *testing.T) {
	cfg := &infrastructure.Config{
		ModelName:            "gpt-4o-mini",
		QuizReferencePolicy:  model.ReferencePolicyStrict,
		SessionTTL:           time.Hour,
		SessionSweepSchedule: "@every 1h",
	}

	app, err := Build(Dependencies{
		Config:  cfg,
		LLM:     &mocks.MockLLMRepo{},
		Sources: &mocks.MockSourceRepo{},
		Version: "test",
	})
	require.NoError(t, err)

	assert.Equal(t, "mock", app.Provider)
	assert.NotNil(t, app.SummariesHandler)
	assert.NotNil(t, app.QuizHandler)
	assert.NotNil(t, app.AdminHandler)
	assert.NotNil(t, app.UIHandler)
	assert.NotNil(t, app.HealthHandler)

	defaults := app.Store.Defaults()
	assert.Equal(t, "gpt-4o-mini", defaults.Model)
	assert.Equal(t, model.ReferencePolicyStrict, defaults.ReferencePolicy)

	require.NoError(t, app.Store.StartSweeper(cfg.SessionSweepSchedule))
	assert.NoError(t, app.Close())
}

func TestNewLLM(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *infrastructure.Config
		provider string
	}{
		{
			name:     "openai",
			cfg:      &infrastructure.Config{ModelProvider: infrastructure.ProviderOpenAI, OpenAIAPIKey: "test-key", ModelName: "gpt-4o-mini", ModelTimeout: time.Second},
			provider: "openai",
		},
		{
			name:     "gemini",
			cfg:      &infrastructure.Config{ModelProvider: infrastructure.ProviderGemini, GeminiAPIKey: "test-key", ModelName: "gemini-2.5-flash", ModelTimeout: time.Second},
			provider: "gemini",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm, err := newLLM(context.Background(), tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.provider, llm.Provider())
		})
	}
}
