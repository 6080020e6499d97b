package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

// GeminiConfig holds settings for the Gemini API.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// BaseURL overrides the API endpoint; empty means the public default.
	BaseURL string
}

type geminiRepository struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiRepository creates a Gemini backed LLMRepository.
func NewGeminiRepository(ctx context.Context, cfg GeminiConfig) (LLMRepository, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-2.5-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &geminiRepository{
		client:  client,
		model:   model,
		timeout: timeout,
	}, nil
}

func (g *geminiRepository) Provider() string { return "gemini" }

func (g *geminiRepository) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return complete(ctx, g.Provider(), g.model, g.timeout, geminiStatus, g.call, req)
}

func (g *geminiRepository) call(ctx context.Context, model string, req CompletionRequest) (string, error) {
	temperature := req.Temperature
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.User), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temperature,
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}
