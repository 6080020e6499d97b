package mocks

import (
	"context"
	"sync"

	"github.com/pep299/iracify/internal/repository"
)

// Mock LLM Repository. Responses are returned in order; the last one repeats.
type MockLLMRepo struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Requests  []repository.CompletionRequest
}

func (m *MockLLMRepo) Complete(ctx context.Context, req repository.CompletionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "", nil
	}
	i := len(m.Requests) - 1
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return m.Responses[i], nil
}

func (m *MockLLMRepo) Provider() string { return "mock" }

// Calls returns how many completions were requested.
func (m *MockLLMRepo) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
