package mocks

import (
	"context"

	"github.com/pep299/iracify/internal/repository"
)

// Mock Source Repository
type MockSourceRepo struct {
	Text       string
	Err        error
	FetchedURL string
	UploadName string
}

func (m *MockSourceRepo) Fetch(ctx context.Context, rawURL string) (*repository.Document, error) {
	m.FetchedURL = rawURL
	if m.Err != nil {
		return nil, m.Err
	}
	return &repository.Document{Source: rawURL, Kind: repository.KindHTML, Text: m.Text}, nil
}

func (m *MockSourceRepo) ExtractUpload(name string, data []byte) (*repository.Document, error) {
	m.UploadName = name
	if m.Err != nil {
		return nil, m.Err
	}
	text := m.Text
	if text == "" {
		text = string(data)
	}
	return &repository.Document{Source: name, Kind: repository.KindText, Text: text}, nil
}
