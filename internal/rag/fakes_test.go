package rag

import (
	"context"
	"sync"

	"github.com/tmc/langchaingo/llms"

	"smartwaste/internal/models"
)

type fakeIndex struct {
	mu       sync.Mutex
	searches int
	closed   bool
	sources  []models.Source
	err      error
}

func (f *fakeIndex) Search(_ context.Context, _ string, topK int) ([]models.Source, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.err != nil {
		return nil, f.err
	}
	return f.sources[:min(topK, len(f.sources))], nil
}

func (f *fakeIndex) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// fakeBuilder counts BuildFunc invocations and fails while err is set.
type fakeBuilder struct {
	mu     sync.Mutex
	builds int
	err    error
	index  *fakeIndex
}

func (b *fakeBuilder) Build(_ context.Context, _ string) (Index, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.builds++
	if b.err != nil {
		return nil, b.err
	}
	if b.index != nil {
		return b.index, nil
	}
	return &fakeIndex{}, nil
}

func (b *fakeBuilder) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.builds
}

type fakeModel struct {
	mu      sync.Mutex
	calls   int
	answer  string
	err     error
	options llms.CallOptions
}

func (m *fakeModel) GenerateContent(_ context.Context, _ []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	for _, opt := range options {
		opt(&m.options)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.answer}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

var projectSources = []models.Source{
	{ID: "intro", Content: "SmartWaste analiza la recogida de residuos en Madrid.", Score: 0.9},
	{ID: "districts", Content: "Comparamos el desempeño de los distritos.", Score: 0.5},
}
