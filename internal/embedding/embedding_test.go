package embedding

import (
	"context"
	"testing"

	"smartwaste/internal/config"
)

type stubEmbedder struct {
	queries []string
}

func (s *stubEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (s *stubEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	s.queries = append(s.queries, text)
	return []float32{0, 1}, nil
}

func TestEmbeddingFunc(t *testing.T) {
	stub := &stubEmbedder{}
	fn := EmbeddingFunc(stub)

	vec, err := fn(context.Background(), "residuos")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 2 || vec[1] != 1 {
		t.Errorf("unexpected vector %v", vec)
	}
	if len(stub.queries) != 1 || stub.queries[0] != "residuos" {
		t.Errorf("expected one query embedding, got %v", stub.queries)
	}
}

func TestNewEmbedder(t *testing.T) {
	e, err := NewEmbedder(&config.LLMConfig{BaseURL: "http://localhost:0/v1", Model: "text-embedding-ada-002"}, "Bearer sk-good")
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}
	if e == nil {
		t.Fatal("expected embedder")
	}
}
