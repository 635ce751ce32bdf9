package rag

import (
	"context"

	"github.com/tmc/langchaingo/schema"

	"smartwaste/internal/models"
)

// retriever exposes an IndexHandle as a langchaingo schema.Retriever and
// keeps the documents of its last retrieval so they can be shown as sources.
type retriever struct {
	index   Index
	topK    int
	sources []models.Source
}

var _ schema.Retriever = (*retriever)(nil)

func (r *retriever) GetRelevantDocuments(ctx context.Context, query string) ([]schema.Document, error) {
	sources, err := r.index.Search(ctx, query, r.topK)
	if err != nil {
		return nil, &StageError{Stage: StageRetrieval, Err: err}
	}
	r.sources = sources

	docs := make([]schema.Document, 0, len(sources))
	for _, s := range sources {
		metadata := make(map[string]any, len(s.Metadata)+1)
		for k, v := range s.Metadata {
			metadata[k] = v
		}
		metadata[models.SourceIDKey] = s.ID
		docs = append(docs, schema.Document{
			PageContent: s.Content,
			Metadata:    metadata,
			Score:       s.Score,
		})
	}
	return docs, nil
}
