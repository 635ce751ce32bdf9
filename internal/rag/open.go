package rag

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	"smartwaste/internal/chromemdb"
	"smartwaste/internal/config"
	"smartwaste/internal/db"
	"smartwaste/internal/embedding"
	"smartwaste/internal/llmservice"
)

// NewIndexBuilder opens cfg.Index.Path as a chromem-go directory, a chromem-go
// export file or a pgvector DSN. Nothing is created or written.
func NewIndexBuilder(cfg *config.Config) BuildFunc {
	return func(ctx context.Context, credential string) (Index, error) {
		embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM, credential)
		if err != nil {
			return nil, err
		}

		if db.IsDSN(cfg.Index.Path) {
			store, err := db.OpenStore(ctx, cfg.Index.Path, embedder, cfg.Index.Debug)
			if err != nil {
				return nil, err
			}
			return store, nil
		}

		m, err := chromemdb.OpenVectorDBManager(
			cfg.Index.Path,
			cfg.Index.Collection,
			cfg.Index.EncryptionKey,
			cfg.Index.Compress,
			embedding.EmbeddingFunc(embedder),
		)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// NewChatModelFunc builds chat clients against cfg.ChatLLM.
func NewChatModelFunc(cfg *config.Config) ChatModelFunc {
	return func(credential string) (llms.Model, error) {
		return llmservice.NewChatModel(&cfg.ChatLLM, credential)
	}
}
