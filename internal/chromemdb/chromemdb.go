package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"smartwaste/internal/models"
)

// ErrNotFound is returned when the index directory, file or collection does not exist.
var ErrNotFound = errors.New("vector index not found")

// VectorDBManager is a read-only view of a chromem-go collection together
// with the embedding function used to vectorize queries against it.
type VectorDBManager struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// IsExportFile reports whether path names a chromem-go export rather than a
// persistence directory.
func IsExportFile(path string) bool {
	return strings.HasSuffix(path, ".gob") ||
		strings.HasSuffix(path, ".gob.gz") ||
		strings.HasSuffix(path, ".enc") ||
		strings.HasSuffix(path, ".chromem")
}

// OpenVectorDBManager opens an existing index. It never creates anything on
// disk: a missing directory, file or collection yields ErrNotFound.
func OpenVectorDBManager(dbPath, collectionName, encryptionKey string, compress bool, embed chromem.EmbeddingFunc) (*VectorDBManager, error) {
	info, err := os.Stat(dbPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", dbPath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to stat index: %w", err)
	}

	var db *chromem.DB
	switch {
	case info.IsDir():
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
	case IsExportFile(dbPath):
		db = chromem.NewDB()
		if err := db.ImportFromFile(dbPath, encryptionKey, collectionName); err != nil {
			return nil, fmt.Errorf("failed to import database: %w", err)
		}
	default:
		return nil, fmt.Errorf("%s is neither an index directory nor an export file: %w", dbPath, ErrNotFound)
	}

	c := db.GetCollection(collectionName, embed)
	if c == nil {
		return nil, fmt.Errorf("collection %q in %s: %w", collectionName, dbPath, ErrNotFound)
	}

	log.Debug().
		Str("path", dbPath).
		Str("collection", collectionName).
		Int("documents", c.Count()).
		Msg("Opened vector index")

	return &VectorDBManager{db: db, collection: c}, nil
}

// Count returns the number of documents in the collection.
func (m *VectorDBManager) Count() int {
	return m.collection.Count()
}

// Search embeds query with the collection's embedding function and returns
// up to topK nearest documents, most similar first.
func (m *VectorDBManager) Search(ctx context.Context, query string, topK int) ([]models.Source, error) {
	n := min(topK, m.collection.Count())
	if n <= 0 {
		return nil, nil
	}
	results, err := m.SearchWithQueryOptions(ctx, chromem.QueryOptions{
		QueryText: query,
		NResults:  n,
	})
	if err != nil {
		return nil, err
	}

	sources := make([]models.Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, models.Source{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: r.Metadata,
			Score:    r.Similarity,
		})
	}
	return sources, nil
}

func (m *VectorDBManager) SearchWithQueryOptions(ctx context.Context, opts chromem.QueryOptions) ([]chromem.Result, error) {
	// a query text or a precomputed embedding is required
	if opts.QueryText == "" && opts.QueryEmbedding == nil {
		opts.QueryText = " "
	}

	results, err := m.collection.QueryWithOptions(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	return results, nil
}

// Close releases nothing on disk; the persistent DB writes only on mutation.
func (m *VectorDBManager) Close() error {
	return nil
}
