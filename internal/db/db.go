package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"smartwaste/internal/models"
)

type Document struct {
	bun.BaseModel  `bun:"table:documents,alias:d"`
	ID             int64   `bun:"id,pk,autoincrement"`
	Content        string  `bun:"content,notnull"`
	SourceFilename string  `bun:"source_filename"`
	PageNumber     int     `bun:"page_number"`
	ChunkID        int     `bun:"chunk_id"`
	Distance       float64 `bun:"distance,scanonly"`
}

// IsDSN reports whether location is a postgres connection string.
func IsDSN(location string) bool {
	return strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://")
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func ConnectDB(dsn string) *sql.DB {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
}

// SearchDocuments returns the limit documents closest to queryEmbedding by L2 distance.
func SearchDocuments(ctx context.Context, db *bun.DB, queryEmbedding []float32, limit int) ([]Document, error) {
	var docs []Document
	err := db.NewSelect().
		Model(&docs).
		Column("id", "content", "source_filename", "page_number", "chunk_id").
		ColumnExpr("embedding <-> ?::vector AS distance", VectorLiteral(queryEmbedding)).
		OrderExpr("distance").
		Limit(limit).
		Scan(ctx)
	return docs, err
}

// VectorLiteral formats v in pgvector's text representation.
func VectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// Store is a read-only pgvector index searched with a query embedder.
type Store struct {
	db       *bun.DB
	embedder embeddings.Embedder
}

// OpenStore connects to dsn and verifies the documents table is reachable.
func OpenStore(ctx context.Context, dsn string, embedder embeddings.Embedder, debug bool) (*Store, error) {
	bdb := NewDB(ConnectDB(dsn), debug)
	if _, err := bdb.NewSelect().Model((*Document)(nil)).Limit(1).Exists(ctx); err != nil {
		bdb.Close()
		return nil, fmt.Errorf("failed to reach documents table: %w", err)
	}
	return &Store{db: bdb, embedder: embedder}, nil
}

func (s *Store) Search(ctx context.Context, query string, topK int) ([]models.Source, error) {
	queryEmbedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("couldn't create embedding of query: %w", err)
	}
	docs, err := SearchDocuments(ctx, s.db, queryEmbedding, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}

	sources := make([]models.Source, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, models.Source{
			ID:      strconv.FormatInt(d.ID, 10),
			Content: d.Content,
			Metadata: map[string]string{
				"source_filename": d.SourceFilename,
				"page_number":     strconv.Itoa(d.PageNumber),
				"chunk_id":        strconv.Itoa(d.ChunkID),
			},
			Score: float32(1 / (1 + d.Distance)),
		})
	}
	return sources, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
