package vectorstore

import (
	"context"

	"leximini/internal/models"
)

// SearchResult is a retrieved chunk with its similarity score.
type SearchResult struct {
	Content        string
	SourceFilename string
	PageNumber     int
	Similarity     float32
}

// Store persists (embedding, chunk) pairs and answers nearest-neighbor
// queries. The index is written once by ingestion and read-only at query
// time; implementations own the on-disk format.
type Store interface {
	Add(ctx context.Context, docs []models.ChunkEmbedding) error
	Search(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error)
	Count(ctx context.Context) (int, error)
}
