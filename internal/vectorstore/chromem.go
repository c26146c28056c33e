package vectorstore

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"

	"leximini/internal/helper"
	"leximini/internal/models"
)

const compress = false

// ChromemStore wraps a chromem-go collection, persisted under a directory.
// Whatever is found on disk at that path is loaded as-is; the file format
// belongs to chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewChromemStore opens (or creates) a persistent store at dbPath and binds
// the named collection.
func NewChromemStore(dbPath, collectionName string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(dbPath, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %v", err)
	}
	return bindCollection(db, collectionName)
}

// NewMemoryChromemStore creates an in-memory store, used by tests and dry runs.
func NewMemoryChromemStore(collectionName string) (*ChromemStore, error) {
	return bindCollection(chromem.NewDB(), collectionName)
}

func bindCollection(db *chromem.DB, collectionName string) (*ChromemStore, error) {
	c, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	return &ChromemStore{db: db, collection: c}, nil
}

// Add stores chunk embeddings as chromem documents. Chunk provenance goes
// into the document metadata.
func (s *ChromemStore) Add(ctx context.Context, docs []models.ChunkEmbedding) error {
	if len(docs) == 0 {
		return nil
	}
	chromemDocs := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		chromemDocs = append(chromemDocs, chromem.Document{
			ID:        id,
			Content:   d.Content,
			Embedding: d.Embedding,
			Metadata: map[string]string{
				"source": d.SourceFilename,
				"page":   strconv.Itoa(d.PageNumber),
				"chunk":  strconv.Itoa(d.ChunkID),
			},
		})
	}
	if err := s.collection.AddDocuments(ctx, chromemDocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}
	return nil
}

// Search returns up to k nearest chunks by embedding similarity.
func (s *ChromemStore) Search(ctx context.Context, queryEmbedding []float32, k int) ([]SearchResult, error) {
	if queryEmbedding == nil {
		return nil, fmt.Errorf("query embedding must be provided")
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, fmt.Errorf("collection is empty")
	}
	if k > count {
		k = count
	}
	results, err := s.collection.QueryEmbedding(ctx, queryEmbedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		page, _ := strconv.Atoi(r.Metadata["page"])
		out = append(out, SearchResult{
			Content:        r.Content,
			SourceFilename: r.Metadata["source"],
			PageNumber:     page,
			Similarity:     r.Similarity,
		})
	}
	return out, nil
}

// Count reports the number of stored chunks.
func (s *ChromemStore) Count(_ context.Context) (int, error) {
	return s.collection.Count(), nil
}
