package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"leximini/internal/models"
	"leximini/internal/parser"
	"leximini/internal/splitter"
	"leximini/internal/vectorstore"
)

// Pipeline turns a directory of documents into a persisted similarity index.
// It runs to completion as a single batch: parse, split, embed in fixed-size
// batches, store. Validation failures abort before anything is written.
type Pipeline struct {
	embedder  embeddings.Embedder
	splitter  *splitter.Splitter
	store     vectorstore.Store
	batchSize int
}

func NewPipeline(embedder embeddings.Embedder, sp *splitter.Splitter, store vectorstore.Store, batchSize int) *Pipeline {
	return &Pipeline{embedder: embedder, splitter: sp, store: store, batchSize: batchSize}
}

// ListDocuments returns the supported document files in dir, PDFs first in
// directory order. Errors if the directory does not exist or holds no
// supported documents.
func ListDocuments(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("data directory %q not found", dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if parser.Supported(strings.ToLower(e.Name())) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no supported documents found in %q (looking for %s)",
			dir, strings.Join(parser.SupportedExtensions, ", "))
	}
	return files, nil
}

// Run ingests every supported document in dir and returns the number of
// chunks stored.
func (p *Pipeline) Run(ctx context.Context, dir string) (int, error) {
	files, err := ListDocuments(dir)
	if err != nil {
		return 0, err
	}
	log.Info().Int("files", len(files)).Str("dir", dir).Msg("Found documents to ingest")

	var allChunks []models.Chunk
	for _, file := range files {
		units, err := parser.Parse(file)
		if err != nil {
			return 0, fmt.Errorf("parsing %s: %w", filepath.Base(file), err)
		}
		chunks, err := p.splitter.SplitUnits(file, units)
		if err != nil {
			return 0, fmt.Errorf("splitting %s: %w", filepath.Base(file), err)
		}
		log.Info().Str("file", filepath.Base(file)).Int("units", len(units)).Int("chunks", len(chunks)).Msg("Parsed document")
		allChunks = append(allChunks, chunks...)
	}
	if len(allChunks) == 0 {
		return 0, fmt.Errorf("documents in %q produced no text chunks", dir)
	}

	stored := 0
	for start := 0; start < len(allChunks); start += p.batchSize {
		end := start + p.batchSize
		if end > len(allChunks) {
			end = len(allChunks)
		}
		batch := allChunks[start:end]
		if err := p.embedAndStore(ctx, batch); err != nil {
			return stored, err
		}
		stored += len(batch)
		log.Info().Int("stored", stored).Int("total", len(allChunks)).Msg("Indexed batch")
	}
	return stored, nil
}

func (p *Pipeline) embedAndStore(ctx context.Context, batch []models.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))
	}
	docs := make([]models.ChunkEmbedding, len(batch))
	for i, c := range batch {
		docs[i] = models.ChunkEmbedding{
			Content:        c.Content,
			Embedding:      vectors[i],
			SourceFilename: c.SourceFilename,
			PageNumber:     c.PageNumber,
			ChunkID:        c.ChunkID,
		}
	}
	if err := p.store.Add(ctx, docs); err != nil {
		return fmt.Errorf("storing batch: %w", err)
	}
	return nil
}
