package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"leximini/internal/models"
	"leximini/internal/vectorstore"
)

// Document is one stored chunk row with its pgvector embedding.
type Document struct {
	bun.BaseModel  `bun:"table:documents,alias:d"`
	ID             int64     `bun:"id,pk,autoincrement"`
	Content        string    `bun:"content,notnull"`
	Embedding      []float32 `bun:"embedding,notnull,type:vector(384)"`
	SourceFilename string    `bun:"source_filename,notnull"`
	PageNumber     int       `bun:"page_number,notnull"`
	ChunkID        int       `bun:"chunk_id,notnull"`
}

// Store is a Postgres/pgvector-backed vector store, an alternative to the
// default file-based backend for deployments that already run Postgres.
type Store struct {
	db *bun.DB
}

func Connect(dsn, password string, debug bool) (*Store, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(password)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: db}, nil
}

func (s *Store) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Add(ctx context.Context, docs []models.ChunkEmbedding) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]Document, len(docs))
	for i, d := range docs {
		rows[i] = Document{
			Content:        d.Content,
			Embedding:      d.Embedding,
			SourceFilename: d.SourceFilename,
			PageNumber:     d.PageNumber,
			ChunkID:        d.ChunkID,
		}
	}
	_, err := s.db.NewInsert().Model(&rows).Exec(ctx)
	return err
}

func (s *Store) Search(ctx context.Context, queryEmbedding []float32, k int) ([]vectorstore.SearchResult, error) {
	var rows []Document
	err := s.db.NewSelect().
		Model(&rows).
		Column("content", "source_filename", "page_number").
		OrderExpr("embedding <-> ?", queryEmbedding).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]vectorstore.SearchResult, len(rows))
	for i, r := range rows {
		out[i] = vectorstore.SearchResult{
			Content:        r.Content,
			SourceFilename: r.SourceFilename,
			PageNumber:     r.PageNumber,
		}
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*Document)(nil)).Count(ctx)
}

// Drop removes the documents table, used before a clean re-ingestion.
func (s *Store) Drop(ctx context.Context) error {
	_, err := s.db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}
