// Package store opens the configured vector store backend. It is the single
// place where the store configuration is turned into a live vectorstore.Store,
// shared by the ingestion job and the chat binary.
package store

import (
	"context"
	"fmt"
	"os"

	"leximini/internal/config"
	"leximini/internal/vectorstore"
	"leximini/internal/vectorstore/postgres"
)

// Open returns the vector store selected by cfg.Store.Backend along with a
// cleanup function. With mustExist set, a chromem index path that does not
// exist on disk is a configuration error: the caller gets a remediation
// message and no store is constructed, so nothing is created at the path.
// The ingestion job passes mustExist=false and creates the index as needed.
func Open(ctx context.Context, cfg *config.Config, mustExist bool) (vectorstore.Store, func(), error) {
	switch cfg.Store.Backend {
	case "postgres":
		pg, err := postgres.Connect(cfg.Store.PostgresDSN, cfg.Store.PostgresKey, false)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Init(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, func() { pg.Close() }, nil
	default:
		if mustExist {
			if _, err := os.Stat(cfg.Store.Path); err != nil {
				return nil, nil, fmt.Errorf(
					"vector store not found at %q — run the ingestion job first:\n\n  go run ./cmd/ingest\n\nThis will process your PDF documents and create the vector store", cfg.Store.Path)
			}
		}
		s, err := vectorstore.NewChromemStore(cfg.Store.Path, cfg.Store.Collection)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}
