package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"leximini/internal/config"
	"leximini/internal/embedding"
	"leximini/internal/helper"
	"leximini/internal/ingest"
	"leximini/internal/parser"
	"leximini/internal/splitter"
	"leximini/internal/store"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	configPath := flag.String("config", configFilePath, "Path to the YAML config file")
	dryRun := flag.Bool("dry-run", false, "Parse and split only, do not embed or write the index")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	ctx := context.Background()
	log.Info().Str("dir", cfg.DataDirectory).Msg("Starting document ingestion")

	// Validate the source directory before touching the index path, so a
	// failed run never leaves a partial artifact behind.
	files, err := ingest.ListDocuments(cfg.DataDirectory)
	if err != nil {
		log.Error().Err(err).Msg("Ingestion failed")
		fmt.Fprintln(os.Stderr, "Add PDF files to the data directory, or set DATA_DIRECTORY to a different path.")
		os.Exit(1)
	}
	log.Info().Int("files", len(files)).Msg("Found documents")

	sp := splitter.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)

	if *dryRun {
		runDry(files, sp)
		return
	}

	backend, embErr := embedding.NewBackend(ctx, &cfg.Embedding)
	if backend.Degraded {
		// An index of constant vectors is worthless; refuse to write one.
		log.Fatal().Err(embErr).Msg("No working embedding backend; refusing to build a demo-mode index")
	}
	log.Info().Str("backend", backend.Name).Msg("Embedding backend ready")

	vs, cleanup, err := store.Open(ctx, cfg, false)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening vector store")
	}
	defer cleanup()

	pipeline := ingest.NewPipeline(backend, sp, vs, cfg.RAG.BatchSize)
	count, err := pipeline.Run(ctx, cfg.DataDirectory)
	if err != nil {
		log.Fatal().Err(err).Msg("Ingestion failed")
	}

	log.Info().Int("chunks", count).Str("path", cfg.Store.Path).Msg("Vector store saved")
	fmt.Printf("✅ Ingestion completed: %d chunks indexed at %s\n", count, cfg.Store.Path)
}

func runDry(files []string, sp *splitter.Splitter) {
	total := 0
	for _, file := range files {
		units, err := parser.Parse(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Error parsing document")
		}
		chunks, err := sp.SplitUnits(file, units)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("Error splitting document")
		}
		log.Info().Str("file", file).Int("units", len(units)).Int("chunks", len(chunks)).Msg("Dry run")
		if len(chunks) > 0 {
			helper.PrettyPrint(chunks[0])
		}
		total += len(chunks)
	}
	fmt.Printf("Dry run: %d chunks would be indexed\n", total)
}
