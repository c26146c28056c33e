package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"leximini/internal/config"
	"leximini/internal/embedding"
	"leximini/internal/rag"
	"leximini/internal/session"
	"leximini/internal/store"
	"leximini/internal/tui"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	_ = godotenv.Load()

	configPath := flag.String("config", configFilePath, "Path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	if cfg.Groq.APIKey == "" {
		fmt.Fprintln(os.Stderr, `🔑 GROQ_API_KEY not found!

Please set up your API key:
  1. Create a .env file in the project root
  2. Add: GROQ_API_KEY=your_actual_api_key
  3. Get your key from: https://console.groq.com/keys

Or set the environment variable: export GROQ_API_KEY=your_key`)
		os.Exit(1)
	}

	ctx := context.Background()
	vs, cleanup, err := store.Open(ctx, cfg, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	backend, embErr := embedding.NewBackend(ctx, &cfg.Embedding)
	if backend.Degraded {
		log.Warn().Err(embErr).Msg("Running with fixed-vector demo embeddings; answers are not grounded")
	}

	engine := rag.NewEngine(vs, backend, cfg)
	sess := session.New(cfg.RAG.MemoryWindow)

	m := tui.New(engine, sess)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatal().Err(err).Msg("Chat interface exited with error")
	}
}
