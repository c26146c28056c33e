package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"leximini/internal/config"
)

// Backend is a working embedding backend settled on by the fallback chain.
// Degraded marks the fixed-vector stub: the interface stays alive but
// similarity scores are meaningless, and the user must be told so.
type Backend struct {
	embeddings.Embedder
	Name     string
	Degraded bool
}

const probeTimeout = 10 * time.Second

// candidate is one constructor in the ordered fallback chain.
type candidate struct {
	name  string
	build func() (embeddings.Embedder, error)
}

// NewBackend tries each embedding provider in order and settles on the first
// whose construction and probe embedding both succeed: the configured local
// ollama model, then the alternate local model, then a remote
// OpenAI-compatible API when a credential is present, then the degraded
// fixed-vector stub. Every failure along the way is captured; the aggregate
// is returned alongside a degraded backend so callers can surface it.
func NewBackend(ctx context.Context, cfg *config.EmbeddingConfig) (*Backend, error) {
	candidates := []candidate{
		{
			name: fmt.Sprintf("ollama/%s", cfg.Model),
			build: func() (embeddings.Embedder, error) {
				return newOllamaEmbedder(cfg.OllamaBaseURL, cfg.Model)
			},
		},
		{
			name: fmt.Sprintf("ollama/%s", cfg.FallbackModel),
			build: func() (embeddings.Embedder, error) {
				return newOllamaEmbedder(cfg.OllamaBaseURL, cfg.FallbackModel)
			},
		},
	}
	if cfg.OpenAIKey != "" {
		candidates = append(candidates, candidate{
			name: "openai/text-embedding-3-small",
			build: func() (embeddings.Embedder, error) {
				return newOpenAIEmbedder(cfg.OpenAIKey, cfg.OpenAIBaseURL, "text-embedding-3-small")
			},
		})
	}

	var failures []error
	for _, c := range candidates {
		emb, err := c.build()
		if err == nil {
			err = probe(ctx, emb)
		}
		if err != nil {
			log.Warn().Err(err).Str("backend", c.name).Msg("Embedding backend unavailable")
			failures = append(failures, fmt.Errorf("%s: %w", c.name, err))
			continue
		}
		log.Info().Str("backend", c.name).Msg("Using embedding backend")
		return &Backend{Embedder: emb, Name: c.name}, nil
	}

	log.Warn().Msg("All embedding backends failed, falling back to fixed-vector demo mode")
	return &Backend{
		Embedder: NewFixedEmbedder(384),
		Name:     "fixed-vector (demo mode)",
		Degraded: true,
	}, errors.Join(failures...)
}

// probe embeds a short string to verify the backend actually answers,
// since client construction alone does not contact the server.
func probe(ctx context.Context, emb embeddings.Embedder) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	vec, err := emb.EmbedQuery(ctx, "ping")
	if err != nil {
		return err
	}
	if len(vec) == 0 {
		return errors.New("empty embedding returned")
	}
	return nil
}

func newOllamaEmbedder(baseURL, model string) (embeddings.Embedder, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(baseURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
}

func newOpenAIEmbedder(apiKey, baseURL, model string) (embeddings.Embedder, error) {
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithBaseURL(baseURL),
		openai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, err
	}
	return embeddings.NewEmbedder(llm, embeddings.WithStripNewLines(true))
}
