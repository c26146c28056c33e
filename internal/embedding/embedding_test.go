package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leximini/internal/config"
)

// unreachable is a closed local address so the ollama candidates fail fast.
const unreachable = "http://127.0.0.1:1"

func TestFixedEmbedderReturnsConstantVectors(t *testing.T) {
	emb := NewFixedEmbedder(8)
	ctx := context.Background()

	a, err := emb.EmbedQuery(ctx, "what is section 302?")
	require.NoError(t, err)
	b, err := emb.EmbedQuery(ctx, "a completely different text")
	require.NoError(t, err)

	require.Len(t, a, 8)
	assert.Equal(t, a, b, "the stub returns the same vector for every input")

	docs, err := emb.EmbedDocuments(ctx, []string{"one", "two", "three"})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for _, d := range docs {
		assert.Equal(t, a, d)
	}
}

func TestBackendFallsThroughToDegradedStub(t *testing.T) {
	cfg := &config.EmbeddingConfig{
		Model:         "all-minilm",
		FallbackModel: "nomic-embed-text",
		OllamaBaseURL: unreachable,
	}

	backend, err := NewBackend(context.Background(), cfg)
	require.NotNil(t, backend)

	assert.True(t, backend.Degraded)
	assert.Error(t, err, "the aggregate of the failed candidates is reported")

	vec, embErr := backend.EmbedQuery(context.Background(), "still alive")
	require.NoError(t, embErr)
	assert.NotEmpty(t, vec)
}

func TestBackendSettlesOnRemoteAPIWhenLocalModelsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		n := len(req.Input)
		if n == 0 {
			n = 1
		}
		type item struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		resp := struct {
			Object string `json:"object"`
			Data   []item `json:"data"`
			Model  string `json:"model"`
		}{Object: "list", Model: "text-embedding-3-small"}
		for i := 0; i < n; i++ {
			resp.Data = append(resp.Data, item{Object: "embedding", Index: i, Embedding: []float32{0.1, 0.2, 0.3}})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg := &config.EmbeddingConfig{
		Model:         "all-minilm",
		FallbackModel: "nomic-embed-text",
		OllamaBaseURL: unreachable,
		OpenAIKey:     "test-key",
		OpenAIBaseURL: srv.URL,
	}

	backend, err := NewBackend(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.Degraded)
	assert.Contains(t, backend.Name, "openai")
}
