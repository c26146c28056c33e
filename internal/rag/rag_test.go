package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leximini/internal/config"
	"leximini/internal/embedding"
	"leximini/internal/models"
	"leximini/internal/session"
	"leximini/internal/vectorstore"
)

// fakeStore returns a fixed set of chunks for every search.
type fakeStore struct {
	results []vectorstore.SearchResult
	err     error
}

func (f *fakeStore) Add(_ context.Context, _ []models.ChunkEmbedding) error { return nil }

func (f *fakeStore) Search(_ context.Context, _ []float32, k int) ([]vectorstore.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if k > len(f.results) {
		k = len(f.results)
	}
	return f.results[:k], nil
}

func (f *fakeStore) Count(_ context.Context) (int, error) { return len(f.results), nil }

// chatRecorder is a fake OpenAI-compatible streaming chat endpoint that
// captures every prompt it receives.
type chatRecorder struct {
	mu      sync.Mutex
	prompts []string
	status  int
	answer  string
}

func (c *chatRecorder) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.Unmarshal(body, &req)
		c.mu.Lock()
		if len(req.Messages) > 0 {
			c.prompts = append(c.prompts, req.Messages[0].Content)
		}
		c.mu.Unlock()

		if c.status != 0 {
			w.WriteHeader(c.status)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, word := range strings.Fields(c.answer) {
			chunk := fmt.Sprintf(`{"choices":[{"delta":{"content":"%s "}}]}`, word)
			fmt.Fprintf(w, "data: %s\n\n", chunk)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func (c *chatRecorder) lastPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.prompts) == 0 {
		return ""
	}
	return c.prompts[len(c.prompts)-1]
}

func newTestEngine(t *testing.T, store vectorstore.Store, baseURL string) *Engine {
	t.Helper()
	cfg := &config.Config{
		Groq: config.GroqConfig{
			APIKey:  "test-key",
			Model:   "llama-3.1-8b-instant",
			BaseURL: baseURL,
		},
		RAG: config.RAGConfig{TopK: 4, MemoryWindow: 2},
	}
	backend := &embedding.Backend{
		Embedder: embedding.NewFixedEmbedder(8),
		Name:     "fixed-vector (demo mode)",
		Degraded: true,
	}
	return NewEngine(store, backend, cfg)
}

func TestAnswerAppendsDisclaimerVerbatim(t *testing.T) {
	rec := &chatRecorder{answer: "Section 302 prescribes punishment for murder."}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	store := &fakeStore{results: []vectorstore.SearchResult{
		{Content: "Section 302: punishment for murder.", SourceFilename: "ipc.pdf", PageNumber: 12},
	}}
	engine := newTestEngine(t, store, srv.URL)
	sess := session.New(2)

	resp, err := engine.Answer(context.Background(), sess, "What is Section 302?")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(resp.Content, models.Disclaimer),
		"every answer must end with the exact disclaimer text")
	assert.Contains(t, resp.Content, "Section 302")
	assert.Equal(t, "ipc.pdf (p. 12)", resp.Source)
}

func TestAnswerPromptContainsContextHistoryAndQuestion(t *testing.T) {
	rec := &chatRecorder{answer: "ok"}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	store := &fakeStore{results: []vectorstore.SearchResult{
		{Content: "Whoever commits murder shall be punished.", SourceFilename: "ipc.pdf", PageNumber: 1},
	}}
	engine := newTestEngine(t, store, srv.URL)

	sess := session.New(2)
	sess.Remember("earlier question", "earlier answer")

	_, err := engine.Answer(context.Background(), sess, "What is Section 302?")
	require.NoError(t, err)

	prompt := rec.lastPrompt()
	assert.Contains(t, prompt, "Whoever commits murder shall be punished.")
	assert.Contains(t, prompt, "earlier question")
	assert.Contains(t, prompt, "earlier answer")
	assert.Contains(t, prompt, "QUESTION: What is Section 302?")
	assert.NotContains(t, prompt, "user: What is Section 302?",
		"the question being asked must not leak into its own chat history")
}

func TestAnswerAfterResetCarriesNoHistory(t *testing.T) {
	rec := &chatRecorder{answer: "ok"}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	store := &fakeStore{results: []vectorstore.SearchResult{
		{Content: "some context", SourceFilename: "a.pdf", PageNumber: 1},
	}}
	engine := newTestEngine(t, store, srv.URL)

	sess := session.New(2)
	sess.Remember("leaked question", "leaked answer")
	sess.Reset()

	_, err := engine.Answer(context.Background(), sess, "fresh question")
	require.NoError(t, err)

	prompt := rec.lastPrompt()
	assert.NotContains(t, prompt, "leaked question")
	assert.NotContains(t, prompt, "leaked answer")
	assert.Contains(t, prompt, "CHAT HISTORY: \n")
}

func TestAnswerSurfacesGenerationFailure(t *testing.T) {
	rec := &chatRecorder{status: http.StatusInternalServerError}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	store := &fakeStore{results: []vectorstore.SearchResult{
		{Content: "context", SourceFilename: "a.pdf", PageNumber: 1},
	}}
	engine := newTestEngine(t, store, srv.URL)
	sess := session.New(2)
	sess.AppendUser("prior")
	sess.AppendAssistant("turns")

	_, err := engine.Answer(context.Background(), sess, "will fail")
	require.Error(t, err)

	// a failed turn leaves the stored transcript intact and never enters memory
	assert.Len(t, sess.Transcript(), 2)
	assert.NotContains(t, sess.History(), "will fail")
}

func TestAnswerSurfacesSearchFailure(t *testing.T) {
	rec := &chatRecorder{answer: "should never be called"}
	srv := httptest.NewServer(rec.handler())
	defer srv.Close()

	store := &fakeStore{err: fmt.Errorf("collection is empty")}
	engine := newTestEngine(t, store, srv.URL)

	_, err := engine.Answer(context.Background(), session.New(2), "anything")
	require.Error(t, err)
	assert.Empty(t, rec.lastPrompt(), "no generation call is made when retrieval fails")
}

func TestDegradedReflectsBackend(t *testing.T) {
	engine := newTestEngine(t, &fakeStore{}, "http://unused")
	assert.True(t, engine.Degraded())
}
