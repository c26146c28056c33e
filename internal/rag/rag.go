package rag

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"leximini/internal/config"
	"leximini/internal/embedding"
	"leximini/internal/models"
	"leximini/internal/session"
	"leximini/internal/vectorstore"
)

// Engine answers one question at a time: embed the question, retrieve the
// nearest chunks, assemble the instruction prompt with the session's memory
// window, call the hosted completion endpoint, and decorate the answer with
// the fixed disclaimer. A failed generation is fatal for that turn only.
type Engine struct {
	store    vectorstore.Store
	embedder *embedding.Backend
	cfg      *config.Config
	client   *http.Client
}

func NewEngine(store vectorstore.Store, embedder *embedding.Backend, cfg *config.Config) *Engine {
	return &Engine{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Degraded reports whether the engine runs on the fixed-vector demo
// embedder, in which case retrieval is not semantically meaningful.
func (e *Engine) Degraded() bool { return e.embedder.Degraded }

// Answer processes a single question against the loaded index and the given
// session. It does not mutate the session; the caller appends turns once the
// answer has been delivered.
func (e *Engine) Answer(ctx context.Context, sess *session.Session, question string) (*models.PromptResponse, error) {
	queryEmbedding, err := e.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	results, err := e.store.Search(ctx, queryEmbedding, e.cfg.RAG.TopK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	var contextText strings.Builder
	sources := make(map[string]struct{})
	var sourceList []string
	for _, r := range results {
		contextText.WriteString(r.Content + "\n\n")
		key := fmt.Sprintf("%s (p. %d)", r.SourceFilename, r.PageNumber)
		if _, seen := sources[key]; !seen {
			sources[key] = struct{}{}
			sourceList = append(sourceList, key)
		}
	}

	prompt := fmt.Sprintf(models.QAPromptTemplate, contextText.String(), sess.History(), question)
	log.Debug().Int("retrieved", len(results)).Int("prompt_len", len(prompt)).Msg("Assembled prompt")

	answer, err := e.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &models.PromptResponse{
		Query:   question,
		Source:  strings.Join(sourceList, ", "),
		Content: answer + models.Disclaimer,
	}, nil
}

// complete streams a chat completion from the OpenAI-compatible endpoint and
// returns the concatenated answer.
func (e *Engine) complete(ctx context.Context, prompt string) (string, error) {
	payload := struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Stream bool `json:"stream"`
	}{
		Model: e.cfg.Groq.Model,
		Messages: []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		}{
			{Role: "user", Content: prompt},
		},
		Stream: true,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Groq.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+e.cfg.Groq.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("completion request failed: %d, %s", resp.StatusCode, string(body))
	}

	var response strings.Builder
	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if line == "data: [DONE]" {
			break
		}
		if strings.HasPrefix(line, "data: ") {
			data := strings.TrimPrefix(line, "data: ")
			var chunk struct {
				Choices []struct {
					Delta struct {
						Content string `json:"content"`
					} `json:"delta"`
				} `json:"choices"`
			}
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				response.WriteString(chunk.Choices[0].Delta.Content)
			}
		}
	}

	return response.String(), nil
}
