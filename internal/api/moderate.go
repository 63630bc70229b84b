package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	openai "github.com/sashabaranov/go-openai"

	"solana-token-feed/internal/moderation"
	"solana-token-feed/internal/observability"
)

const maxModerateBody = 64 << 10

// Moderator classifies text with an upstream moderation model.
type Moderator interface {
	Moderate(ctx context.Context, text string) (openai.ModerationResponse, error)
}

// OpenAIModerator calls the OpenAI moderations endpoint with a server-side key.
type OpenAIModerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIModerator creates a moderator. An empty baseURL uses the public
// OpenAI API; an empty model lets the API pick its default.
func NewOpenAIModerator(apiKey, baseURL, model string) *OpenAIModerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIModerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Moderate sends text upstream.
func (m *OpenAIModerator) Moderate(ctx context.Context, text string) (openai.ModerationResponse, error) {
	resp, err := m.client.Moderations(ctx, openai.ModerationRequest{
		Input: text,
		Model: m.model,
	})
	if err != nil {
		return openai.ModerationResponse{}, fmt.Errorf("openai moderation: %w", err)
	}
	return resp, nil
}

// fallbackResponse is returned with a 500 when the upstream call fails.
// The status code is what makes callers fail closed.
var fallbackResponse = moderation.ModerateResponse{
	Results: []moderation.ModerateResult{{Flagged: false}},
}

func (s *Server) handleModerate(w http.ResponseWriter, r *http.Request) {
	if s.moderator == nil {
		s.proxyResult(w, http.StatusServiceUnavailable, map[string]string{"error": "moderation upstream not configured"})
		return
	}

	var req moderation.ModerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxModerateBody)).Decode(&req); err != nil {
		s.proxyResult(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	resp, err := s.moderator.Moderate(r.Context(), req.Text)
	if err != nil {
		s.logger.Printf("[api] moderation proxy error: %v", err)
		s.proxyResult(w, http.StatusInternalServerError, fallbackResponse)
		return
	}

	s.proxyResult(w, http.StatusOK, resp)
}

func (s *Server) proxyResult(w http.ResponseWriter, status int, body interface{}) {
	observability.RecordProxyRequest(strconv.Itoa(status))
	writeJSON(w, status, body)
}
