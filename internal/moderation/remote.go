package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultRemoteTimeout bounds one remote moderation request.
const DefaultRemoteTimeout = 10 * time.Second

// ErrEmptyResults is returned when the proxy answers without any result.
var ErrEmptyResults = errors.New("moderation response has no results")

// Classifier returns a remote verdict for text. Implementations report
// transport and protocol failures as errors; the caller decides the verdict.
type Classifier interface {
	Classify(ctx context.Context, text string) (safe bool, err error)
}

// ModerateRequest is the body accepted by the moderation proxy.
type ModerateRequest struct {
	Text string `json:"text"`
}

// ModerateResult is one entry of the proxy's response.
type ModerateResult struct {
	Flagged bool `json:"flagged"`
}

// ModerateResponse is the proxy's response body.
type ModerateResponse struct {
	Results []ModerateResult `json:"results"`
}

// RemoteClient calls the moderation proxy over HTTP. One attempt, no retries.
type RemoteClient struct {
	endpoint string
	client   *http.Client
}

// RemoteOption configures RemoteClient.
type RemoteOption func(*RemoteClient)

// WithRemoteTimeout sets the HTTP client timeout.
func WithRemoteTimeout(d time.Duration) RemoteOption {
	return func(c *RemoteClient) {
		c.client.Timeout = d
	}
}

// WithRemoteHTTPClient sets a custom http.Client.
func WithRemoteHTTPClient(client *http.Client) RemoteOption {
	return func(c *RemoteClient) {
		c.client = client
	}
}

// NewRemoteClient creates a client for the proxy at endpoint,
// e.g. http://localhost:8081/api/moderate.
func NewRemoteClient(endpoint string, opts ...RemoteOption) *RemoteClient {
	c := &RemoteClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: DefaultRemoteTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify posts text to the proxy. Any failure returns false with an error.
func (c *RemoteClient) Classify(ctx context.Context, text string) (bool, error) {
	body, err := json.Marshal(ModerateRequest{Text: text})
	if err != nil {
		return false, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return false, fmt.Errorf("moderation proxy status %d", resp.StatusCode)
	}

	var out ModerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Results) == 0 {
		return false, ErrEmptyResults
	}

	return !out.Results[0].Flagged, nil
}

var _ Classifier = (*RemoteClient)(nil)
