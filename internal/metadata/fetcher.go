// Package metadata fetches off-chain token metadata documents.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout = 5 * time.Second
	MaxBodyBytes   = 1 << 20
)

// Fetcher retrieves metadata JSON from token URIs. One attempt, no retries.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	logger  *log.Logger
}

// Option configures Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the per-fetch deadline.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher creates a Fetcher with a 5 second deadline.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{},
		timeout: DefaultTimeout,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the metadata at uri, or nil on any error, non-2xx status,
// timeout or undecodable body.
func (f *Fetcher) Fetch(ctx context.Context, uri string) *domain.TokenMetadata {
	start := time.Now()
	meta, err := f.fetch(ctx, uri)
	if err != nil {
		observability.RecordMetadataFetch("error", time.Since(start).Seconds())
		f.logger.Printf("[metadata] fetch %s: %v", uri, err)
		return nil
	}
	observability.RecordMetadataFetch("ok", time.Since(start).Seconds())
	return meta
}

func (f *Fetcher) fetch(ctx context.Context, uri string) (*domain.TokenMetadata, error) {
	if uri == "" {
		return nil, fmt.Errorf("empty uri")
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > MaxBodyBytes {
		return nil, fmt.Errorf("body exceeds %d bytes", MaxBodyBytes)
	}

	var meta domain.TokenMetadata
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &meta, nil
}
