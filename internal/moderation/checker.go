package moderation

import (
	"context"
	"log"
	"strings"
	"time"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/observability"
)

// Decision is the outcome of one moderation check.
type Decision struct {
	Safe    bool
	Stage   domain.ModerationStage
	ScanKey string // normalized scan text, empty for StageEmpty
}

// CheckerOptions configures a Checker. Nil fields get defaults, except
// Classifier: without one every limiter-admitted check fails closed.
type CheckerOptions struct {
	Gate       *LocalGate
	Cache      Cache
	Limiter    *RateLimiter
	Classifier Classifier
	Logger     *log.Logger
	Now        func() time.Time
}

// Checker runs the full moderation pipeline for a token.
// It is safe for concurrent use.
type Checker struct {
	gate       *LocalGate
	cache      Cache
	limiter    *RateLimiter
	classifier Classifier
	logger     *log.Logger
	now        func() time.Time
}

// NewChecker creates a Checker.
func NewChecker(opts CheckerOptions) *Checker {
	c := &Checker{
		gate:       opts.Gate,
		cache:      opts.Cache,
		limiter:    opts.Limiter,
		classifier: opts.Classifier,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if c.gate == nil {
		c.gate = DefaultLocalGate()
	}
	if c.cache == nil {
		c.cache = NewMemoryCache(DefaultCacheCapacity, DefaultCacheTTL)
	}
	if c.limiter == nil {
		c.limiter = NewRateLimiter(DefaultMinInterval)
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Gate returns the checker's local gate.
func (c *Checker) Gate() *LocalGate {
	return c.gate
}

// ScanText joins the token's display fields and the metadata's free-text
// fields, skipping empty values.
func ScanText(token domain.TokenEvent, meta *domain.TokenMetadata) string {
	fields := []string{token.Name, token.Symbol, token.Description}
	if meta != nil {
		fields = append(fields, meta.Description, meta.Website, meta.CreatedOn)
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}

// IsSafe reports whether the token may be displayed as-is.
func (c *Checker) IsSafe(ctx context.Context, token domain.TokenEvent, meta *domain.TokenMetadata) bool {
	return c.Check(ctx, token, meta).Safe
}

// Check runs the pipeline: local gate, cache, rate limiter, remote classifier.
// The token is never modified.
func (c *Checker) Check(ctx context.Context, token domain.TokenEvent, meta *domain.TokenMetadata) Decision {
	d := c.decide(ctx, ScanText(token, meta))
	observability.RecordModeration(string(d.Stage), d.Safe)
	return d
}

// CheckText runs the pipeline over raw text.
func (c *Checker) CheckText(ctx context.Context, text string) Decision {
	d := c.decide(ctx, strings.TrimSpace(text))
	observability.RecordModeration(string(d.Stage), d.Safe)
	return d
}

func (c *Checker) decide(ctx context.Context, text string) Decision {
	if text == "" {
		return Decision{Safe: true, Stage: domain.StageEmpty}
	}

	key := Normalize(text)
	if key == "" {
		return Decision{Safe: true, Stage: domain.StageEmpty}
	}
	if !c.gate.LocalSafe(key) {
		return Decision{Safe: false, Stage: domain.StageLocal, ScanKey: key}
	}

	if safe, ok := c.cache.Get(ctx, key); ok {
		return Decision{Safe: safe, Stage: domain.StageCache, ScanKey: key}
	}

	if !c.limiter.Allow(c.now()) {
		// local gate already passed
		return Decision{Safe: true, Stage: domain.StageRateLimited, ScanKey: key}
	}

	if c.classifier == nil {
		return Decision{Safe: false, Stage: domain.StageRemoteError, ScanKey: key}
	}

	start := time.Now()
	safe, err := c.classifier.Classify(ctx, key)
	observability.RecordRemoteLatency(time.Since(start).Seconds())
	if err != nil {
		c.logger.Printf("[moderation] remote check failed, blocking: %v", err)
		return Decision{Safe: false, Stage: domain.StageRemoteError, ScanKey: key}
	}

	c.cache.Set(ctx, key, safe)
	return Decision{Safe: safe, Stage: domain.StageRemote, ScanKey: key}
}
