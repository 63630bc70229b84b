package storage

import (
	"context"

	"solana-token-feed/internal/domain"
)

// DecisionStore provides access to moderation_decisions storage.
// Decisions are append-only audit records.
type DecisionStore interface {
	// Insert adds a new decision. Returns ErrDuplicateKey if decision_id exists.
	Insert(ctx context.Context, d *domain.ModerationDecision) error

	// InsertBulk adds multiple decisions atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, decisions []*domain.ModerationDecision) error

	// GetByMint retrieves all decisions for a mint, ordered by decided_at DESC.
	GetByMint(ctx context.Context, mint string) ([]*domain.ModerationDecision, error)

	// GetByTimeRange retrieves decisions made within [start, end] (inclusive), ordered by decided_at ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.ModerationDecision, error)

	// CountByStage counts decisions made within [start, end] (inclusive) per stage.
	// Stages with no decisions are omitted.
	CountByStage(ctx context.Context, start, end int64) (map[domain.ModerationStage]int64, error)
}
