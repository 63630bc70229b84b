package storage

import (
	"context"
	"errors"

	"solana-token-feed/internal/domain"
)

// FanoutDecisionStore writes to every backend and reads from the first.
// A typical setup pairs PostgreSQL (lookups) with ClickHouse (analytics).
type FanoutDecisionStore struct {
	stores []DecisionStore
}

// NewFanoutDecisionStore creates a store over primary and any secondaries.
func NewFanoutDecisionStore(primary DecisionStore, secondaries ...DecisionStore) *FanoutDecisionStore {
	return &FanoutDecisionStore{stores: append([]DecisionStore{primary}, secondaries...)}
}

// Insert writes d to all backends. A duplicate in the primary stops the write.
func (s *FanoutDecisionStore) Insert(ctx context.Context, d *domain.ModerationDecision) error {
	if err := s.stores[0].Insert(ctx, d); err != nil {
		return err
	}
	var errs []error
	for _, st := range s.stores[1:] {
		if err := st.Insert(ctx, d); err != nil && !errors.Is(err, ErrDuplicateKey) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InsertBulk writes decisions to all backends.
func (s *FanoutDecisionStore) InsertBulk(ctx context.Context, decisions []*domain.ModerationDecision) error {
	if err := s.stores[0].InsertBulk(ctx, decisions); err != nil {
		return err
	}
	var errs []error
	for _, st := range s.stores[1:] {
		if err := st.InsertBulk(ctx, decisions); err != nil && !errors.Is(err, ErrDuplicateKey) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GetByMint reads from the primary.
func (s *FanoutDecisionStore) GetByMint(ctx context.Context, mint string) ([]*domain.ModerationDecision, error) {
	return s.stores[0].GetByMint(ctx, mint)
}

// GetByTimeRange reads from the primary.
func (s *FanoutDecisionStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.ModerationDecision, error) {
	return s.stores[0].GetByTimeRange(ctx, start, end)
}

// CountByStage reads from the last backend, the analytics store when one is configured.
func (s *FanoutDecisionStore) CountByStage(ctx context.Context, start, end int64) (map[domain.ModerationStage]int64, error) {
	return s.stores[len(s.stores)-1].CountByStage(ctx, start, end)
}

var _ DecisionStore = (*FanoutDecisionStore)(nil)
