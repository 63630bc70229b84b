package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/storage"
)

// DecisionStore is an in-memory implementation of storage.DecisionStore.
type DecisionStore struct {
	mu     sync.RWMutex
	byID   map[string]*domain.ModerationDecision
	byMint map[string][]*domain.ModerationDecision
	now    func() time.Time
}

// NewDecisionStore creates a new in-memory decision store.
func NewDecisionStore() *DecisionStore {
	return &DecisionStore{
		byID:   make(map[string]*domain.ModerationDecision),
		byMint: make(map[string][]*domain.ModerationDecision),
		now:    time.Now,
	}
}

// Insert adds a new decision. Returns ErrDuplicateKey if decision_id exists.
func (s *DecisionStore) Insert(_ context.Context, d *domain.ModerationDecision) error {
	if err := validate(d); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[d.DecisionID]; exists {
		return storage.ErrDuplicateKey
	}
	s.put(d)
	return nil
}

// InsertBulk adds multiple decisions atomically. Fails entire batch on any duplicate.
func (s *DecisionStore) InsertBulk(_ context.Context, decisions []*domain.ModerationDecision) error {
	if len(decisions) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(decisions))
	for _, d := range decisions {
		if err := validate(d); err != nil {
			return err
		}
		if _, exists := s.byID[d.DecisionID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := seen[d.DecisionID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[d.DecisionID] = struct{}{}
	}

	for _, d := range decisions {
		s.put(d)
	}
	return nil
}

// put stores a copy of d. Caller holds the write lock.
func (s *DecisionStore) put(d *domain.ModerationDecision) {
	decisionCopy := *d
	if decisionCopy.CreatedAt == 0 {
		decisionCopy.CreatedAt = s.now().UnixMilli()
	}
	s.byID[d.DecisionID] = &decisionCopy
	s.byMint[d.Mint] = append(s.byMint[d.Mint], &decisionCopy)
}

// GetByMint retrieves all decisions for a mint, ordered by decided_at DESC.
func (s *DecisionStore) GetByMint(_ context.Context, mint string) ([]*domain.ModerationDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := copyDecisions(s.byMint[mint])
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DecidedAt > result[j].DecidedAt
	})
	return result, nil
}

// GetByTimeRange retrieves decisions within [start, end], ordered by decided_at ASC.
func (s *DecisionStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.ModerationDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.ModerationDecision
	for _, d := range s.byID {
		if d.DecidedAt >= start && d.DecidedAt <= end {
			decisionCopy := *d
			result = append(result, &decisionCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].DecidedAt != result[j].DecidedAt {
			return result[i].DecidedAt < result[j].DecidedAt
		}
		return result[i].DecisionID < result[j].DecisionID
	})
	return result, nil
}

// CountByStage counts decisions within [start, end] per stage.
func (s *DecisionStore) CountByStage(_ context.Context, start, end int64) (map[domain.ModerationStage]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.ModerationStage]int64)
	for _, d := range s.byID {
		if d.DecidedAt >= start && d.DecidedAt <= end {
			counts[d.Stage]++
		}
	}
	return counts, nil
}

func validate(d *domain.ModerationDecision) error {
	if d == nil || d.DecisionID == "" || d.Mint == "" || !d.Stage.IsValid() {
		return storage.ErrInvalidInput
	}
	return nil
}

func copyDecisions(in []*domain.ModerationDecision) []*domain.ModerationDecision {
	out := make([]*domain.ModerationDecision, len(in))
	for i, d := range in {
		decisionCopy := *d
		out[i] = &decisionCopy
	}
	return out
}

var _ storage.DecisionStore = (*DecisionStore)(nil)
