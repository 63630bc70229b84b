package memory

import (
	"context"
	"errors"
	"testing"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/storage"
)

func decision(id, mint string, stage domain.ModerationStage, safe bool, at int64) *domain.ModerationDecision {
	return &domain.ModerationDecision{
		DecisionID: id,
		Mint:       mint,
		Safe:       safe,
		Stage:      stage,
		ScanKey:    "scan " + id,
		DecidedAt:  at,
	}
}

func TestDecisionStore_InsertAndGetByMint(t *testing.T) {
	store := NewDecisionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, decision("d1", "mint1", domain.StageRemote, true, 1000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, decision("d2", "mint1", domain.StageLocal, false, 2000)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, decision("d3", "mint2", domain.StageCache, true, 1500)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	result, err := store.GetByMint(ctx, "mint1")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 decisions, got %d", len(result))
	}
	if result[0].DecisionID != "d2" || result[1].DecisionID != "d1" {
		t.Errorf("Expected newest first, got %s, %s", result[0].DecisionID, result[1].DecisionID)
	}
	if result[0].CreatedAt == 0 {
		t.Error("CreatedAt should be set on insert")
	}

	empty, err := store.GetByMint(ctx, "unknown")
	if err != nil {
		t.Fatalf("GetByMint failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no decisions, got %d", len(empty))
	}
}

func TestDecisionStore_InsertDuplicate(t *testing.T) {
	store := NewDecisionStore()
	ctx := context.Background()

	d := decision("d1", "mint1", domain.StageRemote, true, 1000)
	if err := store.Insert(ctx, d); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, d)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestDecisionStore_InsertInvalid(t *testing.T) {
	store := NewDecisionStore()
	ctx := context.Background()

	cases := []*domain.ModerationDecision{
		nil,
		decision("", "mint", domain.StageLocal, false, 1),
		decision("id", "", domain.StageLocal, false, 1),
		decision("id", "mint", domain.ModerationStage("bogus"), false, 1),
	}
	for i, d := range cases {
		if err := store.Insert(ctx, d); !errors.Is(err, storage.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestDecisionStore_InsertBulkAtomic(t *testing.T) {
	store := NewDecisionStore()
	ctx := context.Background()

	if err := store.Insert(ctx, decision("existing", "mint1", domain.StageRemote, true, 1)); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	batch := []*domain.ModerationDecision{
		decision("new1", "mint1", domain.StageRemote, true, 2),
		decision("existing", "mint1", domain.StageRemote, true, 3),
	}
	if err := store.InsertBulk(ctx, batch); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("Expected ErrDuplicateKey, got %v", err)
	}

	result, _ := store.GetByMint(ctx, "mint1")
	if len(result) != 1 {
		t.Errorf("Failed batch must not insert anything, got %d decisions", len(result))
	}

	intra := []*domain.ModerationDecision{
		decision("dup", "mint2", domain.StageLocal, false, 1),
		decision("dup", "mint2", domain.StageLocal, false, 1),
	}
	if err := store.InsertBulk(ctx, intra); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey for intra-batch duplicate, got %v", err)
	}

	if err := store.InsertBulk(ctx, nil); err != nil {
		t.Errorf("Empty batch should succeed, got %v", err)
	}
}

func TestDecisionStore_TimeRangeAndCounts(t *testing.T) {
	store := NewDecisionStore()
	ctx := context.Background()

	batch := []*domain.ModerationDecision{
		decision("a", "m1", domain.StageLocal, false, 100),
		decision("b", "m2", domain.StageRemote, true, 200),
		decision("c", "m3", domain.StageRemote, false, 300),
		decision("d", "m4", domain.StageRateLimited, true, 400),
	}
	if err := store.InsertBulk(ctx, batch); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByTimeRange(ctx, 200, 300)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(result) != 2 || result[0].DecisionID != "b" || result[1].DecisionID != "c" {
		t.Errorf("Unexpected range result: %+v", result)
	}

	counts, err := store.CountByStage(ctx, 0, 1000)
	if err != nil {
		t.Fatalf("CountByStage failed: %v", err)
	}
	if counts[domain.StageRemote] != 2 || counts[domain.StageLocal] != 1 || counts[domain.StageRateLimited] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}
	if _, ok := counts[domain.StageCache]; ok {
		t.Error("Stages without decisions should be omitted")
	}
}

func TestDecisionStore_ReturnsCopies(t *testing.T) {
	store := NewDecisionStore()
	ctx := context.Background()

	d := decision("d1", "mint1", domain.StageRemote, true, 1000)
	if err := store.Insert(ctx, d); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	d.Safe = false

	result, _ := store.GetByMint(ctx, "mint1")
	result[0].ScanKey = "mutated"

	again, _ := store.GetByMint(ctx, "mint1")
	if !again[0].Safe || again[0].ScanKey != "scan d1" {
		t.Errorf("Store must keep its own copies, got %+v", again[0])
	}
}
