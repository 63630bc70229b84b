package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-token-feed/internal/domain"
	"solana-token-feed/internal/storage"
	"solana-token-feed/internal/storage/memory"
)

func TestFanoutDecisionStore(t *testing.T) {
	ctx := context.Background()
	primary := memory.NewDecisionStore()
	secondary := memory.NewDecisionStore()
	store := storage.NewFanoutDecisionStore(primary, secondary)

	d := &domain.ModerationDecision{DecisionID: "d1", Mint: "m1", Safe: true, Stage: domain.StageRemote, DecidedAt: 10}
	require.NoError(t, store.Insert(ctx, d))

	fromPrimary, err := primary.GetByMint(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, fromPrimary, 1)

	fromSecondary, err := secondary.GetByMint(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, fromSecondary, 1)

	err = store.Insert(ctx, d)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))

	require.NoError(t, store.InsertBulk(ctx, []*domain.ModerationDecision{
		{DecisionID: "d2", Mint: "m2", Stage: domain.StageLocal, DecidedAt: 20},
	}))

	counts, err := store.CountByStage(ctx, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, map[domain.ModerationStage]int64{domain.StageRemote: 1, domain.StageLocal: 1}, counts)

	byRange, err := store.GetByTimeRange(ctx, 15, 25)
	require.NoError(t, err)
	require.Len(t, byRange, 1)
	assert.Equal(t, "d2", byRange[0].DecisionID)
}

func TestFanoutDecisionStore_SecondaryDuplicateIgnored(t *testing.T) {
	ctx := context.Background()
	primary := memory.NewDecisionStore()
	secondary := memory.NewDecisionStore()

	d := &domain.ModerationDecision{DecisionID: "d1", Mint: "m1", Stage: domain.StageCache, DecidedAt: 1}
	require.NoError(t, secondary.Insert(ctx, d))

	store := storage.NewFanoutDecisionStore(primary, secondary)
	assert.NoError(t, store.Insert(ctx, d))
}
