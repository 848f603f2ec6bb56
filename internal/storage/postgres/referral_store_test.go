package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
)

func TestReferralStore_Flow(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewReferralStore(pool)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	require.NoError(t, store.InsertCode(ctx, &domain.ReferralCode{Code: "ALICE234", Wallet: "alice", CreatedAt: now}))
	require.NoError(t, store.InsertCode(ctx, &domain.ReferralCode{Code: "BOBB2345", Wallet: "bob", CreatedAt: now}))
	assert.ErrorIs(t, store.InsertCode(ctx, &domain.ReferralCode{Code: "ALICE234", Wallet: "carol", CreatedAt: now}), storage.ErrDuplicateKey)
	assert.ErrorIs(t, store.InsertCode(ctx, &domain.ReferralCode{Code: "OTHER234", Wallet: "alice", CreatedAt: now}), storage.ErrDuplicateKey)

	code, err := store.GetCodeByWallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "ALICE234", code.Code)
	_, err = store.GetCode(ctx, "MISSING1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	refs := []*domain.Referral{
		{RefereeWallet: "r1", ReferrerWallet: "alice", Code: "ALICE234", CreatedAt: now},
		{RefereeWallet: "r2", ReferrerWallet: "alice", Code: "ALICE234", CreatedAt: now.Add(time.Second)},
		{RefereeWallet: "r3", ReferrerWallet: "bob", Code: "BOBB2345", CreatedAt: now},
	}
	for _, r := range refs {
		require.NoError(t, store.InsertReferral(ctx, r))
	}
	assert.ErrorIs(t, store.InsertReferral(ctx, refs[0]), storage.ErrDuplicateKey)
	assert.ErrorIs(t, store.InsertReferral(ctx, &domain.Referral{
		RefereeWallet: "r9", ReferrerWallet: "x", Code: "NOCODE99", CreatedAt: now,
	}), storage.ErrNotFound)

	listed, err := store.ListReferrals(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "r2", listed[0].RefereeWallet)

	byReferee, err := store.GetReferralByReferee(ctx, "r3")
	require.NoError(t, err)
	assert.Equal(t, "bob", byReferee.ReferrerWallet)

	require.NoError(t, store.AddVolume(ctx, "bob", decimal.NewFromInt(1000), decimal.NewFromInt(10)))
	require.NoError(t, store.AddVolume(ctx, "alice", decimal.RequireFromString("250.25"), decimal.RequireFromString("2.5025")))
	require.NoError(t, store.AddVolume(ctx, "alice", decimal.RequireFromString("0.75"), decimal.RequireFromString("0.0075")))

	stats, err := store.GetStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.ReferralCount)
	assert.Equal(t, "ALICE234", stats.Code)
	assert.True(t, decimal.NewFromInt(251).Equal(stats.TotalVolumeUSD), "volume %s", stats.TotalVolumeUSD)
	assert.True(t, decimal.RequireFromString("2.51").Equal(stats.RewardsUSD), "rewards %s", stats.RewardsUSD)

	empty, err := store.GetStats(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, empty.ReferralCount)
	assert.True(t, empty.TotalVolumeUSD.IsZero())

	board, err := store.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, "bob", board[0].Wallet)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "alice", board[1].Wallet)
	assert.Equal(t, 2, board[1].Rank)
}
