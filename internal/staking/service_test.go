package staking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defi-hub/internal/chain"
	"defi-hub/internal/domain"
	"defi-hub/internal/storage"
	"defi-hub/internal/storage/memory"
)

const (
	wethLower = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	usdcMint  = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func newService(t *testing.T) *Service {
	t.Helper()
	reg, err := chain.DefaultRegistry()
	require.NoError(t, err)
	return NewService(memory.NewStakingPoolStore(), reg)
}

func evmPool(apr int64) *domain.StakingPool {
	return &domain.StakingPool{
		Name:            gofakeit.Company(),
		Chain:           "Ethereum",
		ContractAddress: fmt.Sprintf("0x%040x", gofakeit.Uint64()),
		TokenAddress:    wethLower,
		TokenSymbol:     "weth",
		APR:             decimal.NewFromInt(apr),
		LockDays:        30,
		MinStake:        decimal.NewFromFloat(0.1),
		MaxCapacity:     decimal.NewFromInt(1000),
		StartDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreate_Normalizes(t *testing.T) {
	svc := newService(t)

	p, err := svc.Create(context.Background(), evmPool(12))
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "ethereum", p.Chain)
	assert.Equal(t, "WETH", p.TokenSymbol)
	assert.Equal(t, domain.PoolStatusActive, p.Status)
	assert.True(t, strings.EqualFold(wethLower, p.TokenAddress))
	assert.NotEqual(t, wethLower, p.TokenAddress, "address should be checksummed")
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	unknown := evmPool(5)
	unknown.Chain = "dogechain"
	_, err := svc.Create(ctx, unknown)
	assert.True(t, errors.Is(err, chain.ErrUnknownChain))

	wrongFamily := evmPool(5)
	wrongFamily.Chain = "solana"
	_, err = svc.Create(ctx, wrongFamily)
	assert.True(t, errors.Is(err, chain.ErrInvalidAddress))

	overCap := evmPool(5)
	overCap.TotalStaked = decimal.NewFromInt(2000)
	_, err = svc.Create(ctx, overCap)
	assert.True(t, errors.Is(err, domain.ErrInvalid))
}

func TestCreate_DuplicateContract(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	first := evmPool(5)
	_, err := svc.Create(ctx, first)
	require.NoError(t, err)

	dup := evmPool(7)
	dup.ContractAddress = strings.ToLower(first.ContractAddress)
	_, err = svc.Create(ctx, dup)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey))
}

func TestUpdate_KeepsCreatedAt(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, evmPool(5))
	require.NoError(t, err)
	created := p.CreatedAt

	svc.now = func() time.Time { return created.Add(time.Hour) }
	change := evmPool(9)
	change.Status = domain.PoolStatusPaused
	updated, err := svc.Update(ctx, p.ID, change)
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ID)
	assert.True(t, updated.CreatedAt.Equal(created))
	assert.True(t, updated.UpdatedAt.After(created))

	_, err = svc.Update(ctx, "missing", evmPool(1))
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestUpdate_EmptyStatusKeepsStored(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	paused := evmPool(5)
	paused.Status = domain.PoolStatusPaused
	p, err := svc.Create(ctx, paused)
	require.NoError(t, err)

	change := evmPool(7)
	require.Empty(t, change.Status)
	updated, err := svc.Update(ctx, p.ID, change)
	require.NoError(t, err)
	assert.Equal(t, domain.PoolStatusPaused, updated.Status)
	assert.Equal(t, "7", updated.APR.String())

	_, err = svc.Update(ctx, "missing", evmPool(1))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestList_Order(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	low, err := svc.Create(ctx, evmPool(3))
	require.NoError(t, err)
	high, err := svc.Create(ctx, evmPool(20))
	require.NoError(t, err)

	paused := evmPool(50)
	paused.Status = domain.PoolStatusPaused
	_, err = svc.Create(ctx, paused)
	require.NoError(t, err)

	sol := &domain.StakingPool{
		Name:            "SOL vault",
		Chain:           "solana",
		ContractAddress: usdcMint,
		TokenAddress:    usdcMint,
		TokenSymbol:     "USDC",
		APR:             decimal.NewFromInt(8),
		StartDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err = svc.Create(ctx, sol)
	require.NoError(t, err)

	pools, err := svc.List(ctx, storage.StakingPoolFilter{Chain: "ethereum"})
	require.NoError(t, err)
	require.Len(t, pools, 3)
	assert.Equal(t, high.ID, pools[0].ID)
	assert.Equal(t, low.ID, pools[1].ID)
	assert.Equal(t, domain.PoolStatusPaused, pools[2].Status)

	active, err := svc.List(ctx, storage.StakingPoolFilter{Status: domain.PoolStatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 3)

	_, err = svc.List(ctx, storage.StakingPoolFilter{Status: "frozen"})
	assert.True(t, errors.Is(err, domain.ErrInvalid))
}
