package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defi-hub/internal/domain"
)

func TestAdminRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t, nil)

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/staking-pools"},
		{http.MethodPut, "/api/v1/staking-pools/x"},
		{http.MethodDelete, "/api/v1/staking-pools/x"},
		{http.MethodGet, "/api/v1/token-spotlight/all"},
		{http.MethodPost, "/api/v1/token-spotlight"},
		{http.MethodPost, "/api/v1/adverts"},
		{http.MethodGet, "/api/v1/adverts/all"},
		{http.MethodPost, "/api/v1/referrals/volume"},
		{http.MethodPost, "/api/v1/notifications"},
	}
	for _, rt := range routes {
		rec := env.do(t, rt.method, rt.path, map[string]string{}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", rt.method, rt.path)

		rec = env.do(t, rt.method, rt.path, map[string]string{}, env.userToken)
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", rt.method, rt.path)
	}
}

func TestStakingPoolRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	body := map[string]any{
		"name":            "USDC vault",
		"chain":           "solana",
		"contractAddress": usdcMint,
		"tokenAddress":    usdcMint,
		"tokenSymbol":     "USDC",
		"apr":             "7.5",
		"lockDays":        14,
		"minStake":        "10",
		"maxCapacity":     "100000",
		"totalStaked":     "0",
		"startDate":       "2025-01-01T00:00:00Z",
	}
	rec := env.do(t, http.MethodPost, "/api/v1/staking-pools", body, env.adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.StakingPool](t, rec)
	assert.Equal(t, domain.PoolStatusActive, created.Status)

	rec = env.do(t, http.MethodPost, "/api/v1/staking-pools", body, env.adminToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/staking-pools?chain=solana", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Pools []domain.StakingPool `json:"pools"`
	}](t, rec)
	require.Len(t, list.Pools, 1)

	rec = env.do(t, http.MethodGet, "/api/v1/staking-pools?status=frozen", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body["status"] = "paused"
	rec = env.do(t, http.MethodPut, "/api/v1/staking-pools/"+created.ID, body, env.adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.PoolStatusPaused, decode[domain.StakingPool](t, rec).Status)

	rec = env.do(t, http.MethodGet, "/api/v1/staking-pools/"+created.ID, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/staking-pools/"+created.ID, nil, env.adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/staking-pools/"+created.ID, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body["chain"] = "ethereum"
	rec = env.do(t, http.MethodPost, "/api/v1/staking-pools", body, env.adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "solana address on an evm chain")
}

func TestStakingPoolUtilization(t *testing.T) {
	env := newTestEnv(t, nil)

	type poolWithUtilization struct {
		domain.StakingPool
		Utilization decimal.Decimal `json:"utilization"`
	}

	body := map[string]any{
		"name":            "USDC vault",
		"chain":           "solana",
		"contractAddress": usdcMint,
		"tokenAddress":    usdcMint,
		"tokenSymbol":     "USDC",
		"apr":             "7.5",
		"maxCapacity":     "100000",
		"totalStaked":     "25000",
		"startDate":       "2025-01-01T00:00:00Z",
	}
	rec := env.do(t, http.MethodPost, "/api/v1/staking-pools", body, env.adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bounded := decode[poolWithUtilization](t, rec)
	assert.True(t, bounded.Utilization.Equal(decimal.RequireFromString("0.25")), bounded.Utilization.String())

	rec = env.do(t, http.MethodGet, "/api/v1/staking-pools/"+bounded.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[poolWithUtilization](t, rec).Utilization.Equal(decimal.RequireFromString("0.25")))

	body["name"] = "Open vault"
	body["contractAddress"] = "So11111111111111111111111111111111111111112"
	body["maxCapacity"] = "0"
	rec = env.do(t, http.MethodPost, "/api/v1/staking-pools", body, env.adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decode[poolWithUtilization](t, rec).Utilization.IsZero(), "unbounded pool")

	rec = env.do(t, http.MethodGet, "/api/v1/staking-pools", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Pools []poolWithUtilization `json:"pools"`
	}](t, rec)
	require.Len(t, list.Pools, 2)
	for _, p := range list.Pools {
		assert.True(t, p.Utilization.Equal(p.StakingPool.Utilization()), p.Name)
	}
}

func TestSpotlightRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	now := time.Now().UTC()
	entry := map[string]any{
		"chain":        "solana",
		"tokenAddress": usdcMint,
		"symbol":       "USDC",
		"name":         "USD Coin",
		"rank":         1,
		"startDate":    now.Add(-time.Hour).Format(time.RFC3339),
		"endDate":      now.Add(24 * time.Hour).Format(time.RFC3339),
	}
	rec := env.do(t, http.MethodPost, "/api/v1/token-spotlight", entry, env.adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Same rank in an overlapping range conflicts.
	rec = env.do(t, http.MethodPost, "/api/v1/token-spotlight", entry, env.adminToken)
	assert.Equal(t, http.StatusConflict, rec.Code)

	entry["rank"] = 0
	rec = env.do(t, http.MethodPost, "/api/v1/token-spotlight", entry, env.adminToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 2, decode[domain.SpotlightToken](t, rec).Rank)

	rec = env.do(t, http.MethodGet, "/api/v1/token-spotlight", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[struct {
		Tokens []domain.SpotlightToken `json:"tokens"`
	}](t, rec)
	require.Len(t, active.Tokens, 2)
	assert.Equal(t, 1, active.Tokens[0].Rank)

	// Outside the range nothing is active.
	rec = env.do(t, http.MethodGet, "/api/v1/token-spotlight?at=2020-01-01T00:00:00Z", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tokens":[]}`, rec.Body.String())

	// Spotlight entries surface in token search.
	rec = env.do(t, http.MethodGet, "/api/v1/tokens?q=usdc&chain=solana", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	tokens := decode[struct {
		Tokens []domain.Token `json:"tokens"`
	}](t, rec)
	require.NotEmpty(t, tokens.Tokens)
	assert.Contains(t, tokens.Tokens[0].Tags, "spotlight")

	entry["endDate"] = now.Add(-2 * time.Hour).Format(time.RFC3339)
	rec = env.do(t, http.MethodPost, "/api/v1/token-spotlight", entry, env.adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdvertRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	now := time.Now().UTC()
	body := map[string]any{
		"title":     "Trade with zero fees",
		"linkUrl":   "https://example.com/promo",
		"placement": "banner",
		"startDate": now.Add(-time.Hour).Format(time.RFC3339),
		"endDate":   now.Add(time.Hour).Format(time.RFC3339),
	}
	rec := env.do(t, http.MethodPost, "/api/v1/adverts", body, env.adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[domain.Advert](t, rec)

	rec = env.do(t, http.MethodPost, "/api/v1/adverts/"+created.ID+"/impression", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/adverts/"+created.ID+"/click", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/v1/adverts/missing/click", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/adverts/"+created.ID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[domain.Advert](t, rec)
	assert.Equal(t, int64(1), got.Impressions)
	assert.Equal(t, int64(1), got.Clicks)

	rec = env.do(t, http.MethodGet, "/api/v1/adverts?placement=banner", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Adverts []domain.Advert `json:"adverts"`
	}](t, rec)
	assert.Len(t, list.Adverts, 1)

	rec = env.do(t, http.MethodGet, "/api/v1/adverts?placement=footer", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body["title"] = "Updated"
	rec = env.do(t, http.MethodPut, "/api/v1/adverts/"+created.ID, body, env.adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Updated", decode[domain.Advert](t, rec).Title)

	rec = env.do(t, http.MethodGet, "/api/v1/adverts/all", nil, env.adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/v1/adverts/"+created.ID, nil, env.adminToken)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestReferralRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/v1/referrals/code", map[string]string{"wallet": evmWallet}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	code := decode[domain.ReferralCode](t, rec)
	assert.Len(t, code.Code, 8)

	apply := map[string]string{"wallet": solanaWallet, "code": code.Code}
	rec = env.do(t, http.MethodPost, "/api/v1/referrals/apply", apply, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/v1/referrals/apply", apply, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/referrals/apply", map[string]string{"wallet": evmWallet, "code": code.Code}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "self referral")

	rec = env.do(t, http.MethodPost, "/api/v1/referrals/apply", map[string]string{"wallet": solanaWallet, "code": "ZZZZZZZZ"}, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/referrals/volume", map[string]string{"wallet": solanaWallet, "volumeUsd": "1000"}, env.adminToken)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"rewardUsd":"50"}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/referrals?wallet="+evmWallet, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[domain.ReferralStats](t, rec)
	assert.Equal(t, 1, stats.ReferralCount)
	assert.Equal(t, 1, stats.Rank)
	assert.Equal(t, "1000", stats.TotalVolumeUSD.String())

	rec = env.do(t, http.MethodGet, "/api/v1/referrals/referees?wallet="+evmWallet, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), solanaWallet)

	rec = env.do(t, http.MethodGet, "/api/v1/referrals/leaderboard?limit=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[struct {
		Leaderboard []domain.ReferralStats `json:"leaderboard"`
	}](t, rec)
	require.Len(t, board.Leaderboard, 1)
	assert.Equal(t, evmWallet, board.Leaderboard[0].Wallet)

	rec = env.do(t, http.MethodGet, "/api/v1/referrals", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The referrer was notified.
	rec = env.do(t, http.MethodGet, "/api/v1/notifications/unread-count?wallet="+evmWallet, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread":1}`, rec.Body.String())
}

func TestNotificationRoutes(t *testing.T) {
	env := newTestEnv(t, nil)

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodPost, "/api/v1/notifications", map[string]string{
			"wallet": solanaWallet, "type": "system", "title": "Maintenance window",
		}, env.adminToken)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodPost, "/api/v1/notifications", map[string]string{
		"wallet": solanaWallet, "type": "spam", "title": "x",
	}, env.adminToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/notifications?wallet="+solanaWallet+"&unread=true", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Notifications []domain.Notification `json:"notifications"`
	}](t, rec)
	require.Len(t, list.Notifications, 2)

	id := list.Notifications[0].ID
	rec = env.do(t, http.MethodPost, "/api/v1/notifications/"+id+"/read?wallet="+evmWallet, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code, "other wallets cannot mark it read")

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/"+id+"/read?wallet="+solanaWallet, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/read-all?wallet="+solanaWallet, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":1}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/notifications/unread-count?wallet="+solanaWallet, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"unread":0}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/v1/notifications", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
