package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"defi-hub/internal/advert"
	"defi-hub/internal/auth"
	"defi-hub/internal/chain"
	"defi-hub/internal/config"
	"defi-hub/internal/domain"
	"defi-hub/internal/market"
	"defi-hub/internal/notification"
	"defi-hub/internal/ratelimit"
	"defi-hub/internal/referral"
	"defi-hub/internal/spotlight"
	"defi-hub/internal/staking"
	"defi-hub/internal/storage"
	"defi-hub/internal/storage/memory"
	"defi-hub/internal/tokens"
	"defi-hub/internal/wallet"
)

const (
	evmWallet    = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	solanaWallet = "CiDwVBFgWV9E5MvXWoLgnEgn2hK7rJikbvfWavzAQz3"
	usdcMint     = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

type stubProvider struct {
	name   string
	quotes map[string]*market.Quote
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Quote(_ context.Context, p market.Pair) (*market.Quote, error) {
	q, ok := s.quotes[p.Base]
	if !ok {
		return nil, market.ErrNoMarket
	}
	return q, nil
}

type stubEVM struct{}

func (stubEVM) NativeBalance(_ context.Context, c chain.Chain, _ string) (*big.Int, error) {
	if c.Key == "polygon" {
		return nil, errors.New("rpc unavailable")
	}
	return big.NewInt(1_500_000_000_000_000_000), nil
}

func decimalOf(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

type testEnv struct {
	router     http.Handler
	adminToken string
	userToken  string
}

func newTestEnv(t *testing.T, limiter ratelimit.Limiter) *testEnv {
	t.Helper()

	reg, err := chain.DefaultRegistry()
	require.NoError(t, err)
	table, err := wallet.DefaultTable()
	require.NoError(t, err)
	list, err := tokens.LoadDefault()
	require.NoError(t, err)

	issuer, err := auth.NewIssuer(config.AuthConfig{
		JWTSecret:    "test-secret-test-secret-test-secret",
		Issuer:       "defi-hub",
		TokenTTL:     time.Hour,
		AdminWallets: []string{evmWallet},
	})
	require.NoError(t, err)
	adminToken, _, err := issuer.Issue(evmWallet)
	require.NoError(t, err)
	userToken, _, err := issuer.Issue(solanaWallet)
	require.NoError(t, err)

	perp := stubProvider{name: "dydx", quotes: map[string]*market.Quote{
		"BTC": {Source: "dydx", Price: decimalOf(t, "100000"), Volume24h: decimalOf(t, "1000")},
	}}
	spot := stubProvider{name: "binance", quotes: map[string]*market.Quote{
		"BTC": {Source: "binance", Price: decimalOf(t, "100100"), High24h: decimalOf(t, "101000"), Low24h: decimalOf(t, "99000")},
		"SOL": {Source: "binance", Price: decimalOf(t, "150")},
	}}
	dex := stubProvider{name: "dexscreener", quotes: map[string]*market.Quote{}}
	snapshots := memory.NewPriceSnapshotStore()
	resolver := market.NewResolver(perp, spot, dex, market.WithSnapshots(snapshots))

	spot2 := spotlight.NewService(memory.NewSpotlightStore(), reg)
	notifications := notification.NewService(memory.NewNotificationStore(), nil)

	svc := Services{
		Registry:      reg,
		Tokens:        tokens.NewService(list, spot2),
		Markets:       resolver,
		Wallets:       table,
		Balances:      wallet.NewBalanceService(reg, wallet.WithEVM(stubEVM{})),
		Spotlight:     spot2,
		Staking:       staking.NewService(memory.NewStakingPoolStore(), reg),
		Referrals:     referral.NewService(memory.NewReferralStore(), config.ReferralConfig{RewardBps: 500, CodeLength: 8}, referral.WithNotifier(notifications)),
		Notifications: notifications,
		Adverts:       advert.NewService(memory.NewAdvertStore()),
		Auth:          issuer,
		Limiter:       limiter,
	}
	return &testEnv{router: NewRouter(svc), adminToken: adminToken, userToken: userToken}
}

// do sends a request; body is JSON-encoded unless it is nil.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec = env.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/api/v1/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(2, time.Minute, time.Minute)
	defer limiter.Close()
	env := newTestEnv(t, limiter)

	for i := 0; i < 2; i++ {
		rec := env.do(t, http.MethodGet, "/api/v1/chains", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := env.do(t, http.MethodGet, "/api/v1/chains", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Health is outside the limited group.
	rec = env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", storage.ErrDuplicateKey), http.StatusConflict},
		{storage.ErrConflict, http.StatusConflict},
		{domain.ErrInvalid, http.StatusBadRequest},
		{chain.ErrUnknownChain, http.StatusBadRequest},
		{auth.ErrUnauthorized, http.StatusUnauthorized},
		{auth.ErrForbidden, http.StatusForbidden},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	got, err := parseTime("from", "2025-06-01T12:00:00Z")
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	got, err = parseTime("from", fmt.Sprint(want.UnixMilli()))
	require.NoError(t, err)
	assert.True(t, got.Equal(want))

	_, err = parseTime("from", "yesterday")
	assert.True(t, errors.Is(err, domain.ErrInvalid))
}
