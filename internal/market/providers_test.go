package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, status int, body string, check func(r *http.Request)) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestDYDX_Quote(t *testing.T) {
	url := serve(t, http.StatusOK, `{"markets":{"BTC-USD":{
		"ticker":"BTC-USD","status":"ACTIVE","oraclePrice":"110","priceChange24H":"10",
		"volume24H":"5000000","nextFundingRate":"0.00001","openInterest":"1234.5"}}}`,
		func(r *http.Request) {
			assert.Equal(t, "/v4/perpetualMarkets", r.URL.Path)
			assert.Equal(t, "BTC-USD", r.URL.Query().Get("ticker"))
		})

	q, err := NewDYDX(url, time.Second).Quote(context.Background(), Pair{Base: "BTC", Quote: "USDT"})
	require.NoError(t, err)
	assert.Equal(t, "dydx", q.Source)
	assert.Equal(t, "110", q.Price.String())
	// 10 / (110 - 10) * 100
	assert.Equal(t, "10", q.Change24hPct.String())
	assert.Equal(t, "5000000", q.Volume24h.String())
	require.NotNil(t, q.OpenInterest)
	assert.Equal(t, "1234.5", q.OpenInterest.String())
}

func TestDYDX_Misses(t *testing.T) {
	d := NewDYDX(serve(t, http.StatusOK, `{"markets":{}}`, nil), time.Second)
	_, err := d.Quote(context.Background(), Pair{Base: "FOO", Quote: "USD"})
	assert.True(t, errors.Is(err, ErrNoMarket))

	// Non-USD quotes never hit the indexer.
	_, err = d.Quote(context.Background(), Pair{Base: "ETH", Quote: "BTC"})
	assert.True(t, errors.Is(err, ErrNoMarket))

	d = NewDYDX(serve(t, http.StatusOK, `{"markets":{"LUNA-USD":{"ticker":"LUNA-USD","status":"FINAL_SETTLEMENT","oraclePrice":"1"}}}`, nil), time.Second)
	_, err = d.Quote(context.Background(), Pair{Base: "LUNA", Quote: "USD"})
	assert.True(t, errors.Is(err, ErrNoMarket))

	d = NewDYDX(serve(t, http.StatusInternalServerError, `oops`, nil), time.Second)
	_, err = d.Quote(context.Background(), Pair{Base: "BTC", Quote: "USD"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoMarket))
}

func TestBinance_QuoteREST(t *testing.T) {
	url := serve(t, http.StatusOK, `{"symbol":"BTCUSDT","lastPrice":"100.5","priceChangePercent":"-1.25",
		"highPrice":"105","lowPrice":"95","volume":"10","quoteVolume":"1005"}`,
		func(r *http.Request) {
			assert.Equal(t, "/api/v3/ticker/24hr", r.URL.Path)
			assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		})

	q, err := NewBinance(url, time.Second, nil).Quote(context.Background(), Pair{Base: "BTC", Quote: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "binance", q.Source)
	assert.Equal(t, "100.5", q.Price.String())
	assert.Equal(t, "-1.25", q.Change24hPct.String())
	assert.Equal(t, "105", q.High24h.String())
	assert.Equal(t, "1005", q.Volume24h.String())
}

func TestBinance_InvalidSymbol(t *testing.T) {
	b := NewBinance(serve(t, http.StatusBadRequest, `{"code":-1121,"msg":"Invalid symbol."}`, nil), time.Second, nil)
	_, err := b.Quote(context.Background(), Pair{Base: "NOPE", Quote: "USDT"})
	assert.True(t, errors.Is(err, ErrNoMarket))

	b = NewBinance(serve(t, http.StatusBadRequest, `{"code":-1100,"msg":"Illegal characters"}`, nil), time.Second, nil)
	_, err = b.Quote(context.Background(), Pair{Base: "BTC", Quote: "USDT"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoMarket))
}

func TestBinance_PrefersFreshStream(t *testing.T) {
	stream := NewTickerStream("ws://unused", []string{"btcusdt"})
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	stream.now = func() time.Time { return now }

	ticker, ok := parseMiniTicker([]byte(`{"stream":"btcusdt@miniTicker","data":{"s":"BTCUSDT","c":"110","o":"100","h":"120","l":"90","v":"1","q":"110"}}`), now)
	require.True(t, ok)
	stream.latest[ticker.Symbol] = ticker

	rest := serve(t, http.StatusInternalServerError, `down`, nil)
	b := NewBinance(rest, time.Second, stream)

	q, err := b.Quote(context.Background(), Pair{Base: "BTC", Quote: "USDT"})
	require.NoError(t, err)
	assert.Equal(t, "110", q.Price.String())
	assert.Equal(t, "10", q.Change24hPct.String())

	// Stale stream data falls back to REST.
	now = now.Add(StreamMaxAge + time.Second)
	_, err = b.Quote(context.Background(), Pair{Base: "BTC", Quote: "USDT"})
	assert.Error(t, err)
}

func TestDexScreener_Quote(t *testing.T) {
	url := serve(t, http.StatusOK, `{"pairs":[
		{"chainId":"solana","pairAddress":"p1","baseToken":{"symbol":"BONK"},"priceUsd":"0.00002","priceChange":{"h24":3.5},"volume":{"h24":1000},"liquidity":{"usd":50000}},
		{"chainId":"ethereum","pairAddress":"p2","baseToken":{"symbol":"bonk"},"priceUsd":"0.000021","priceChange":{"h24":1},"volume":{"h24":10},"liquidity":{"usd":900000}},
		{"chainId":"bsc","pairAddress":"p3","baseToken":{"symbol":"BONKX"},"priceUsd":"5","liquidity":{"usd":99999999}}
	]}`, func(r *http.Request) {
		assert.Equal(t, "/latest/dex/search", r.URL.Path)
		assert.Equal(t, "BONK", r.URL.Query().Get("q"))
	})

	q, err := NewDexScreener(url, time.Second).Quote(context.Background(), Pair{Base: "BONK", Quote: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "dexscreener", q.Source)
	assert.Equal(t, "ethereum", q.ChainID)
	assert.Equal(t, "p2", q.PairAddress)
	assert.Equal(t, "0.000021", q.Price.String())
	require.NotNil(t, q.Liquidity)
	assert.Equal(t, "900000", q.Liquidity.String())
}

func TestDexScreener_NoMatch(t *testing.T) {
	d := NewDexScreener(serve(t, http.StatusOK, `{"pairs":null}`, nil), time.Second)
	_, err := d.Quote(context.Background(), Pair{Base: "ZZZ", Quote: "USD"})
	assert.True(t, errors.Is(err, ErrNoMarket))
}
