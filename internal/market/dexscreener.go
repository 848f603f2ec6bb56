package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DexScreener finds on-chain pools by base symbol.
type DexScreener struct {
	baseURL string
	client  *http.Client
}

func NewDexScreener(baseURL string, timeout time.Duration) *DexScreener {
	return &DexScreener{baseURL: strings.TrimRight(baseURL, "/"), client: newHTTPClient(timeout)}
}

func (d *DexScreener) Name() string { return "dexscreener" }

type dexToken struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

type dexPair struct {
	ChainID     string   `json:"chainId"`
	DexID       string   `json:"dexId"`
	PairAddress string   `json:"pairAddress"`
	BaseToken   dexToken `json:"baseToken"`
	QuoteToken  dexToken `json:"quoteToken"`
	PriceUSD    string   `json:"priceUsd"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity *struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

type dexSearchResponse struct {
	Pairs []dexPair `json:"pairs"`
}

// Quote picks the pool whose base symbol matches with the deepest USD liquidity.
// Prices are in USD regardless of the requested quote.
func (d *DexScreener) Quote(ctx context.Context, p Pair) (*Quote, error) {
	var resp dexSearchResponse
	endpoint := fmt.Sprintf("%s/latest/dex/search?q=%s", d.baseURL, url.QueryEscape(p.Base))
	if err := getJSON(ctx, d.client, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener %s: %w", p.Base, err)
	}

	var best *dexPair
	bestLiq := -1.0
	for i := range resp.Pairs {
		dp := &resp.Pairs[i]
		if !strings.EqualFold(dp.BaseToken.Symbol, p.Base) || dp.PriceUSD == "" {
			continue
		}
		liq := 0.0
		if dp.Liquidity != nil {
			liq = dp.Liquidity.USD
		}
		if liq > bestLiq {
			best, bestLiq = dp, liq
		}
	}
	if best == nil {
		return nil, ErrNoMarket
	}

	price, err := decimal.NewFromString(best.PriceUSD)
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("dexscreener %s: bad price %q", p.Base, best.PriceUSD)
	}

	return &Quote{
		Source:       "dexscreener",
		Price:        price,
		Change24hPct: decimal.NewFromFloat(best.PriceChange.H24),
		Volume24h:    decimal.NewFromFloat(best.Volume.H24),
		Liquidity:    decimalPtr(decimal.NewFromFloat(bestLiq)),
		ChainID:      best.ChainID,
		PairAddress:  best.PairAddress,
	}, nil
}
