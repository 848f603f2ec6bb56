package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DYDX quotes perpetual markets from the dYdX v4 indexer.
type DYDX struct {
	baseURL string
	client  *http.Client
}

func NewDYDX(indexerURL string, timeout time.Duration) *DYDX {
	return &DYDX{baseURL: strings.TrimRight(indexerURL, "/"), client: newHTTPClient(timeout)}
}

func (d *DYDX) Name() string { return "dydx" }

type dydxMarket struct {
	Ticker          string `json:"ticker"`
	Status          string `json:"status"`
	OraclePrice     string `json:"oraclePrice"`
	PriceChange24H  string `json:"priceChange24H"`
	Volume24H       string `json:"volume24H"`
	NextFundingRate string `json:"nextFundingRate"`
	OpenInterest    string `json:"openInterest"`
}

type dydxMarketsResponse struct {
	Markets map[string]dydxMarket `json:"markets"`
}

// Quote looks up BASE-USD. Only USD-like quotes map to a perp market.
func (d *DYDX) Quote(ctx context.Context, p Pair) (*Quote, error) {
	if !p.USDQuoted() {
		return nil, ErrNoMarket
	}
	ticker := p.Base + "-USD"

	var resp dydxMarketsResponse
	endpoint := fmt.Sprintf("%s/v4/perpetualMarkets?ticker=%s", d.baseURL, url.QueryEscape(ticker))
	if err := getJSON(ctx, d.client, endpoint, &resp); err != nil {
		var se *httpStatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, ErrNoMarket
		}
		return nil, fmt.Errorf("dydx %s: %w", ticker, err)
	}

	m, ok := resp.Markets[ticker]
	if !ok || m.Status != "ACTIVE" {
		return nil, ErrNoMarket
	}

	price, err := parseDecimal(m.OraclePrice)
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("dydx %s: bad oracle price %q", ticker, m.OraclePrice)
	}
	change, _ := parseDecimal(m.PriceChange24H)
	volume, _ := parseDecimal(m.Volume24H)
	funding, _ := parseDecimal(m.NextFundingRate)
	oi, _ := parseDecimal(m.OpenInterest)

	q := &Quote{
		Source:       "dydx",
		Price:        price,
		Volume24h:    volume,
		FundingRate:  decimalPtr(funding),
		OpenInterest: decimalPtr(oi),
	}

	// The indexer reports an absolute change; convert against the prior price.
	prev := price.Sub(change)
	if prev.IsPositive() {
		q.Change24hPct = change.Div(prev).Mul(hundred).Round(4)
	}
	return q, nil
}
