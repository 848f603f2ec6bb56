package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market data sources, in cascade order.
const (
	SourceDYDX        = "dydx"
	SourceBinance     = "binance"
	SourceDexScreener = "dexscreener"
	SourceNone        = "none"
)

// MarketTokenPair is the unified market view returned for a trading pair.
type MarketTokenPair struct {
	Pair         string           `json:"pair"` // canonical BASE-QUOTE
	Base         string           `json:"base"`
	Quote        string           `json:"quote"`
	Price        decimal.Decimal  `json:"price"`
	Change24hPct decimal.Decimal  `json:"change24hPct"`
	High24h      decimal.Decimal  `json:"high24h"`
	Low24h       decimal.Decimal  `json:"low24h"`
	Volume24h    decimal.Decimal  `json:"volume24h"` // quote currency
	OpenInterest *decimal.Decimal `json:"openInterest,omitempty"`
	FundingRate  *decimal.Decimal `json:"fundingRate,omitempty"`
	Liquidity    *decimal.Decimal `json:"liquidityUsd,omitempty"`
	Source       string           `json:"source"`            // primary source
	Sources      []string         `json:"sources,omitempty"` // every contributing source
	ChainID      string           `json:"chainId,omitempty"` // on-chain pairs only
	PairAddress  string           `json:"pairAddress,omitempty"`
	DeviationPct *decimal.Decimal `json:"deviationPct,omitempty"` // spot vs perp
	Available    bool             `json:"available"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// UnavailableMarket is the zeroed fallback for a pair no source could resolve.
func UnavailableMarket(pair, base, quote string, at time.Time) *MarketTokenPair {
	return &MarketTokenPair{
		Pair:         pair,
		Base:         base,
		Quote:        quote,
		Price:        decimal.Zero,
		Change24hPct: decimal.Zero,
		High24h:      decimal.Zero,
		Low24h:       decimal.Zero,
		Volume24h:    decimal.Zero,
		Source:       SourceNone,
		Available:    false,
		UpdatedAt:    at,
	}
}

// PriceSnapshot is one observed price for a pair.
// Corresponds to price_snapshots table in ClickHouse.
type PriceSnapshot struct {
	Pair      string    `json:"pair"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume24h float64   `json:"volume24h"`
}
