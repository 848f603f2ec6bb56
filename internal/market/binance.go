package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Binance error code for an unknown symbol.
const binanceInvalidSymbol = -1121

// Binance quotes spot tickers, preferring the live stream when it is fresh.
type Binance struct {
	restURL string
	client  *http.Client
	stream  *TickerStream
}

// NewBinance builds the spot provider. stream may be nil.
func NewBinance(restURL string, timeout time.Duration, stream *TickerStream) *Binance {
	return &Binance{
		restURL: strings.TrimRight(restURL, "/"),
		client:  newHTTPClient(timeout),
		stream:  stream,
	}
}

func (b *Binance) Name() string { return "binance" }

// Symbol maps a pair to its Binance symbol; USD trades as USDT.
func Symbol(p Pair) string {
	quote := p.Quote
	if quote == "USD" {
		quote = "USDT"
	}
	return p.Base + quote
}

type binanceTicker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	Volume             string `json:"volume"`
	QuoteVolume        string `json:"quoteVolume"`
}

type binanceError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (b *Binance) Quote(ctx context.Context, p Pair) (*Quote, error) {
	symbol := Symbol(p)

	if b.stream != nil {
		if t, ok := b.stream.Latest(symbol); ok {
			return t.quote(), nil
		}
	}

	var t binanceTicker24h
	endpoint := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", b.restURL, url.QueryEscape(symbol))
	if err := getJSON(ctx, b.client, endpoint, &t); err != nil {
		var se *httpStatusError
		if errors.As(err, &se) && se.Code == http.StatusBadRequest {
			var be binanceError
			if json.Unmarshal(se.Body, &be) == nil && be.Code == binanceInvalidSymbol {
				return nil, ErrNoMarket
			}
		}
		return nil, fmt.Errorf("binance %s: %w", symbol, err)
	}

	price, err := parseDecimal(t.LastPrice)
	if err != nil || !price.IsPositive() {
		return nil, fmt.Errorf("binance %s: bad last price %q", symbol, t.LastPrice)
	}
	change, _ := parseDecimal(t.PriceChangePercent)
	high, _ := parseDecimal(t.HighPrice)
	low, _ := parseDecimal(t.LowPrice)
	quoteVolume, _ := parseDecimal(t.QuoteVolume)

	return &Quote{
		Source:       "binance",
		Price:        price,
		Change24hPct: change,
		High24h:      high,
		Low24h:       low,
		Volume24h:    quoteVolume,
	}, nil
}
