package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoMarket means the provider does not list the pair.
var ErrNoMarket = errors.New("market not listed")

// Quote is one provider's view of a pair.
type Quote struct {
	Source       string
	Price        decimal.Decimal
	Change24hPct decimal.Decimal
	High24h      decimal.Decimal
	Low24h       decimal.Decimal
	Volume24h    decimal.Decimal
	OpenInterest *decimal.Decimal
	FundingRate  *decimal.Decimal
	Liquidity    *decimal.Decimal
	ChainID      string
	PairAddress  string
}

// Provider quotes a pair. A pair the provider does not carry yields ErrNoMarket.
type Provider interface {
	Name() string
	Quote(ctx context.Context, p Pair) (*Quote, error)
}

var hundred = decimal.NewFromInt(100)

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

type httpStatusError struct {
	Code int
	Body []byte
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, string(e.Body))
}

// getJSON fetches url and decodes a 200 response into dst. Other statuses
// return *httpStatusError with a truncated body.
func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "defi-hub/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return &httpStatusError{Code: resp.StatusCode, Body: body}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// parseDecimal reads a provider number string; empty means zero.
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
