// Package moralis lists ERC-20 holdings through the Moralis Web3 API.
package moralis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"

	"defi-hub/internal/observability"
)

const (
	defaultMaxRetryTimes = 3
	defaultRetryInterval = 300 * time.Millisecond
)

// ErrNoAPIKey is returned when the client was built without a key.
var ErrNoAPIKey = errors.New("moralis: api key not configured")

// TokenHolding is one ERC-20 balance as reported by Moralis.
type TokenHolding struct {
	TokenAddress string `json:"token_address"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	Logo         string `json:"logo"`
	Decimals     int    `json:"decimals"`
	Balance      string `json:"balance"`
	PossibleSpam bool   `json:"possible_spam"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether requests can be made.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("moralis: status %d: %s", e.code, e.body)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return retry.IsRecoverable(err)
}

// ERC20Balances lists the non-spam ERC-20 holdings of address on the Moralis
// chain id (eth, bsc, polygon, ...).
func (c *Client) ERC20Balances(ctx context.Context, moralisChain, address string) ([]TokenHolding, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}

	endpoint := fmt.Sprintf("%s/api/v2.2/%s/erc20?chain=%s&exclude_spam=true",
		c.baseURL, url.PathEscape(address), url.QueryEscape(moralisChain))

	call := func() ([]TokenHolding, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, retry.Unrecoverable(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-API-Key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &statusError{code: resp.StatusCode, body: string(body)}
		}

		var holdings []TokenHolding
		if err := json.Unmarshal(body, &holdings); err != nil {
			return nil, retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
		}
		return holdings, nil
	}

	start := time.Now()
	holdings, err := retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(defaultMaxRetryTimes),
		retry.Delay(defaultRetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", defaultMaxRetryTimes).
				Err(err).
				Msg("moralis request failed, retrying")
		}),
	)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.RecordProviderCall("moralis", outcome, time.Since(start))

	if err != nil {
		return nil, fmt.Errorf("erc20 balances for %s on %s: %w", address, moralisChain, err)
	}

	out := holdings[:0]
	for _, h := range holdings {
		if h.PossibleSpam {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}
