package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

type ProvidersConfig struct {
	Timeout          time.Duration     `mapstructure:"timeout"`
	DeviationWarnPct float64           `mapstructure:"deviation_warn_pct"`
	Binance          BinanceConfig     `mapstructure:"binance"`
	DYDX             DYDXConfig        `mapstructure:"dydx"`
	DexScreener      DexScreenerConfig `mapstructure:"dexscreener"`
	Moralis          MoralisConfig     `mapstructure:"moralis"`
}

type BinanceConfig struct {
	RestURL string `mapstructure:"rest_url"`
	WsURL   string `mapstructure:"ws_url"`
	// StreamSymbols are subscribed on the miniTicker stream, e.g. btcusdt.
	// Empty disables the stream.
	StreamSymbols []string `mapstructure:"stream_symbols"`
}

type DYDXConfig struct {
	IndexerURL string `mapstructure:"indexer_url"`
}

type DexScreenerConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type MoralisConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// APIKey enables ERC-20 balances. Empty limits EVM balances to native coins.
	APIKey string `mapstructure:"api_key"`
}

func (cfg *ProvidersConfig) Validate() error {
	if cfg.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if cfg.DeviationWarnPct < 0 {
		return errors.New("deviation_warn_pct must not be negative")
	}

	urls := map[string]string{
		"binance.rest_url":     cfg.Binance.RestURL,
		"dydx.indexer_url":     cfg.DYDX.IndexerURL,
		"dexscreener.base_url": cfg.DexScreener.BaseURL,
		"moralis.base_url":     cfg.Moralis.BaseURL,
	}
	for name, raw := range urls {
		if err := validateURL(raw, "http", "https"); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if len(cfg.Binance.StreamSymbols) > 0 {
		if err := validateURL(cfg.Binance.WsURL, "ws", "wss"); err != nil {
			return fmt.Errorf("binance.ws_url: %w", err)
		}
	}
	return nil
}

func validateURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("unsupported scheme %q", u.Scheme)
}
