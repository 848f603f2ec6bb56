package config

import (
	"errors"
	"time"
)

// MinJWTSecretLength is the minimum HS256 key size in bytes.
const MinJWTSecretLength = 32

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	// AdminWallets restricts admin tokens to these wallets. Empty allows any wallet holding an admin token.
	AdminWallets []string `mapstructure:"admin_wallets"`
}

func (cfg *AuthConfig) Validate() error {
	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return errors.New("jwt_secret must be at least 32 bytes")
	}
	if cfg.Issuer == "" {
		return errors.New("issuer is required")
	}
	if cfg.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	return nil
}

type ReferralConfig struct {
	RewardBps  int `mapstructure:"reward_bps"` // share of referee volume credited to the referrer
	CodeLength int `mapstructure:"code_length"`
}

func (cfg *ReferralConfig) Validate() error {
	if cfg.RewardBps < 0 || cfg.RewardBps > 10000 {
		return errors.New("reward_bps must be between 0 and 10000")
	}
	if cfg.CodeLength < 6 || cfg.CodeLength > 16 {
		return errors.New("code_length must be between 6 and 16")
	}
	return nil
}

type QueueConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

func (cfg *QueueConfig) Validate() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.URL == "" {
		return errors.New("url is required when enabled")
	}
	if cfg.Exchange == "" {
		return errors.New("exchange is required when enabled")
	}
	return nil
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

func (cfg *LogConfig) Validate() error {
	switch cfg.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled":
	default:
		return errors.New("unknown level " + cfg.Level)
	}
	if cfg.Format != "json" && cfg.Format != "console" {
		return errors.New("format must be json or console")
	}
	return nil
}
