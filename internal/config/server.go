package config

import (
	"errors"
	"time"
)

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (cfg *ServerConfig) Validate() error {
	if cfg.Addr == "" {
		return errors.New("addr is required")
	}
	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("read, write and idle timeouts must be positive")
	}
	if cfg.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	return nil
}

type StorageConfig struct {
	// UseMemory keeps all state in process; Postgres and ClickHouse are not contacted.
	UseMemory     bool   `mapstructure:"use_memory"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"` // optional, price history falls back to memory
	RunMigrations bool   `mapstructure:"run_migrations"`
}

func (cfg *StorageConfig) Validate() error {
	if !cfg.UseMemory && cfg.PostgresDSN == "" {
		return errors.New("postgres_dsn is required unless use_memory is set")
	}
	return nil
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	UseTLS    bool   `mapstructure:"use_tls"`
}

func (cfg *RedisConfig) Validate() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Address == "" {
		return errors.New("address is required when enabled")
	}
	if cfg.DB < 0 {
		return errors.New("db must not be negative")
	}
	return nil
}

type CacheConfig struct {
	DefaultTTL    time.Duration `mapstructure:"default_ttl"`
	MarketTTL     time.Duration `mapstructure:"market_ttl"`
	BalancesTTL   time.Duration `mapstructure:"balances_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

func (cfg *CacheConfig) Validate() error {
	if cfg.DefaultTTL <= 0 || cfg.MarketTTL <= 0 || cfg.BalancesTTL <= 0 {
		return errors.New("ttls must be positive")
	}
	if cfg.SweepInterval <= 0 {
		return errors.New("sweep_interval must be positive")
	}
	return nil
}

// Rate limiter backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	Window          time.Duration `mapstructure:"window"`
	MaxRequests     int           `mapstructure:"max_requests"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

func (cfg *RateLimitConfig) Validate() error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Backend != BackendMemory && cfg.Backend != BackendRedis {
		return errors.New("backend must be memory or redis")
	}
	if cfg.Window <= 0 {
		return errors.New("window must be positive")
	}
	if cfg.MaxRequests <= 0 {
		return errors.New("max_requests must be positive")
	}
	if cfg.CleanupInterval <= 0 {
		return errors.New("cleanup_interval must be positive")
	}
	return nil
}
