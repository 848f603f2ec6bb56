// Package cache provides TTL caches for provider responses.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"defi-hub/internal/observability"
)

// Cache stores opaque values with a per-entry TTL.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for ttl. A non-positive ttl stores nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON decodes a cached JSON value into dst. Backend and decode errors are
// logged and reported as a miss, so callers fall through to the source.
func GetJSON(ctx context.Context, c Cache, name, key string, dst any) bool {
	raw, ok, err := c.Get(ctx, key)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("cache", name).Str("key", key).Msg("cache get failed")
		ok = false
	}
	if ok {
		if err := json.Unmarshal(raw, dst); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("cache", name).Str("key", key).Msg("cache entry undecodable")
			ok = false
		}
	}
	observability.RecordCacheLookup(name, ok)
	return ok
}

// SetJSON encodes v and stores it. Errors are logged, never returned.
func SetJSON(ctx context.Context, c Cache, name, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("cache", name).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := c.Set(ctx, key, raw, ttl); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("cache", name).Str("key", key).Msg("cache set failed")
	}
}

// Key joins parts into a namespaced cache key.
func Key(namespace string, parts ...string) string {
	key := namespace
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

func checkKey(key string) error {
	if key == "" {
		return fmt.Errorf("cache: empty key")
	}
	return nil
}
