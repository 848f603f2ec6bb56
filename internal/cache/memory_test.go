package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(t *testing.T) (*MemoryCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(time.Hour)
	c.now = clock.Now
	t.Cleanup(func() { _ = c.Close() })
	return c, clock
}

func TestMemoryCache_Expiry(t *testing.T) {
	c, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Second))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(got))

	clock.Advance(10 * time.Second)
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok, "entry must expire at its deadline")

	// Expired entries stay until swept.
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	got, ok, _ := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))

	got[1] = 'y'
	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryCache_SetRules(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	assert.Error(t, c.Set(ctx, "", []byte("v"), time.Minute))

	require.NoError(t, c.Set(ctx, "zero", []byte("v"), 0))
	_, ok, _ := c.Get(ctx, "zero")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, _ = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCache_SweeperRuns(t *testing.T) {
	c := NewMemoryCache(10 * time.Millisecond)
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Millisecond))
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)

	// Close twice is fine.
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestJSONHelpers(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Pair  string `json:"pair"`
		Price string `json:"price"`
	}

	var out payload
	assert.False(t, GetJSON(ctx, c, "test", "p", &out))

	SetJSON(ctx, c, "test", "p", payload{Pair: "BTC-USD", Price: "100"}, time.Minute)
	require.True(t, GetJSON(ctx, c, "test", "p", &out))
	assert.Equal(t, "BTC-USD", out.Pair)

	require.NoError(t, c.Set(ctx, "bad", []byte("{not json"), time.Minute))
	assert.False(t, GetJSON(ctx, c, "test", "bad", &out))

	assert.Equal(t, "market:BTC-USD", Key("market", "BTC-USD"))
	assert.Equal(t, "balances:0xabc:ethereum,bsc", Key("balances", "0xabc", "ethereum,bsc"))
}
