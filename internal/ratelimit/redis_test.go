package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisLimiter(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	l := NewRedisLimiter(client, "test:", 2, time.Minute)

	d, err := l.Allow(ctx, "wallet|/api/v1/tokens")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.WithinDuration(t, time.Now().Add(time.Minute), d.ResetAt, 2*time.Second)

	ttl, err := client.PTTL(ctx, "test:ratelimit:wallet|/api/v1/tokens").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	d, _ = l.Allow(ctx, "wallet|/api/v1/tokens")
	assert.True(t, d.Allowed)

	d, _ = l.Allow(ctx, "wallet|/api/v1/tokens")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, _ = l.Allow(ctx, "other|/api/v1/tokens")
	assert.True(t, d.Allowed)
}
