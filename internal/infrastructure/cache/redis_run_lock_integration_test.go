//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisRunLock(t *testing.T) {
	ctx := context.Background()
	lock := NewRedisRunLock(startRedis(t), "test:lock:")
	wf := uuid.New()

	ok, err := lock.Acquire(ctx, wf, "run-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, wf, "run-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, wf, "run-2"))
	holder, err := lock.Holder(ctx, wf)
	require.NoError(t, err)
	assert.Equal(t, "run-1", holder)

	ok, err = lock.Extend(ctx, wf, "run-2", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = lock.Extend(ctx, wf, "run-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, lock.Release(ctx, wf, "run-1"))
	holder, err = lock.Holder(ctx, wf)
	require.NoError(t, err)
	assert.Empty(t, holder)

	t.Run("ttl expires", func(t *testing.T) {
		ok, err := lock.Acquire(ctx, wf, "short", 200*time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Eventually(t, func() bool {
			ok, _ := lock.Acquire(ctx, wf, "after", time.Minute)
			return ok
		}, 3*time.Second, 50*time.Millisecond)

		ok, err = lock.Extend(ctx, wf, "short", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
