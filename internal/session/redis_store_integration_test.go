//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"adventure-server/internal/session"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

// setupRedis поднимает контейнер Redis и возвращает клиента к нему.
func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "failed to start redis container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestRedisStore_Integration(t *testing.T) {
	client := setupRedis(t)
	store := session.NewRedisStore(client, time.Minute, zap.NewNop())
	ctx := context.Background()

	s := session.New("sess-redis", "Opening.", []string{"1. Go north.", "2. Go south."})
	require.NoError(t, s.AcceptInput("go north"))
	require.NoError(t, s.AcceptGeneratedSegment("The wind howled.", []string{"1. Keep going."}))
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, "sess-redis")
	require.NoError(t, err)
	assert.Equal(t, s.History(), got.History())
	assert.Equal(t, s.Transcript(), got.Transcript())
	assert.Equal(t, s.Choices(), got.Choices())
	assert.Equal(t, 1, got.InputCount())
	assert.Equal(t, session.StateAwaitingInput, got.State())

	ttl, err := client.TTL(ctx, "story_session:sess-redis").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Delete(ctx, "sess-redis"))
	_, err = store.Get(ctx, "sess-redis")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "sess-redis"), session.ErrSessionNotFound)
}
