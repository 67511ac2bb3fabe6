package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour, zap.NewNop())

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s := New("sess-1", "Opening.", []string{"1. Go."})
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, s.Snapshot(), got.Snapshot())

	require.NoError(t, store.Delete(ctx, "sess-1"))
	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "sess-1"), ErrSessionNotFound)
}

func TestMemoryStore_GetReturnsIndependentCopy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0, zap.NewNop())
	require.NoError(t, store.Save(ctx, New("sess-1", "Opening.", []string{"1. Go."})))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.NoError(t, got.AcceptInput("go"))

	// Не сохраненный ход не виден следующему чтению.
	again, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingInput, again.State())
	assert.Empty(t, again.History())
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute, zap.NewNop())
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, New("a", "Opening.", nil)))
	require.NoError(t, store.Save(ctx, New("b", "Opening.", nil)))

	now = now.Add(30 * time.Second)
	_, err := store.Get(ctx, "a")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, 1, store.PurgeExpired())
	assert.Equal(t, 0, store.PurgeExpired())
}
