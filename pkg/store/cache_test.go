package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/variantlab/variantkit/pkg/store"
)

func newTestCache(t *testing.T, opts ...store.CacheOption) (*store.Cache, *store.MemoryStorage) {
	t.Helper()

	storage := store.NewMemoryStorage()
	cache, err := store.NewCache(storage, opts...)
	require.NoError(t, err)
	t.Cleanup(cache.Close)

	require.NoError(t, cache.Load(context.Background()))
	return cache, storage
}

func TestNewCache_NilStorage(t *testing.T) {
	t.Parallel()

	_, err := store.NewCache(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrStorageNil)
}

func TestCache_Load(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("ColdStartGeneratesSession", func(t *testing.T) {
		t.Parallel()
		cache, _ := newTestCache(t)
		assert.NotEmpty(t, cache.SessionID())
		assert.Empty(t, cache.UserID())
	})

	t.Run("HydratesPersistedSnapshot", func(t *testing.T) {
		t.Parallel()
		storage := store.NewMemoryStorage()

		first, err := store.NewCache(storage)
		require.NoError(t, err)
		require.NoError(t, first.Load(ctx))
		require.NoError(t, first.SetRemoteData(ctx,
			map[string]any{"theme": "dark"}, nil, map[string]any{"hero": "v2"}))
		session := first.SessionID()
		first.Close()

		second, err := store.NewCache(storage)
		require.NoError(t, err)
		t.Cleanup(second.Close)
		require.NoError(t, second.Load(ctx))

		v, err := second.Config("theme")
		require.NoError(t, err)
		assert.Equal(t, "dark", v)
		assert.Equal(t, session, second.SessionID())
	})

	t.Run("DiscardsCorruptBlob", func(t *testing.T) {
		t.Parallel()
		storage := store.NewMemoryStorage()
		require.NoError(t, storage.SetItem(ctx, "variantkit.snapshot", "{not json"))

		cache, err := store.NewCache(storage)
		require.NoError(t, err)
		t.Cleanup(cache.Close)
		require.NoError(t, cache.Load(ctx))

		_, err = cache.Config("anything")
		assert.ErrorIs(t, err, store.ErrKeyNotFound)
		assert.NotEmpty(t, cache.SessionID())
	})

	t.Run("DiscardsUnknownVersion", func(t *testing.T) {
		t.Parallel()
		storage := store.NewMemoryStorage()
		blob, err := json.Marshal(map[string]any{
			"version": 99,
			"configs": map[string]any{"theme": "dark"},
		})
		require.NoError(t, err)
		require.NoError(t, storage.SetItem(ctx, "variantkit.snapshot", string(blob)))

		cache, err := store.NewCache(storage)
		require.NoError(t, err)
		t.Cleanup(cache.Close)
		require.NoError(t, cache.Load(ctx))

		_, err = cache.Config("theme")
		assert.ErrorIs(t, err, store.ErrKeyNotFound)
	})
}

func TestCache_WriteThrough(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cache, storage := newTestCache(t)

	require.NoError(t, cache.SetRemoteData(ctx,
		map[string]any{"k": "v"}, json.RawMessage(`[]`), nil))

	// Every mutation must land in storage immediately.
	raw, err := storage.GetItem(ctx, "variantkit.snapshot")
	require.NoError(t, err)

	var snap store.Snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	assert.Equal(t, store.SnapshotVersion, snap.Version)
	assert.Equal(t, "v", snap.Configs["k"])
	assert.False(t, snap.LastFetch.IsZero())
}

func TestCache_Stale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cache, _ := newTestCache(t, store.WithNow(clock))
	assert.True(t, cache.Stale(time.Hour), "never-fetched snapshot is stale")

	require.NoError(t, cache.SetRemoteData(ctx, map[string]any{"k": "v"}, nil, nil))
	assert.False(t, cache.Stale(time.Hour))

	now = now.Add(59 * time.Minute)
	assert.False(t, cache.Stale(time.Hour), "age < ttl is fresh")

	now = now.Add(time.Minute)
	assert.True(t, cache.Stale(time.Hour), "age >= ttl is stale")
}

func TestCache_Assignments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("MemoizedOncePerEpoch", func(t *testing.T) {
		t.Parallel()
		cache, _ := newTestCache(t)

		first := store.Assignment{
			EventType:  store.EventImpression,
			ContentID:  "10",
			CampaignID: "pricing",
			SessionID:  cache.SessionID(),
			Timestamp:  time.Now(),
		}
		got, won, err := cache.PutAssignment(ctx, first)
		require.NoError(t, err)
		require.True(t, won)
		assert.Equal(t, "10", got.ContentID)

		// A racing second decision must lose to the memo.
		second := first
		second.ContentID = "20"
		got, won, err = cache.PutAssignment(ctx, second)
		require.NoError(t, err)
		assert.False(t, won)
		assert.Equal(t, "10", got.ContentID)

		memo, ok := cache.Assignment("pricing")
		require.True(t, ok)
		assert.Equal(t, "10", memo.ContentID)
	})

	t.Run("SurvivesUserIDChange", func(t *testing.T) {
		t.Parallel()
		cache, _ := newTestCache(t)

		_, _, err := cache.PutAssignment(ctx, store.Assignment{
			EventType:  store.EventImpression,
			ContentID:  "10",
			CampaignID: "pricing",
		})
		require.NoError(t, err)

		oldSession := cache.SessionID()
		require.NoError(t, cache.SetUserID(ctx, "u-42"))

		assert.Equal(t, "u-42", cache.UserID())
		assert.NotEqual(t, oldSession, cache.SessionID(), "session must rotate")

		_, ok := cache.Assignment("pricing")
		assert.True(t, ok, "assignments survive identity updates")
	})

	t.Run("ClearedByReset", func(t *testing.T) {
		t.Parallel()
		cache, _ := newTestCache(t)

		_, _, err := cache.PutAssignment(ctx, store.Assignment{
			CampaignID: "pricing", ContentID: "10",
		})
		require.NoError(t, err)

		oldSession := cache.SessionID()
		require.NoError(t, cache.Reset(ctx))

		_, ok := cache.Assignment("pricing")
		assert.False(t, ok)
		assert.NotEqual(t, oldSession, cache.SessionID())
		assert.Empty(t, cache.UserID())
	})
}

func TestCache_Identifier(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cache, _ := newTestCache(t)
	assert.Equal(t, cache.SessionID(), cache.Identifier(), "anonymous sessions assign by session id")

	require.NoError(t, cache.SetUserID(ctx, "u-42"))
	assert.Equal(t, "u-42", cache.Identifier())
}

func TestCache_Content(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	cache, _ := newTestCache(t)
	require.NoError(t, cache.SetRemoteData(ctx, nil, nil, map[string]any{"hero": "v2"}))

	v, err := cache.Content("hero")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	// Second read is served by the transient cache.
	v, err = cache.Content("hero")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	_, err = cache.Content("missing")
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}
