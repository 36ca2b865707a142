//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/resumeforge/resumeforge/internal/config"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, config.StoreConfig{Path: "file:" + t.TempDir() + "/cache.db"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	// Migrations are idempotent.
	require.NoError(t, s.Migrate(ctx))
	return s
}

func TestGenerationRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Unix(1_700_000_000, 0).UTC()

	got, err := s.GetGeneration(ctx, "k1", now)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, s.PutGeneration(ctx, Generation{
		Key:          "k1",
		PromptSlug:   "resume-tailor",
		Model:        "gpt-4o-mini",
		ResponseJSON: `{"profile":"x"}`,
	}, time.Hour, now))

	got, err = s.GetGeneration(ctx, "k1", now.Add(time.Minute))
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, `{"profile":"x"}`, got.ResponseJSON)
	require.Equal(t, "gpt-4o-mini", got.Model)
	require.Equal(t, int64(1), got.HitCount)
	require.Equal(t, now.Add(time.Hour), got.ExpiresAt)

	// Expired entries are misses.
	got, err = s.GetGeneration(ctx, "k1", now.Add(time.Hour))
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestPutGenerationReplacesEntry(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Unix(1_700_000_000, 0).UTC()

	require.NoError(t, s.PutGeneration(ctx, Generation{Key: "k", PromptSlug: "p", Model: "m", ResponseJSON: "old"}, time.Hour, now))
	_, err := s.GetGeneration(ctx, "k", now)
	require.NoError(t, err)
	require.NoError(t, s.PutGeneration(ctx, Generation{Key: "k", PromptSlug: "p", Model: "m", ResponseJSON: "new"}, time.Hour, now))

	got, err := s.GetGeneration(ctx, "k", now)
	require.NoError(t, err)
	require.Equal(t, "new", got.ResponseJSON)
	require.Equal(t, int64(1), got.HitCount)

	// Zero TTL stores nothing.
	require.NoError(t, s.PutGeneration(ctx, Generation{Key: "zero", ResponseJSON: "x"}, 0, now))
	got, err = s.GetGeneration(ctx, "zero", now)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestPurgeAndListGenerations(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Unix(1_700_000_000, 0).UTC()

	require.NoError(t, s.PutGeneration(ctx, Generation{Key: "short", PromptSlug: "p", Model: "m", ResponseJSON: "{}"}, time.Minute, now))
	require.NoError(t, s.PutGeneration(ctx, Generation{Key: "long", PromptSlug: "p", Model: "m", ResponseJSON: "{}"}, time.Hour, now.Add(time.Second)))

	list, err := s.ListGenerations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "long", list[0].Key)

	removed, err := s.PurgeExpiredGenerations(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	list, err = s.ListGenerations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	cleared, err := s.ClearGenerations(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), cleared)
}

func TestGenerationCacheAdapter(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	now := time.Unix(1_700_000_000, 0).UTC()

	cache := NewGenerationCache(s, time.Hour)
	cache.clock = func() time.Time { return now }

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Put(ctx, "k", "resume-tailor", "gpt-4o-mini", []byte(`{"skills":["Go"]}`)))

	payload, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"skills":["Go"]}`, string(payload))

	now = now.Add(2 * time.Hour)
	_, ok, err = cache.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}
