package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/storage"
)

func newTestFeedRepository(t *testing.T) *FeedRepository {
	t.Helper()

	repo, err := NewFeedRepository(newTestBackend(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, repo.Close())
	})
	return repo
}

func sampleFeed(name string) *core.FeedDescriptor {
	return &core.FeedDescriptor{
		Name:         name,
		Endpoint:     "https://feeds.example.com/" + name,
		Encoding:     core.FeedEncodingStructured,
		PollInterval: time.Hour,
		Active:       true,
		AuthHeaders:  map[string]string{"Authorization": "Bearer token"},
	}
}

func TestFeedRepository_SaveLoad(t *testing.T) {
	repo := newTestFeedRepository(t)
	ctx := context.Background()

	feed := sampleFeed("urlhaus")
	require.NoError(t, repo.Save(ctx, feed))

	loaded, err := repo.Load(ctx, "urlhaus")
	require.NoError(t, err)
	assert.Equal(t, feed, loaded)
	assert.True(t, loaded.LastUpdated.IsZero())
}

func TestFeedRepository_SaveOverwrites(t *testing.T) {
	repo := newTestFeedRepository(t)
	ctx := context.Background()

	feed := sampleFeed("urlhaus")
	require.NoError(t, repo.Save(ctx, feed))

	feed.LastUpdated = time.Now().UTC().Truncate(time.Microsecond)
	feed.Active = false
	require.NoError(t, repo.Save(ctx, feed))

	loaded, err := repo.Load(ctx, "urlhaus")
	require.NoError(t, err)
	assert.False(t, loaded.Active)
	assert.True(t, feed.LastUpdated.Equal(loaded.LastUpdated))
}

func TestFeedRepository_LoadNotFound(t *testing.T) {
	repo := newTestFeedRepository(t)

	_, err := repo.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFeedRepository_SaveInvalid(t *testing.T) {
	repo := newTestFeedRepository(t)
	ctx := context.Background()

	err := repo.Save(ctx, &core.FeedDescriptor{Endpoint: "https://x", PollInterval: time.Hour})
	assert.ErrorIs(t, err, core.ErrEmptyFeedName)

	err = repo.Save(ctx, &core.FeedDescriptor{Name: "x", Endpoint: "https://x"})
	assert.ErrorIs(t, err, core.ErrInvalidPollInterval)
}

func TestFeedRepository_LoadAll(t *testing.T) {
	repo := newTestFeedRepository(t)
	ctx := context.Background()

	for _, name := range []string{"urlhaus", "misp", "phishtank"} {
		require.NoError(t, repo.Save(ctx, sampleFeed(name)))
	}

	all, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
