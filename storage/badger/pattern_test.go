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

func newTestPatternRepository(t *testing.T) *PatternRepository {
	t.Helper()

	repo, err := NewPatternRepository(newTestBackend(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, repo.Close())
	})
	return repo
}

func TestPatternRepository_Upsert(t *testing.T) {
	repo := newTestPatternRepository(t)
	ctx := context.Background()

	pattern, err := repo.Upsert(ctx, &core.KnowledgePattern{
		PatternType:        "url_structure",
		PatternText:        "login page on non-standard port",
		PatternRules:       `{"port": "!= 443"}`,
		EffectivenessScore: 0.6,
	})
	require.NoError(t, err)
	assert.NotZero(t, pattern.Id)
	created := pattern.CreatedAt

	time.Sleep(2 * time.Millisecond)

	// Same tuple overwrites in place
	updated, err := repo.Upsert(ctx, &core.KnowledgePattern{
		PatternType:        "url_structure",
		PatternText:        "login page on non-standard port",
		EffectivenessScore: 0.9,
		UsageCount:         5,
	})
	require.NoError(t, err)
	assert.Equal(t, pattern.Id, updated.Id)
	assert.Equal(t, created, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created))

	stored, err := repo.Get(ctx, pattern.Id)
	require.NoError(t, err)
	assert.Equal(t, 0.9, stored.EffectivenessScore)
	assert.Equal(t, int64(5), stored.UsageCount)
}

func TestPatternRepository_UpsertInvalid(t *testing.T) {
	repo := newTestPatternRepository(t)
	ctx := context.Background()

	_, err := repo.Upsert(ctx, &core.KnowledgePattern{PatternText: "no type"})
	assert.ErrorIs(t, err, core.ErrInvalidKnowledgePattern)

	_, err = repo.Upsert(ctx, &core.KnowledgePattern{PatternType: "no text"})
	assert.ErrorIs(t, err, core.ErrInvalidKnowledgePattern)
}

func TestPatternRepository_GetNotFound(t *testing.T) {
	repo := newTestPatternRepository(t)

	_, err := repo.Get(context.Background(), core.ID(42))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPatternRepository_GetByType(t *testing.T) {
	repo := newTestPatternRepository(t)
	ctx := context.Background()

	for _, pattern := range []*core.KnowledgePattern{
		{PatternType: "url_structure", PatternText: "a"},
		{PatternType: "url_structure", PatternText: "b"},
		{PatternType: "tld", PatternText: "c"},
	} {
		_, err := repo.Upsert(ctx, pattern)
		require.NoError(t, err)
	}

	urlPatterns, err := repo.GetByType(ctx, "url_structure")
	require.NoError(t, err)
	assert.Len(t, urlPatterns, 2)

	none, err := repo.GetByType(ctx, "registrar")
	require.NoError(t, err)
	assert.Empty(t, none)
}
