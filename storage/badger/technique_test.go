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

func TestTechniqueRepository_Add(t *testing.T) {
	backend := newTestBackend(t)
	indicators, err := NewIndicatorRepository(backend)
	require.NoError(t, err)
	repo, err := NewTechniqueRepository(backend)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, repo.Close())
		require.NoError(t, indicators.Close())
	})
	ctx := context.Background()

	indicatorID, err := indicators.Upsert(ctx, sampleIndicator("evil-bank.tk"))
	require.NoError(t, err)

	mapping, err := repo.Add(ctx, &core.TechniqueMapping{
		IndicatorId:   indicatorID,
		TechniqueId:   "T1566.002",
		TechniqueName: "Spearphishing Link",
		Confidence:    0.7,
	})
	require.NoError(t, err)
	assert.NotZero(t, mapping.Id)
	assert.False(t, mapping.CreatedAt.IsZero())

	byIndicator, err := repo.GetByIndicator(ctx, indicatorID)
	require.NoError(t, err)
	require.Len(t, byIndicator, 1)
	assert.Equal(t, "T1566.002", byIndicator[0].TechniqueId)
}

func TestTechniqueRepository_AddDanglingIndicator(t *testing.T) {
	repo, err := NewTechniqueRepository(newTestBackend(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, repo.Close())
	})

	_, err = repo.Add(context.Background(), &core.TechniqueMapping{
		IndicatorId: core.ID(99999),
		TechniqueId: "T1566.002",
		Confidence:  0.7,
	})
	assert.ErrorIs(t, err, storage.ErrIndicatorNotFound)
}

func TestTechniqueRepository_Recent(t *testing.T) {
	backend := newTestBackend(t)
	indicators, err := NewIndicatorRepository(backend)
	require.NoError(t, err)
	repo, err := NewTechniqueRepository(backend)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, repo.Close())
		require.NoError(t, indicators.Close())
	})
	ctx := context.Background()

	indicatorID, err := indicators.Upsert(ctx, sampleIndicator("evil-bank.tk"))
	require.NoError(t, err)

	for _, techniqueID := range []string{"T1566.001", "T1566.002", "T1204.001"} {
		_, err := repo.Add(ctx, &core.TechniqueMapping{
			IndicatorId: indicatorID,
			TechniqueId: techniqueID,
			Confidence:  0.6,
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "T1204.001", recent[0].TechniqueId)
	assert.Equal(t, "T1566.002", recent[1].TechniqueId)

	_, err = repo.Recent(ctx, -1)
	assert.ErrorIs(t, err, storage.ErrInvalidQuery)
}
