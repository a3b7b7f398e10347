package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvusec/threatbase/ai"
	"github.com/corvusec/threatbase/ai/mock"
	"github.com/corvusec/threatbase/core"
	badgerstore "github.com/corvusec/threatbase/storage/badger"
)

type testRepos struct {
	indicators *badgerstore.IndicatorRepository
	techniques *badgerstore.TechniqueRepository
	analyses   *badgerstore.AnalysisRepository
}

func newTestRepos(t *testing.T) *testRepos {
	t.Helper()

	backend, err := badgerstore.OpenBackend("", true)
	require.NoError(t, err)

	indicators, err := badgerstore.NewIndicatorRepository(backend)
	require.NoError(t, err)
	techniques, err := badgerstore.NewTechniqueRepository(backend)
	require.NoError(t, err)
	analyses, err := badgerstore.NewAnalysisRepository(backend)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, analyses.Close())
		require.NoError(t, techniques.Close())
		require.NoError(t, indicators.Close())
		require.NoError(t, backend.Close())
	})
	return &testRepos{indicators: indicators, techniques: techniques, analyses: analyses}
}

func newTestCoordinator(t *testing.T, repos *testRepos, classifier ai.Classifier, opts ...Option) *Coordinator {
	t.Helper()

	coordinator, err := NewCoordinator(repos.indicators, repos.techniques, repos.analyses, classifier, opts...)
	require.NoError(t, err)
	t.Cleanup(coordinator.Release)
	return coordinator
}

func TestNewCoordinator_RequiredDependencies(t *testing.T) {
	repos := newTestRepos(t)
	classifier := mock.NewMockClassifier()

	_, err := NewCoordinator(nil, repos.techniques, repos.analyses, classifier)
	assert.ErrorIs(t, err, ErrIndicatorRepositoryRequired)

	_, err = NewCoordinator(repos.indicators, nil, repos.analyses, classifier)
	assert.ErrorIs(t, err, ErrTechniqueRepositoryRequired)

	_, err = NewCoordinator(repos.indicators, repos.techniques, nil, classifier)
	assert.ErrorIs(t, err, ErrAnalysisRepositoryRequired)

	_, err = NewCoordinator(repos.indicators, repos.techniques, repos.analyses, nil)
	assert.ErrorIs(t, err, ErrClassifierRequired)
}

func TestCoordinator_ProcessBatch(t *testing.T) {
	repos := newTestRepos(t)
	coordinator := newTestCoordinator(t, repos, mock.NewMockClassifier())
	ctx := context.Background()

	candidates := []*core.CandidateIndicator{
		{Value: "evil-phish.tk", Type: core.IndicatorTypeDomain, Source: "urlhaus", ThreatTypeHint: "phishing", Tags: []string{"banking"}},
		{Value: "plain.example", Type: core.IndicatorTypeDomain, Source: "urlhaus"},
	}

	stored, err := coordinator.ProcessBatch(ctx, "urlhaus", candidates)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	// Classified per the mock's rules
	record, err := repos.indicators.GetByIndicator(ctx, "evil-phish.tk")
	require.NoError(t, err)
	assert.Equal(t, core.RiskLevelHigh, record.RiskLevel)
	assert.Equal(t, "phishing", record.Category)
	assert.Equal(t, "phishing", record.Metadata["threat_type"])
	assert.Equal(t, `["banking"]`, record.Metadata["tags"])

	// Phishing indicators gain a technique mapping
	mappings, err := repos.techniques.GetByIndicator(ctx, record.Id)
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "T1566.002", mappings[0].TechniqueId)

	// Unknown-category indicators gain none
	other, err := repos.indicators.GetByIndicator(ctx, "plain.example")
	require.NoError(t, err)
	mappings, err = repos.techniques.GetByIndicator(ctx, other.Id)
	require.NoError(t, err)
	assert.Empty(t, mappings)

	// The batch leaves one feed_processing record scoped to the feed
	analyses, err := repos.analyses.Recent(ctx, "urlhaus", 10)
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "feed_processing", analyses[0].AnalysisType)
	assert.NotEmpty(t, analyses[0].SessionId)
	assert.Contains(t, analyses[0].OutputPayload, `"stored":2`)
}

func TestCoordinator_EmptyBatch(t *testing.T) {
	repos := newTestRepos(t)
	coordinator := newTestCoordinator(t, repos, mock.NewMockClassifier())

	stored, err := coordinator.ProcessBatch(context.Background(), "urlhaus", nil)
	require.NoError(t, err)
	assert.Zero(t, stored)

	// No analysis record for an empty batch
	analyses, err := repos.analyses.Recent(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Empty(t, analyses)
}

func TestCoordinator_CandidateFailureIsolation(t *testing.T) {
	repos := newTestRepos(t)

	classifier := mock.NewMockClassifier()
	classifier.ClassifyFunc = func(ctx context.Context, indicator string, similar []ai.SimilarContext) (*ai.Classification, error) {
		if indicator == "broken.example" {
			return nil, errors.New("classifier exploded")
		}
		return &ai.Classification{RiskLevel: "medium", Category: "unknown", Confidence: 0.5}, nil
	}

	coordinator := newTestCoordinator(t, repos, classifier)
	ctx := context.Background()

	stored, err := coordinator.ProcessBatch(ctx, "urlhaus", []*core.CandidateIndicator{
		{Value: "fine.example", Type: core.IndicatorTypeDomain, Source: "urlhaus"},
		{Value: "broken.example", Type: core.IndicatorTypeDomain, Source: "urlhaus"},
		{Value: "also-fine.example", Type: core.IndicatorTypeDomain, Source: "urlhaus"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	_, err = repos.indicators.GetByIndicator(ctx, "fine.example")
	assert.NoError(t, err)
	exists, err := repos.indicators.Exists(ctx, "broken.example")
	require.NoError(t, err)
	assert.False(t, exists)

	analyses, err := repos.analyses.Recent(ctx, "urlhaus", 10)
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Contains(t, analyses[0].OutputPayload, `"failed":1`)
}

func TestCoordinator_SimilarityReuse(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()

	// Known indicator with a stored classification and embedding
	_, err := repos.indicators.Upsert(ctx, &core.IndicatorRecord{
		Indicator:     "known-evil.tk",
		IndicatorType: core.IndicatorTypeDomain,
		RiskLevel:     core.RiskLevelCritical,
		Category:      "c2",
		Confidence:    0.95,
		Source:        "misp",
		Embedding:     []float32{1, 0, 0},
	})
	require.NoError(t, err)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	classifier := mock.NewMockClassifier()
	coordinator := newTestCoordinator(t, repos, classifier, WithEmbedder(embedder))

	stored, err := coordinator.ProcessBatch(ctx, "urlhaus", []*core.CandidateIndicator{
		{Value: "known-evil-mirror.tk", Type: core.IndicatorTypeDomain, Source: "urlhaus"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	// The stored verdict was reused without invoking the classifier
	assert.Zero(t, classifier.CallCount())

	record, err := repos.indicators.GetByIndicator(ctx, "known-evil-mirror.tk")
	require.NoError(t, err)
	assert.Equal(t, core.RiskLevelCritical, record.RiskLevel)
	assert.Equal(t, "c2", record.Category)
	assert.Equal(t, 0.95, record.Confidence)
	assert.Equal(t, "memory", record.Metadata["classification_source"])
	assert.NotEmpty(t, record.Embedding)

	analyses, err := repos.analyses.Recent(ctx, "urlhaus", 10)
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Contains(t, analyses[0].OutputPayload, `"reused":1`)
}

func TestCoordinator_DuplicateCandidatesInBatch(t *testing.T) {
	repos := newTestRepos(t)
	coordinator := newTestCoordinator(t, repos, mock.NewMockClassifier(), WithPoolSize(4))
	ctx := context.Background()

	batch := make([]*core.CandidateIndicator, 10)
	for i := range batch {
		batch[i] = &core.CandidateIndicator{
			Value:  "repeated.example",
			Type:   core.IndicatorTypeDomain,
			Source: "urlhaus",
		}
	}

	stored, err := coordinator.ProcessBatch(ctx, "urlhaus", batch)
	require.NoError(t, err)
	assert.Equal(t, 10, stored)

	record, err := repos.indicators.GetByIndicator(ctx, "repeated.example")
	require.NoError(t, err)
	assert.Equal(t, int64(10), record.TimesSeen)

	total, _, _, err := repos.indicators.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCoordinator_EmbedFailureNonFatal(t *testing.T) {
	repos := newTestRepos(t)

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}

	coordinator := newTestCoordinator(t, repos, mock.NewMockClassifier(), WithEmbedder(embedder))
	ctx := context.Background()

	stored, err := coordinator.ProcessBatch(ctx, "urlhaus", []*core.CandidateIndicator{
		{Value: "no-vector.example", Type: core.IndicatorTypeDomain, Source: "urlhaus"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	record, err := repos.indicators.GetByIndicator(ctx, "no-vector.example")
	require.NoError(t, err)
	assert.Empty(t, record.Embedding)
}
