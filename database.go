// Copyright 2025 Corvusec
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package threatbase

import (
	"context"
	"log/slog"

	"github.com/corvusec/threatbase/ai"
	"github.com/corvusec/threatbase/ai/heuristic"
	"github.com/corvusec/threatbase/ai/openai"
	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/feeds"
	"github.com/corvusec/threatbase/ingestion"
	"github.com/corvusec/threatbase/search"
	"github.com/corvusec/threatbase/storage"
	badgerstore "github.com/corvusec/threatbase/storage/badger"
)

// historicalContextLimit bounds each slice of GetHistoricalContext.
const historicalContextLimit = 10

// Database is the top-level handle over the threat knowledge store. It owns
// the badger backend, all repositories and the AI provider, and hands out
// the higher-level components (searcher, feed registry, ingestion
// coordinator) wired against them.
type Database struct {
	backend    *badgerstore.Backend
	indicators storage.IndicatorRepository
	techniques storage.TechniqueRepository
	analyses   storage.AnalysisRepository
	patterns   storage.PatternRepository
	feedRepo   storage.FeedRepository
	provider   ai.AIProvider
	classifier ai.Classifier
	embedder   ai.Embedder
	logger     *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig      *ai.Config
	provider      ai.AIProvider
	heuristicOnly bool
	inMemory      bool
}

// WithAIConfig overrides the AI endpoint configuration used to construct
// the default provider.
func WithAIConfig(cfg *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = cfg
	}
}

// WithAIProvider injects a pre-built provider instead of constructing one
// from config.
func WithAIProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithHeuristicClassification skips the remote AI provider entirely.
// Classification falls back to the rule-based classifier and indicators are
// stored without embeddings, so similarity queries degrade to text search.
func WithHeuristicClassification() DatabaseOption {
	return func(o *databaseOptions) {
		o.heuristicOnly = true
	}
}

// WithInMemory opens the backend without on-disk persistence.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badgerstore.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	indicators, err := badgerstore.NewIndicatorRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	techniques, err := badgerstore.NewTechniqueRepository(backend)
	if err != nil {
		indicators.Close()
		backend.Close()
		return nil, err
	}

	analyses, err := badgerstore.NewAnalysisRepository(backend)
	if err != nil {
		techniques.Close()
		indicators.Close()
		backend.Close()
		return nil, err
	}

	patterns, err := badgerstore.NewPatternRepository(backend)
	if err != nil {
		analyses.Close()
		techniques.Close()
		indicators.Close()
		backend.Close()
		return nil, err
	}

	feedRepo, err := badgerstore.NewFeedRepository(backend)
	if err != nil {
		patterns.Close()
		analyses.Close()
		techniques.Close()
		indicators.Close()
		backend.Close()
		return nil, err
	}

	db := &Database{
		backend:    backend,
		indicators: indicators,
		techniques: techniques,
		analyses:   analyses,
		patterns:   patterns,
		feedRepo:   feedRepo,
		logger:     slog.Default(),
	}

	switch {
	case options.heuristicOnly:
		db.classifier = heuristic.NewClassifier()
	case options.provider != nil:
		db.provider = options.provider
		db.classifier = options.provider.Classifier()
		db.embedder = options.provider.Embedder()
	default:
		provider, err := openai.NewProvider(options.aiConfig)
		if err != nil {
			db.closeRepositories()
			backend.Close()
			return nil, err
		}
		db.provider = provider
		db.classifier = provider.Classifier()
		db.embedder = provider.Embedder()
	}

	return db, nil
}

func (db *Database) Close() error {
	if db.provider != nil {
		if err := db.provider.Close(); err != nil {
			db.logger.Error("error closing AI provider", "err", err)
		}
	}

	if err := db.closeRepositories(); err != nil {
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) closeRepositories() error {
	var firstErr error
	for _, repo := range []storage.Repository{
		db.feedRepo, db.patterns, db.analyses, db.techniques, db.indicators,
	} {
		if err := repo.Close(); err != nil {
			db.logger.Error("error closing repository", "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (db *Database) IndicatorRepository() storage.IndicatorRepository {
	return db.indicators
}

func (db *Database) TechniqueRepository() storage.TechniqueRepository {
	return db.techniques
}

func (db *Database) AnalysisRepository() storage.AnalysisRepository {
	return db.analyses
}

func (db *Database) PatternRepository() storage.PatternRepository {
	return db.patterns
}

func (db *Database) FeedRepository() storage.FeedRepository {
	return db.feedRepo
}

// NewSearcher builds a searcher over the indicator table. When the database
// runs without an embedder the searcher serves text search only.
func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	if db.embedder != nil {
		opts = append([]search.Option{search.WithEmbedder(db.embedder)}, opts...)
	}
	return search.NewSearcher(db.indicators, opts...)
}

// NewCoordinator builds an ingestion coordinator wired against this
// database's repositories and classifier.
func (db *Database) NewCoordinator(opts ...ingestion.Option) (*ingestion.Coordinator, error) {
	if db.embedder != nil {
		opts = append([]ingestion.Option{ingestion.WithEmbedder(db.embedder)}, opts...)
	}
	return ingestion.NewCoordinator(db.indicators, db.techniques, db.analyses, db.classifier, opts...)
}

// NewFeedRegistry builds a feed registry backed by this database.
func (db *Database) NewFeedRegistry(ctx context.Context, opts ...feeds.RegistryOption) (*feeds.Registry, error) {
	return feeds.NewRegistry(ctx, db.feedRepo, opts...)
}

// NewFeedService wires a poller over the given registry and submitter and
// returns the managed polling service.
func (db *Database) NewFeedService(registry *feeds.Registry, submitter feeds.Submitter, opts ...feeds.PollerOption) (*feeds.Service, error) {
	poller, err := feeds.NewPoller(registry, submitter, opts...)
	if err != nil {
		return nil, err
	}
	return feeds.NewService(registry, poller, db.logger)
}

// GetStatistics aggregates indicator and analysis statistics into one
// snapshot.
func (db *Database) GetStatistics(ctx context.Context) (*core.StoreStatistics, error) {
	totalIndicators, riskDist, categoryDist, err := db.indicators.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	totalAnalyses, typeDist, err := db.analyses.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	return &core.StoreStatistics{
		TotalIndicators:      totalIndicators,
		RiskDistribution:     riskDist,
		CategoryDistribution: categoryDist,
		TotalAnalyses:        totalAnalyses,
		AnalysisDistribution: typeDist,
	}, nil
}

// GetHistoricalContext returns the most recent indicators, technique
// mappings and analyses, each capped at ten entries. Analyses are optionally
// restricted to a scope (feed name); an empty scope matches all.
func (db *Database) GetHistoricalContext(ctx context.Context, scope string) (*core.HistoricalContext, error) {
	indicators, err := db.indicators.Recent(ctx, historicalContextLimit)
	if err != nil {
		return nil, err
	}
	mappings, err := db.techniques.Recent(ctx, historicalContextLimit)
	if err != nil {
		return nil, err
	}
	analyses, err := db.analyses.Recent(ctx, scope, historicalContextLimit)
	if err != nil {
		return nil, err
	}
	return &core.HistoricalContext{
		RecentIndicators: indicators,
		RecentMappings:   mappings,
		RecentAnalyses:   analyses,
	}, nil
}
