package storage

import (
	"context"

	"github.com/corvusec/threatbase/core"
)

// Repository provides operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close closes the storage backend and releases resources.
	Close() error
}

// IndicatorRepository provides operations for managing indicator records.
type IndicatorRepository interface {
	Repository

	// Upsert inserts a new indicator record or updates the existing one with
	// the same natural key. A duplicate is the update path, never an error:
	// the update increments TimesSeen, refreshes LastSeen and overwrites
	// risk/category/confidence/metadata/embedding while preserving
	// FirstSeen, IndicatorType and Source from the first observation.
	// Concurrent upserts of the same indicator serialize through per-key
	// locks. Returns the record's stable internal ID.
	Upsert(ctx context.Context, record *core.IndicatorRecord) (core.ID, error)

	// Get retrieves a single indicator record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, id core.ID) (*core.IndicatorRecord, error)

	// GetByIndicator retrieves a record by its natural key.
	// Returns ErrNotFound if no record exists for the indicator.
	GetByIndicator(ctx context.Context, indicator string) (*core.IndicatorRecord, error)

	// Exists reports whether an indicator is already known.
	Exists(ctx context.Context, indicator string) (bool, error)

	// Recent retrieves up to limit records ordered by LastSeen descending.
	Recent(ctx context.Context, limit int) ([]*core.IndicatorRecord, error)

	// FindSimilar ranks all records carrying an embedding by cosine
	// similarity to the query vector, descending, ties broken by TimesSeen
	// descending. Returns at most limit matches.
	FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.IndicatorMatch, error)

	// SearchText performs a case-insensitive substring match across the
	// indicator value, category and risk level, ranked by TimesSeen then
	// Confidence descending. Every match carries a fixed 0.5 similarity.
	SearchText(ctx context.Context, query string, limit int) ([]*core.IndicatorMatch, error)

	// Statistics aggregates the full indicator table: total count plus
	// risk-level and category distributions.
	Statistics(ctx context.Context) (total int64, riskDist, categoryDist map[string]int64, err error)
}

// TechniqueRepository provides append-only storage of technique mappings.
type TechniqueRepository interface {
	Repository

	// Add appends a mapping for an existing indicator. Returns
	// ErrIndicatorNotFound if the referenced indicator does not exist.
	Add(ctx context.Context, mapping *core.TechniqueMapping) (*core.TechniqueMapping, error)

	// GetByIndicator retrieves all mappings for an indicator.
	GetByIndicator(ctx context.Context, indicatorId core.ID) ([]*core.TechniqueMapping, error)

	// Recent retrieves up to limit mappings ordered by CreatedAt descending.
	Recent(ctx context.Context, limit int) ([]*core.TechniqueMapping, error)
}

// AnalysisRepository provides append-only storage of analysis records.
type AnalysisRepository interface {
	Repository

	// Append stores an analysis record. Always succeeds absent a
	// storage-layer failure.
	Append(ctx context.Context, record *core.AnalysisRecord) (*core.AnalysisRecord, error)

	// Recent retrieves up to limit records ordered by CreatedAt descending,
	// optionally restricted to an exact scope. An empty scope matches all.
	Recent(ctx context.Context, scope string, limit int) ([]*core.AnalysisRecord, error)

	// Statistics aggregates the analysis log: total count plus the
	// per-analysis-type distribution.
	Statistics(ctx context.Context) (total int64, typeDist map[string]int64, err error)
}

// PatternRepository provides storage of derived knowledge patterns.
// Patterns are produced by the external learning layer; the store only
// persists and retrieves them.
type PatternRepository interface {
	Repository

	// Upsert stores a pattern, keyed by its (type, text) tuple. An existing
	// pattern is overwritten with UpdatedAt refreshed and CreatedAt kept.
	Upsert(ctx context.Context, pattern *core.KnowledgePattern) (*core.KnowledgePattern, error)

	// Get retrieves a single pattern by ID.
	// Returns ErrNotFound if the pattern doesn't exist.
	Get(ctx context.Context, id core.ID) (*core.KnowledgePattern, error)

	// GetByType retrieves all patterns of the given type.
	GetByType(ctx context.Context, patternType string) ([]*core.KnowledgePattern, error)
}

// FeedRepository persists feed descriptors so LastUpdated survives restarts.
type FeedRepository interface {
	Repository

	// Save stores a descriptor keyed by its name, overwriting any previous
	// version.
	Save(ctx context.Context, feed *core.FeedDescriptor) error

	// Load retrieves a descriptor by name.
	// Returns ErrNotFound if no descriptor with that name is stored.
	Load(ctx context.Context, name string) (*core.FeedDescriptor, error)

	// LoadAll retrieves every stored descriptor.
	LoadAll(ctx context.Context) ([]*core.FeedDescriptor, error)
}
