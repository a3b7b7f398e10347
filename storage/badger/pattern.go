package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/storage"
)

// PatternRepository implements storage.PatternRepository for BadgerDB.
type PatternRepository struct {
	backend *Backend
}

var _ storage.PatternRepository = (*PatternRepository)(nil)

// NewPatternRepository creates a new PatternRepository.
func NewPatternRepository(backend *Backend) (*PatternRepository, error) {
	return &PatternRepository{
		backend: backend,
	}, nil
}

// Close releases resources. PatternRepository has no resources to release.
func (r *PatternRepository) Close() error {
	return nil
}

// Upsert stores a pattern keyed by its (type, text) tuple. Re-upserting the
// same tuple overwrites the pattern, keeping CreatedAt and refreshing
// UpdatedAt.
func (r *PatternRepository) Upsert(ctx context.Context, pattern *core.KnowledgePattern) (*core.KnowledgePattern, error) {
	if err := core.ValidateKnowledgePattern(pattern); err != nil {
		return nil, err
	}

	id := core.IDFromContent(pattern.Tuple())
	pattern.Id = id
	now := time.Now().UTC()

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := readPattern(tx, id)
		if err != nil {
			return err
		}

		if existing == nil {
			pattern.CreatedAt = now
		} else {
			pattern.CreatedAt = existing.CreatedAt
		}
		pattern.UpdatedAt = now

		if err := tx.Set(makePatternKey(id), storage.MarshalKnowledgePattern(pattern)); err != nil {
			return err
		}

		typeKey := makePatternTypeKey(pattern.PatternType, id)
		if err := tx.Set(typeKey, storage.MarshalID(id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return pattern, nil
}

// Get retrieves a single pattern by ID.
func (r *PatternRepository) Get(ctx context.Context, id core.ID) (*core.KnowledgePattern, error) {
	var result *core.KnowledgePattern
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readPattern(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetByType retrieves all patterns of the given type.
func (r *PatternRepository) GetByType(ctx context.Context, patternType string) ([]*core.KnowledgePattern, error) {
	var results []*core.KnowledgePattern
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(patternTypePrefix + ":" + patternType + ":")

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var patternID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				patternID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			pattern, err := readPattern(tx, patternID)
			if err != nil {
				return err
			}
			if pattern != nil {
				results = append(results, pattern)
			}
		}
		return nil
	}, false)
	return results, err
}

// readPattern reads a pattern by ID within a transaction.
// Returns nil, nil if the pattern does not exist.
func readPattern(tx *badger.Txn, id core.ID) (*core.KnowledgePattern, error) {
	item, err := tx.Get(makePatternKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var pattern *core.KnowledgePattern
	err = item.Value(func(val []byte) error {
		var err error
		pattern, err = storage.UnmarshalKnowledgePattern(val)
		return err
	})
	return pattern, err
}
