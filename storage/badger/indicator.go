package badger

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/storage"
)

// keyLockStripes is the size of the striped lock table that serializes
// concurrent upserts of the same natural key.
const keyLockStripes = 64

// IndicatorRepository implements storage.IndicatorRepository for BadgerDB.
type IndicatorRepository struct {
	backend *Backend
	locks   [keyLockStripes]sync.Mutex
}

var _ storage.IndicatorRepository = (*IndicatorRepository)(nil)

// NewIndicatorRepository creates a new IndicatorRepository.
func NewIndicatorRepository(backend *Backend) (*IndicatorRepository, error) {
	return &IndicatorRepository{
		backend: backend,
	}, nil
}

// Close releases resources. IndicatorRepository has no resources to release.
func (r *IndicatorRepository) Close() error {
	return nil
}

// keyLock returns the stripe lock guarding the given indicator ID.
func (r *IndicatorRepository) keyLock(id core.ID) *sync.Mutex {
	return &r.locks[uint64(id)%keyLockStripes]
}

// Upsert inserts a new indicator record or updates the existing one in place.
// The record's ID is derived from the natural key, so two feeds reporting the
// same indicator always land on the same row. The per-key stripe lock makes
// the read-modify-write atomic with respect to concurrent upserts.
func (r *IndicatorRepository) Upsert(ctx context.Context, record *core.IndicatorRecord) (core.ID, error) {
	if err := core.ValidateIndicatorRecord(record); err != nil {
		return 0, err
	}

	id := core.IDFromContent(record.Indicator)
	record.Id = id

	lock := r.keyLock(id)
	lock.Lock()
	defer lock.Unlock()

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeIndicatorKey(id)
		now := time.Now().UTC()

		existing, err := readIndicator(tx, key)
		if err != nil {
			return err
		}

		if existing == nil {
			record.FirstSeen = now
			record.LastSeen = now
			record.TimesSeen = 1
		} else {
			// Update path: keep the first observation's identity fields,
			// overwrite the classification fields.
			record.IndicatorType = existing.IndicatorType
			record.Source = existing.Source
			record.FirstSeen = existing.FirstSeen
			record.LastSeen = now
			record.TimesSeen = existing.TimesSeen + 1

			// Move the LastSeen index entry
			oldSeenKey := makeTimeIndexKey(indicatorSeenPrefix, existing.LastSeen, id)
			if err := tx.Delete(oldSeenKey); err != nil {
				return err
			}
		}

		if err := tx.Set(key, storage.MarshalIndicatorRecord(record)); err != nil {
			return err
		}

		seenKey := makeTimeIndexKey(indicatorSeenPrefix, record.LastSeen, id)
		if err := tx.Set(seenKey, storage.MarshalID(id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get retrieves a single indicator record by ID.
func (r *IndicatorRepository) Get(ctx context.Context, id core.ID) (*core.IndicatorRecord, error) {
	var result *core.IndicatorRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readIndicator(tx, makeIndicatorKey(id))
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

// GetByIndicator retrieves a record by its natural key.
func (r *IndicatorRepository) GetByIndicator(ctx context.Context, indicator string) (*core.IndicatorRecord, error) {
	return r.Get(ctx, core.IDFromContent(indicator))
}

// Exists reports whether an indicator is already known.
func (r *IndicatorRepository) Exists(ctx context.Context, indicator string) (bool, error) {
	exists := false
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get(makeIndicatorKey(core.IDFromContent(indicator)))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	}, false)
	return exists, err
}

// Recent retrieves up to limit records ordered by LastSeen descending.
func (r *IndicatorRepository) Recent(ctx context.Context, limit int) ([]*core.IndicatorRecord, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var results []*core.IndicatorRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		startKey := makePartialTimeIndexKey(indicatorSeenPrefix,
			time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(indicatorSeenPrefix + ":")

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) {
				break
			}

			var recordID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				recordID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			record, err := readIndicator(tx, makeIndicatorKey(recordID))
			if err != nil {
				return err
			}
			if record != nil {
				results = append(results, record)
			}
		}
		return nil
	}, false)

	return results, err
}

// FindSimilar ranks all records carrying an embedding by cosine similarity
// to the query vector. This is a deliberate brute-force scan; at the target
// scale it keeps ranking exact and deterministic.
func (r *IndicatorRepository) FindSimilar(ctx context.Context, vector []float32, limit int) ([]*core.IndicatorMatch, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var results []*core.IndicatorMatch

	err := r.scanRecords(func(record *core.IndicatorRecord) error {
		if len(record.Embedding) == 0 {
			return nil
		}
		results = append(results, &core.IndicatorMatch{
			Record:     record,
			Similarity: cosineSimilarity(vector, record.Embedding),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending, ties by TimesSeen descending
	slices.SortFunc(results, func(a, b *core.IndicatorMatch) int {
		if a.Similarity != b.Similarity {
			if a.Similarity > b.Similarity {
				return -1
			}
			return 1
		}
		if a.Record.TimesSeen != b.Record.TimesSeen {
			if a.Record.TimesSeen > b.Record.TimesSeen {
				return -1
			}
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchText performs the no-embedding fallback: case-insensitive substring
// match across indicator, category and risk level. Every match carries a
// fixed 0.5 similarity so consumers can always rely on the field.
func (r *IndicatorRepository) SearchText(ctx context.Context, query string, limit int) ([]*core.IndicatorMatch, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	needle := strings.ToLower(query)
	var results []*core.IndicatorMatch

	err := r.scanRecords(func(record *core.IndicatorRecord) error {
		if strings.Contains(strings.ToLower(record.Indicator), needle) ||
			strings.Contains(strings.ToLower(record.Category), needle) ||
			strings.Contains(record.RiskLevel.String(), needle) {
			results = append(results, &core.IndicatorMatch{
				Record:     record,
				Similarity: 0.5,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Rank by TimesSeen descending, then Confidence descending
	slices.SortFunc(results, func(a, b *core.IndicatorMatch) int {
		if a.Record.TimesSeen != b.Record.TimesSeen {
			if a.Record.TimesSeen > b.Record.TimesSeen {
				return -1
			}
			return 1
		}
		if a.Record.Confidence != b.Record.Confidence {
			if a.Record.Confidence > b.Record.Confidence {
				return -1
			}
			return 1
		}
		return 0
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Statistics aggregates the full indicator table.
func (r *IndicatorRepository) Statistics(ctx context.Context) (int64, map[string]int64, map[string]int64, error) {
	var total int64
	riskDist := make(map[string]int64)
	categoryDist := make(map[string]int64)

	err := r.scanRecords(func(record *core.IndicatorRecord) error {
		total++
		riskDist[record.RiskLevel.String()]++
		categoryDist[record.Category]++
		return nil
	})
	if err != nil {
		return 0, nil, nil, err
	}
	return total, riskDist, categoryDist, nil
}

// scanRecords iterates every indicator record, skipping index keys.
func (r *IndicatorRepository) scanRecords(fn func(record *core.IndicatorRecord) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(indicatorPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			var record *core.IndicatorRecord
			err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalIndicatorRecord(val)
				return err
			})
			if err != nil {
				return fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
			}
			if record == nil {
				continue
			}
			if err := fn(record); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// readIndicator reads an indicator record by key within a transaction.
// Returns nil, nil if the key does not exist.
func readIndicator(tx *badger.Txn, key []byte) (*core.IndicatorRecord, error) {
	item, err := tx.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record *core.IndicatorRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalIndicatorRecord(val)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrSerializationFailed, err)
	}
	return record, nil
}

// cosineSimilarity computes the cosine similarity of two vectors. Unlike a
// plain dot product it does not assume normalized inputs.
func cosineSimilarity(a, b []float32) float64 {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < minLen; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
