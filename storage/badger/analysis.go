package badger

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/storage"
)

const analysisSequenceName = "anarecseq"

// AnalysisRepository implements storage.AnalysisRepository for BadgerDB.
type AnalysisRepository struct {
	backend  *Backend
	sequence *badger.Sequence
}

var _ storage.AnalysisRepository = (*AnalysisRepository)(nil)

// NewAnalysisRepository creates a new AnalysisRepository.
func NewAnalysisRepository(backend *Backend) (*AnalysisRepository, error) {
	seq, err := backend.GetSequence(analysisSequenceName)
	if err != nil {
		return nil, err
	}
	return &AnalysisRepository{
		backend:  backend,
		sequence: seq,
	}, nil
}

// Close releases the ID sequence.
func (r *AnalysisRepository) Close() error {
	return r.sequence.Release()
}

// Append stores an analysis record.
func (r *AnalysisRepository) Append(ctx context.Context, record *core.AnalysisRecord) (*core.AnalysisRecord, error) {
	if err := core.ValidateAnalysisRecord(record); err != nil {
		return nil, err
	}

	next, err := r.sequence.Next()
	if err != nil {
		return nil, err
	}
	record.Id = core.ID(next)
	record.CreatedAt = time.Now().UTC()

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeAnalysisKey(record.Id), storage.MarshalAnalysisRecord(record)); err != nil {
			return err
		}

		dateKey := makeTimeIndexKey(analysisDatePrefix, record.CreatedAt, record.Id)
		if err := tx.Set(dateKey, storage.MarshalID(record.Id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return record, nil
}

// Recent retrieves up to limit records ordered by CreatedAt descending.
// A non-empty scope restricts results to records with exactly that scope.
func (r *AnalysisRepository) Recent(ctx context.Context, scope string, limit int) ([]*core.AnalysisRecord, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var results []*core.AnalysisRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		startKey := makePartialTimeIndexKey(analysisDatePrefix,
			time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(analysisDatePrefix + ":")

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
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

			record, err := readAnalysis(tx, recordID)
			if err != nil {
				return err
			}
			if record == nil {
				continue
			}
			if scope != "" && record.Scope != scope {
				continue
			}
			results = append(results, record)
		}
		return nil
	}, false)
	return results, err
}

// Statistics aggregates the analysis log.
func (r *AnalysisRepository) Statistics(ctx context.Context) (int64, map[string]int64, error) {
	var total int64
	typeDist := make(map[string]int64)

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(analysisPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.AnalysisRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalAnalysisRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			total++
			typeDist[record.AnalysisType]++
		}
		return nil
	}, false)

	if err != nil {
		return 0, nil, err
	}
	return total, typeDist, nil
}

// readAnalysis reads an analysis record by ID within a transaction.
// Returns nil, nil if the record does not exist.
func readAnalysis(tx *badger.Txn, id core.ID) (*core.AnalysisRecord, error) {
	item, err := tx.Get(makeAnalysisKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var record *core.AnalysisRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalAnalysisRecord(val)
		return err
	})
	return record, err
}
