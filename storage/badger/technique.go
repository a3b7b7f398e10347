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

const mappingSequenceName = "ttprecseq"

// TechniqueRepository implements storage.TechniqueRepository for BadgerDB.
type TechniqueRepository struct {
	backend  *Backend
	sequence *badger.Sequence
}

var _ storage.TechniqueRepository = (*TechniqueRepository)(nil)

// NewTechniqueRepository creates a new TechniqueRepository.
func NewTechniqueRepository(backend *Backend) (*TechniqueRepository, error) {
	seq, err := backend.GetSequence(mappingSequenceName)
	if err != nil {
		return nil, err
	}
	return &TechniqueRepository{
		backend:  backend,
		sequence: seq,
	}, nil
}

// Close releases the ID sequence.
func (r *TechniqueRepository) Close() error {
	return r.sequence.Release()
}

// Add stores a new technique mapping. The referenced indicator must exist;
// dangling mappings are rejected with storage.ErrIndicatorNotFound.
func (r *TechniqueRepository) Add(ctx context.Context, mapping *core.TechniqueMapping) (*core.TechniqueMapping, error) {
	if err := core.ValidateTechniqueMapping(mapping); err != nil {
		return nil, err
	}

	next, err := r.sequence.Next()
	if err != nil {
		return nil, err
	}
	mapping.Id = core.ID(next)
	mapping.CreatedAt = time.Now().UTC()

	err = r.backend.WithTx(func(tx *badger.Txn) error {
		if _, err := tx.Get(makeIndicatorKey(mapping.IndicatorId)); err == badger.ErrKeyNotFound {
			return storage.ErrIndicatorNotFound
		} else if err != nil {
			return err
		}

		if err := tx.Set(makeMappingKey(mapping.Id), storage.MarshalTechniqueMapping(mapping)); err != nil {
			return err
		}

		indKey := makeMappingIndicatorKey(mapping.IndicatorId, mapping.Id)
		if err := tx.Set(indKey, storage.MarshalID(mapping.Id)); err != nil {
			return err
		}

		dateKey := makeTimeIndexKey(mappingDatePrefix, mapping.CreatedAt, mapping.Id)
		if err := tx.Set(dateKey, storage.MarshalID(mapping.Id)); err != nil {
			return err
		}

		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return mapping, nil
}

// GetByIndicator retrieves all mappings recorded for an indicator.
func (r *TechniqueRepository) GetByIndicator(ctx context.Context, indicatorID core.ID) ([]*core.TechniqueMapping, error) {
	var results []*core.TechniqueMapping
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialMappingIndicatorKey(indicatorID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			mapping, err := resolveMapping(tx, iter.Item())
			if err != nil {
				return err
			}
			if mapping != nil {
				results = append(results, mapping)
			}
		}
		return nil
	}, false)
	return results, err
}

// Recent retrieves up to limit mappings ordered by CreatedAt descending.
func (r *TechniqueRepository) Recent(ctx context.Context, limit int) ([]*core.TechniqueMapping, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var results []*core.TechniqueMapping
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true

		iter := tx.NewIterator(opts)
		defer iter.Close()

		startKey := makePartialTimeIndexKey(mappingDatePrefix,
			time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC))
		prefix := []byte(mappingDatePrefix + ":")

		for iter.Seek(startKey); iter.Valid() && len(results) < limit; iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
				break
			}
			mapping, err := resolveMapping(tx, iter.Item())
			if err != nil {
				return err
			}
			if mapping != nil {
				results = append(results, mapping)
			}
		}
		return nil
	}, false)
	return results, err
}

// resolveMapping dereferences an index entry to its mapping record.
func resolveMapping(tx *badger.Txn, item *badger.Item) (*core.TechniqueMapping, error) {
	var mappingID core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		mappingID, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return nil, err
	}

	recordItem, err := tx.Get(makeMappingKey(mappingID))
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var mapping *core.TechniqueMapping
	err = recordItem.Value(func(val []byte) error {
		var err error
		mapping, err = storage.UnmarshalTechniqueMapping(val)
		return err
	})
	return mapping, err
}
