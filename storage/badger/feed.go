package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/storage"
)

// FeedRepository implements storage.FeedRepository for BadgerDB.
type FeedRepository struct {
	backend *Backend
}

var _ storage.FeedRepository = (*FeedRepository)(nil)

// NewFeedRepository creates a new FeedRepository.
func NewFeedRepository(backend *Backend) (*FeedRepository, error) {
	return &FeedRepository{
		backend: backend,
	}, nil
}

// Close releases resources. FeedRepository has no resources to release.
func (r *FeedRepository) Close() error {
	return nil
}

// Save stores a descriptor keyed by its name.
func (r *FeedRepository) Save(ctx context.Context, feed *core.FeedDescriptor) error {
	if err := core.ValidateFeedDescriptor(feed); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeFeedKey(feed.Name), storage.MarshalFeedDescriptor(feed)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Load retrieves a descriptor by name.
func (r *FeedRepository) Load(ctx context.Context, name string) (*core.FeedDescriptor, error) {
	var result *core.FeedDescriptor
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFeedKey(name))
		if err == badger.ErrKeyNotFound {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			result, err = storage.UnmarshalFeedDescriptor(val)
			return err
		})
	}, false)
	return result, err
}

// LoadAll retrieves every stored descriptor.
func (r *FeedRepository) LoadAll(ctx context.Context) ([]*core.FeedDescriptor, error) {
	var results []*core.FeedDescriptor
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(feedPrefix + ":")

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var feed *core.FeedDescriptor
			err := iter.Item().Value(func(val []byte) error {
				var err error
				feed, err = storage.UnmarshalFeedDescriptor(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, feed)
		}
		return nil
	}, false)
	return results, err
}
