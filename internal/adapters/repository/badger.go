package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
)

const badgerKeyPrefix = "replay/"

// BadgerBackend stores blobs in an embedded badger database.
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend opens (or creates) a badger database at path. An empty
// path opens an in-memory database.
func NewBadgerBackend(path string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open %q: %w", path, err)
	}
	return &BadgerBackend{db: db}, nil
}

// Name implements Backend.
func (b *BadgerBackend) Name() string { return BackendBadger }

// Put implements Backend.
func (b *BadgerBackend) Put(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(badgerKeyPrefix+key), blob)
	})
}

// Get implements Backend.
func (b *BadgerBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var blob []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("badger get %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("badger get %s: %w", key, err)
	}
	return blob, nil
}

// Delete implements Backend.
func (b *BadgerBackend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerKeyPrefix + key))
	})
}

// Keys implements Backend.
func (b *BadgerBackend) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(badgerKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, string(it.Item().Key()[len(badgerKeyPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger keys: %w", err)
	}
	return keys, nil
}

// Size implements Sizer with badger's LSM and value log sizes.
func (b *BadgerBackend) Size() int64 {
	lsm, vlog := b.db.Size()
	return lsm + vlog
}

// Close implements Backend.
func (b *BadgerBackend) Close() error { return b.db.Close() }
