// Package badgerdb provides a BadgerDB-backed Adapter for embedded
// deployments that outgrow the filesystem adapter's per-file overhead.
package badgerdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/hyphadb/hypha/backend"
)

// Adapter implements backend.Adapter over a Badger key-value store.
// Object paths map directly to keys.
type Adapter struct {
	db      *badger.DB
	profile backend.BatchProfile
}

var (
	_ backend.Adapter     = (*Adapter)(nil)
	_ backend.BatchReader = (*Adapter)(nil)
	_ backend.BatchWriter = (*Adapter)(nil)
)

// Open opens (or creates) a Badger database at dir.
func Open(dir string) (*Adapter, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}

	return &Adapter{
		db: db,
		profile: backend.BatchProfile{
			MaxBatchSize:           1024,
			MaxConcurrent:          32,
			SupportsParallelWrites: true,
		},
	}, nil
}

// Close closes the underlying database.
func (a *Adapter) Close() error { return a.db.Close() }

// WriteObject stores value at path.
func (a *Adapter) WriteObject(ctx context.Context, path string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), value)
	})
}

// ReadObject returns the object at path, or backend.ErrNotFound.
func (a *Adapter) ReadObject(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteObject removes the object at path; absent keys are ignored.
func (a *Adapter) DeleteObject(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(path))
	})
}

// ListPaths returns all keys with the given prefix in sorted order.
func (a *Adapter) ListPaths(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths := make([]string, 0)
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			paths = append(paths, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// ReadObjects fetches several objects inside one read transaction.
func (a *Adapter) ReadObjects(ctx context.Context, paths []string) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string][]byte, len(paths))
	err := a.db.View(func(txn *badger.Txn) error {
		for _, p := range paths {
			item, err := txn.Get([]byte(p))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[p] = val
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteObjects stores several objects through one write batch.
func (a *Adapter) WriteObjects(ctx context.Context, objects map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	wb := a.db.NewWriteBatch()
	defer wb.Cancel()

	for p, v := range objects {
		if err := wb.Set([]byte(p), v); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// Profile declares the adapter's batch characteristics.
func (a *Adapter) Profile() backend.BatchProfile { return a.profile }
