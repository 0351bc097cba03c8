package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/importagent/core"
	"github.com/poiesic/importagent/storage"
)

// RunRepository implements storage.RunRepository for BadgerDB.
type RunRepository struct {
	backend *Backend
}

var _ storage.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new run ledger on top of backend.
func NewRunRepository(backend *Backend) (storage.RunRepository, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend required")
	}
	return &RunRepository{backend: backend}, nil
}

// Close is a no-op; the backend is closed by its owner.
func (r *RunRepository) Close() error {
	return nil
}

// SaveRun stores run together with its time indices.
func (r *RunRepository) SaveRun(ctx context.Context, run *core.ImportRun) error {
	if err := core.ValidateImportRun(run); err != nil {
		return err
	}
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		previous, err := r.readRun(tx, makeRunKey(run.ID))
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if previous != nil {
			if err := tx.Delete(makeRunTimeKey(previous.StartedAt, previous.ID)); err != nil {
				return err
			}
			if err := tx.Delete(makeRunImportKey(previous.ImportName, previous.StartedAt, previous.ID)); err != nil {
				return err
			}
		}

		if err := tx.Set(makeRunKey(run.ID), storage.MarshalImportRun(run)); err != nil {
			return err
		}
		id := []byte(run.ID)
		if err := tx.Set(makeRunTimeKey(run.StartedAt, run.ID), id); err != nil {
			return err
		}
		if err := tx.Set(makeRunImportKey(run.ImportName, run.StartedAt, run.ID), id); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetRun retrieves a run by ID.
func (r *RunRepository) GetRun(ctx context.Context, id string) (*core.ImportRun, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var run *core.ImportRun
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		run, err = r.readRun(tx, makeRunKey(id))
		return err
	}, false)
	return run, err
}

// ListRuns walks the time index backwards from the newest entry.
func (r *RunRepository) ListRuns(ctx context.Context, importName string, limit int) ([]*core.ImportRun, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	prefix := []byte(runByTimePrefix)
	if importName != "" {
		prefix = makeRunImportPrefix(importName)
	}

	var results []*core.ImportRun
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(seekEnd(prefix)); iter.Valid() && len(results) < limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			if !bytes.HasPrefix(item.Key(), prefix) {
				break
			}

			id, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			run, err := r.readRun(tx, makeRunKey(string(id)))
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			results = append(results, run)
		}
		return nil
	}, false)

	return results, err
}

func (r *RunRepository) readRun(tx *badger.Txn, key []byte) (*core.ImportRun, error) {
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var run *core.ImportRun
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		run, unmarshalErr = storage.UnmarshalImportRun(val)
		return unmarshalErr
	})
	return run, err
}
