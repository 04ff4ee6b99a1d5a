package pebble

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goMarketd/internal/storage/kv"
	"github.com/cockroachdb/pebble"
)

type DB struct {
	db *pebble.DB
}

// Open opens or creates a pebble database at path.
func Open(path string) (*DB, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database at %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

func (p *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if p.db == nil {
		return nil, kv.ErrDBClosed
	}

	val, closer, err := p.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, kv.ErrKeyNotFound
		}
		return nil, err
	}
	defer closer.Close()

	return bytes.Clone(val), nil
}

func (p *DB) Write(ctx context.Context, key, value []byte) error {
	if p.db == nil {
		return kv.ErrDBClosed
	}
	return p.db.Set(key, value, pebble.Sync)
}

func (p *DB) Delete(ctx context.Context, key []byte) error {
	if p.db == nil {
		return kv.ErrDBClosed
	}
	return p.db.Delete(key, pebble.Sync)
}

func (p *DB) Batch(ctx context.Context, ops []kv.BatchOperation) error {
	if p.db == nil {
		return kv.ErrDBClosed
	}

	batch := p.db.NewBatch()
	defer batch.Close()

	for _, op := range ops {
		switch op.Type {
		case kv.BatchPut:
			if err := batch.Set(op.Key, op.Value, nil); err != nil {
				return err
			}
		case kv.BatchDelete:
			if err := batch.Delete(op.Key, nil); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}

	return batch.Commit(pebble.Sync)
}

type Iterator struct {
	iter    *pebble.Iterator
	started bool
	err     error
}

func (p *DB) Iterator(ctx context.Context, start, end []byte) (kv.Iterator, error) {
	if p.db == nil {
		return nil, kv.ErrDBClosed
	}

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: start,
		UpperBound: end,
	})
	if err != nil {
		return nil, err
	}
	return &Iterator{iter: iter}, nil
}

func (it *Iterator) Next() bool {
	if !it.started {
		it.started = true
		return it.iter.First()
	}
	return it.iter.Next()
}

func (it *Iterator) Key() []byte {
	return bytes.Clone(it.iter.Key())
}

func (it *Iterator) Value() []byte {
	return bytes.Clone(it.iter.Value())
}

func (it *Iterator) Error() error {
	if err := it.iter.Error(); err != nil {
		return err
	}
	return it.err
}

func (it *Iterator) Close() error {
	return it.iter.Close()
}

func (p *DB) Close() error {
	if p.db == nil {
		return kv.ErrDBClosed
	}
	err := p.db.Close()
	p.db = nil
	return err
}
