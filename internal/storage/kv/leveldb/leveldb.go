package leveldb

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/LeJamon/goMarketd/internal/storage/kv"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var syncWrite = &opt.WriteOptions{Sync: true}

type DB struct {
	db *leveldb.DB
}

// Open opens or creates a LevelDB directory at path.
func Open(path string) (*DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

func (l *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if l.db == nil {
		return nil, kv.ErrDBClosed
	}
	value, err := l.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, kv.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (l *DB) Write(ctx context.Context, key, value []byte) error {
	if l.db == nil {
		return kv.ErrDBClosed
	}
	return l.db.Put(key, value, syncWrite)
}

func (l *DB) Delete(ctx context.Context, key []byte) error {
	if l.db == nil {
		return kv.ErrDBClosed
	}
	return l.db.Delete(key, syncWrite)
}

func (l *DB) Batch(ctx context.Context, ops []kv.BatchOperation) error {
	if l.db == nil {
		return kv.ErrDBClosed
	}

	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case kv.BatchPut:
			batch.Put(op.Key, op.Value)
		case kv.BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	return l.db.Write(batch, syncWrite)
}

type Iterator struct {
	iter iterator.Iterator
}

func (l *DB) Iterator(ctx context.Context, start, end []byte) (kv.Iterator, error) {
	if l.db == nil {
		return nil, kv.ErrDBClosed
	}
	return &Iterator{iter: l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)}, nil
}

func (it *Iterator) Next() bool { return it.iter.Next() }

func (it *Iterator) Key() []byte { return bytes.Clone(it.iter.Key()) }

func (it *Iterator) Value() []byte { return bytes.Clone(it.iter.Value()) }

func (it *Iterator) Error() error { return it.iter.Error() }

func (it *Iterator) Close() error {
	it.iter.Release()
	return nil
}

func (l *DB) Close() error {
	if l.db == nil {
		return kv.ErrDBClosed
	}
	err := l.db.Close()
	l.db = nil
	return err
}
