// Package memory provides an in-process kv.DB used by tests and by the
// "memory" database type.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/LeJamon/goMarketd/internal/storage/kv"
)

type DB struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool
}

func New() *DB {
	return &DB{data: make(map[string][]byte)}
}

func (m *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, kv.ErrDBClosed
	}
	value, ok := m.data[string(key)]
	if !ok {
		return nil, kv.ErrKeyNotFound
	}
	return bytes.Clone(value), nil
}

func (m *DB) Write(ctx context.Context, key []byte, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return kv.ErrDBClosed
	}
	m.data[string(key)] = bytes.Clone(value)
	return nil
}

func (m *DB) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return kv.ErrDBClosed
	}
	delete(m.data, string(key))
	return nil
}

func (m *DB) Batch(ctx context.Context, ops []kv.BatchOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return kv.ErrDBClosed
	}
	for _, op := range ops {
		if op.Type != kv.BatchPut && op.Type != kv.BatchDelete {
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	for _, op := range ops {
		switch op.Type {
		case kv.BatchPut:
			m.data[string(op.Key)] = bytes.Clone(op.Value)
		case kv.BatchDelete:
			delete(m.data, string(op.Key))
		}
	}
	return nil
}

// Iterator walks a snapshot taken when the iterator is created.
type Iterator struct {
	keys     []string
	values   [][]byte
	position int
}

func (m *DB) Iterator(ctx context.Context, start, end []byte) (kv.Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, kv.ErrDBClosed
	}

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		key := []byte(k)
		if start != nil && bytes.Compare(key, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(key, end) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = bytes.Clone(m.data[k])
	}

	return &Iterator{keys: keys, values: values, position: -1}, nil
}

func (it *Iterator) Next() bool {
	it.position++
	return it.position < len(it.keys)
}

func (it *Iterator) Key() []byte {
	if it.position >= 0 && it.position < len(it.keys) {
		return []byte(it.keys[it.position])
	}
	return nil
}

func (it *Iterator) Value() []byte {
	if it.position >= 0 && it.position < len(it.values) {
		return it.values[it.position]
	}
	return nil
}

func (it *Iterator) Error() error { return nil }

func (it *Iterator) Close() error { return nil }

func (m *DB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
