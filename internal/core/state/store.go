package state

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/LeJamon/goMarketd/internal/core/keylet"
	"github.com/LeJamon/goMarketd/internal/storage/kv"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of committed records kept decoded in memory.
const DefaultCacheSize = 4096

// Options configures a Store.
type Options struct {
	// Compression is CompressionNone or CompressionLZ4.
	Compression string

	// CacheSize bounds the committed-read cache. Zero uses DefaultCacheSize.
	CacheSize int
}

// Store is the committed state. It is only written through Table.Apply.
type Store struct {
	db          kv.DB
	compression string
	cache       *lru.Cache[string, []byte]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewStore wraps db.
func NewStore(db kv.DB, opts Options) (*Store, error) {
	switch opts.Compression {
	case "":
		opts.Compression = CompressionNone
	case CompressionNone, CompressionLZ4:
	default:
		return nil, fmt.Errorf("unknown compression: %s", opts.Compression)
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}

	cache, err := lru.New[string, []byte](opts.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:          db,
		compression: opts.Compression,
		cache:       cache,
	}, nil
}

// View returns a read view of committed state bound to ctx.
func (s *Store) View(ctx context.Context) ReadView {
	return &storeView{ctx: ctx, store: s}
}

func (s *Store) read(ctx context.Context, key []byte) ([]byte, error) {
	if data, ok := s.cache.Get(string(key)); ok {
		s.hits.Add(1)
		return data, nil
	}
	s.misses.Add(1)

	frame, err := s.db.Read(ctx, key)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := decodeFrame(frame)
	if err != nil {
		return nil, fmt.Errorf("key %x: %w", key, err)
	}
	s.cache.Add(string(key), data)
	return data, nil
}

// Scan calls fn for every committed record whose key starts with prefix, in
// key order, until fn returns false or an error.
func (s *Store) Scan(ctx context.Context, prefix []byte, fn func(key, data []byte) (bool, error)) error {
	it, err := s.db.Iterator(ctx, prefix, kv.PrefixEnd(prefix))
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := decodeFrame(it.Value())
		if err != nil {
			return fmt.Errorf("key %x: %w", it.Key(), err)
		}
		more, err := fn(it.Key(), data)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return it.Error()
}

// commit writes all changes as one batch and refreshes the cache.
func (s *Store) commit(ctx context.Context, changes []change) error {
	if len(changes) == 0 {
		return nil
	}

	ops := make([]kv.BatchOperation, 0, len(changes))
	for _, c := range changes {
		if c.data == nil {
			ops = append(ops, kv.BatchOperation{Type: kv.BatchDelete, Key: c.key})
			continue
		}
		frame, err := encodeFrame(c.data, s.compression)
		if err != nil {
			return err
		}
		ops = append(ops, kv.BatchOperation{Type: kv.BatchPut, Key: c.key, Value: frame})
	}

	if err := s.db.Batch(ctx, ops); err != nil {
		// Next read goes to the backend.
		for _, c := range changes {
			s.cache.Remove(string(c.key))
		}
		return fmt.Errorf("failed to commit state: %w", err)
	}

	for _, c := range changes {
		if c.data == nil {
			s.cache.Remove(string(c.key))
		} else {
			s.cache.Add(string(c.key), c.data)
		}
	}
	return nil
}

// CacheStats reports committed-read cache hits and misses.
func (s *Store) CacheStats() (hits, misses uint64) {
	return s.hits.Load(), s.misses.Load()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.cache.Purge()
	return s.db.Close()
}

type storeView struct {
	ctx   context.Context
	store *Store
}

func (v *storeView) Read(k keylet.Keylet) ([]byte, error) {
	return v.store.read(v.ctx, k.Key)
}

func (v *storeView) Exists(k keylet.Keylet) (bool, error) {
	data, err := v.store.read(v.ctx, k.Key)
	return data != nil, err
}
