// Package storage opens the persistence backends selected by configuration.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/LeJamon/goMarketd/internal/storage/kv"
	"github.com/LeJamon/goMarketd/internal/storage/kv/bbolt"
	"github.com/LeJamon/goMarketd/internal/storage/kv/leveldb"
	"github.com/LeJamon/goMarketd/internal/storage/kv/memory"
	"github.com/LeJamon/goMarketd/internal/storage/kv/pebble"
)

// Backend names accepted by OpenKV.
const (
	BackendPebble  = "pebble"
	BackendBBolt   = "bbolt"
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"
)

// OpenKV opens the state database of the given backend under dir.
func OpenKV(backend, dir string) (kv.DB, error) {
	if backend != BackendMemory {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	switch backend {
	case BackendPebble:
		return pebble.Open(filepath.Join(dir, "state.db"))
	case BackendBBolt:
		return bbolt.Open(filepath.Join(dir, "state.bolt"), nil)
	case BackendLevelDB:
		return leveldb.Open(filepath.Join(dir, "state.ldb"))
	case BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", kv.ErrUnknownBackend, backend)
	}
}
