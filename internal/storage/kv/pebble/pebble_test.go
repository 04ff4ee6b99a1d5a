package pebble

import (
	"path/filepath"
	"testing"

	"github.com/LeJamon/goMarketd/internal/storage/kv/kvtest"
	"github.com/stretchr/testify/require"
)

func TestPebbleDB(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer db.Close()

	kvtest.Run(t, db)
}
