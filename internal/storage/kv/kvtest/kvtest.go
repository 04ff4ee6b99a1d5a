// Package kvtest holds a conformance suite shared by every kv backend.
package kvtest

import (
	"context"
	"testing"

	"github.com/LeJamon/goMarketd/internal/storage/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises db against the kv.DB contract. db must be empty.
func Run(t *testing.T, db kv.DB) {
	ctx := context.Background()

	t.Run("Read Write Delete", func(t *testing.T) {
		_, err := db.Read(ctx, []byte("missing"))
		assert.ErrorIs(t, err, kv.ErrKeyNotFound)

		require.NoError(t, db.Write(ctx, []byte("k1"), []byte("v1")))
		got, err := db.Read(ctx, []byte("k1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		require.NoError(t, db.Write(ctx, []byte("k1"), []byte("v2")))
		got, err = db.Read(ctx, []byte("k1"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)

		require.NoError(t, db.Delete(ctx, []byte("k1")))
		_, err = db.Read(ctx, []byte("k1"))
		assert.ErrorIs(t, err, kv.ErrKeyNotFound)
	})

	t.Run("Batch", func(t *testing.T) {
		require.NoError(t, db.Write(ctx, []byte("b/gone"), []byte("x")))

		err := db.Batch(ctx, []kv.BatchOperation{
			{Type: kv.BatchPut, Key: []byte("b/1"), Value: []byte("one")},
			{Type: kv.BatchPut, Key: []byte("b/2"), Value: []byte("two")},
			{Type: kv.BatchDelete, Key: []byte("b/gone")},
		})
		require.NoError(t, err)

		got, err := db.Read(ctx, []byte("b/2"))
		require.NoError(t, err)
		assert.Equal(t, []byte("two"), got)

		_, err = db.Read(ctx, []byte("b/gone"))
		assert.ErrorIs(t, err, kv.ErrKeyNotFound)
	})

	t.Run("Iterator Range", func(t *testing.T) {
		for _, k := range []string{"i/c", "i/a", "i/b", "j/a"} {
			require.NoError(t, db.Write(ctx, []byte(k), []byte("v:"+k)))
		}

		prefix := []byte("i/")
		it, err := db.Iterator(ctx, prefix, kv.PrefixEnd(prefix))
		require.NoError(t, err)
		defer it.Close()

		var keys []string
		for it.Next() {
			keys = append(keys, string(it.Key()))
			assert.Equal(t, "v:"+string(it.Key()), string(it.Value()))
		}
		require.NoError(t, it.Error())
		assert.Equal(t, []string{"i/a", "i/b", "i/c"}, keys)
	})

	t.Run("Iterator Empty Range", func(t *testing.T) {
		prefix := []byte("nothing/")
		it, err := db.Iterator(ctx, prefix, kv.PrefixEnd(prefix))
		require.NoError(t, err)
		defer it.Close()
		assert.False(t, it.Next())
	})
}
