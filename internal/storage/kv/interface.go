package kv

import (
	"context"
)

// DB defines the basic operations any key/value backend must support.
type DB interface {
	Read(ctx context.Context, key []byte) ([]byte, error)
	Write(ctx context.Context, key []byte, value []byte) error
	Delete(ctx context.Context, key []byte) error

	// Batch applies all operations or none of them.
	Batch(ctx context.Context, ops []BatchOperation) error

	// Iterator walks keys in ascending byte order within [start, end).
	// A nil bound is open.
	Iterator(ctx context.Context, start, end []byte) (Iterator, error)

	Close() error
}

// Iterator allows traversing over key/value entries
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Error() error
	Close() error
}

// BatchOperation represents a single operation in a batch
type BatchOperation struct {
	Type  BatchOpType
	Key   []byte
	Value []byte
}

type BatchOpType int

const (
	BatchPut BatchOpType = iota
	BatchDelete
)

// PrefixEnd returns the smallest key greater than every key starting with
// prefix, or nil when no such key exists.
func PrefixEnd(prefix []byte) []byte {
	end := make([]byte, len(prefix))
	copy(end, prefix)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
