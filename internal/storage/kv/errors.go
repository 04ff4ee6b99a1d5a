package kv

import "errors"

var (
	// ErrDBClosed is returned when trying to operate on a closed database
	ErrDBClosed = errors.New("kv: database is closed")

	// ErrKeyNotFound is returned when a key doesn't exist
	ErrKeyNotFound = errors.New("kv: key not found")

	// ErrUnknownBackend is returned by Open for an unsupported backend type
	ErrUnknownBackend = errors.New("kv: unknown backend")
)
