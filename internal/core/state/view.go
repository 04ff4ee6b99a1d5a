// Package state provides the committed state store and the per-operation
// staging table through which every mutation flows.
package state

import (
	"errors"

	"github.com/LeJamon/goMarketd/internal/core/keylet"
)

var (
	// ErrEntryExists is returned by Insert when the key is already present.
	ErrEntryExists = errors.New("state: entry already exists")

	// ErrEntryNotFound is returned by Update and Erase on absent keys.
	ErrEntryNotFound = errors.New("state: entry not found")
)

// ReadView is read access to state. Read returns nil data for absent keys.
type ReadView interface {
	Read(k keylet.Keylet) ([]byte, error)
	Exists(k keylet.Keylet) (bool, error)
}

// View is read-write access to state.
type View interface {
	ReadView
	Insert(k keylet.Keylet, data []byte) error
	Update(k keylet.Keylet, data []byte) error
	Erase(k keylet.Keylet) error
}
