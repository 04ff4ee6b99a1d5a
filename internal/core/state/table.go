package state

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/LeJamon/goMarketd/internal/core/keylet"
)

// Action represents the type of modification to a state entry
type Action int

const (
	// ActionCache means the entry was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new entry was created
	ActionInsert
	// ActionModify means an existing entry was modified
	ActionModify
	// ActionErase means an entry was deleted
	ActionErase
)

// TrackedEntry represents a state entry being tracked for changes
type TrackedEntry struct {
	Action   Action
	Original []byte // Original state (nil for inserts)
	Current  []byte // Current state (nil after erase)
}

// Table stages every read and write of one operation on top of a Store.
// Nothing reaches the store until Apply; a table that is dropped leaves
// committed state untouched.
type Table struct {
	ctx     context.Context
	base    *Store
	items   map[string]*TrackedEntry
	applied bool
}

// Changes summarises what Apply committed.
type Changes struct {
	Created  int
	Modified int
	Deleted  int
}

// NewTable creates a staging table over base.
func NewTable(ctx context.Context, base *Store) *Table {
	return &Table{
		ctx:   ctx,
		base:  base,
		items: make(map[string]*TrackedEntry),
	}
}

// Read reads an entry, tracking it as cached
func (t *Table) Read(k keylet.Keylet) ([]byte, error) {
	if entry, exists := t.items[string(k.Key)]; exists {
		if entry.Action == ActionErase {
			return nil, nil
		}
		return entry.Current, nil
	}

	data, err := t.base.read(t.ctx, k.Key)
	if err != nil {
		return nil, err
	}

	// Only track entries that exist in the base
	if data != nil {
		t.items[string(k.Key)] = &TrackedEntry{
			Action:   ActionCache,
			Original: data,
			Current:  data,
		}
	}

	return data, nil
}

// Exists checks if an entry exists
func (t *Table) Exists(k keylet.Keylet) (bool, error) {
	if entry, exists := t.items[string(k.Key)]; exists {
		return entry.Action != ActionErase, nil
	}

	data, err := t.base.read(t.ctx, k.Key)
	return data != nil, err
}

// Insert adds a new entry
func (t *Table) Insert(k keylet.Keylet, data []byte) error {
	if entry, exists := t.items[string(k.Key)]; exists {
		if entry.Action != ActionErase {
			return fmt.Errorf("%w: %s", ErrEntryExists, k)
		}
		// Re-inserting a deleted entry becomes a modify
		entry.Action = ActionModify
		entry.Current = data
		return nil
	}

	exists, err := t.Exists(k)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrEntryExists, k)
	}

	t.items[string(k.Key)] = &TrackedEntry{
		Action:  ActionInsert,
		Current: data,
	}
	return nil
}

// Update modifies an existing entry
func (t *Table) Update(k keylet.Keylet, data []byte) error {
	entry, exists := t.items[string(k.Key)]
	if !exists {
		original, err := t.base.read(t.ctx, k.Key)
		if err != nil {
			return err
		}
		if original == nil {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
		}
		entry = &TrackedEntry{Action: ActionCache, Original: original}
		t.items[string(k.Key)] = entry
	}

	switch entry.Action {
	case ActionErase:
		return fmt.Errorf("%w: %s (deleted)", ErrEntryNotFound, k)
	case ActionCache:
		entry.Action = ActionModify
	}
	// For insert, keep it as insert with new data
	entry.Current = data
	return nil
}

// Erase deletes an entry
func (t *Table) Erase(k keylet.Keylet) error {
	entry, exists := t.items[string(k.Key)]
	if !exists {
		original, err := t.base.read(t.ctx, k.Key)
		if err != nil {
			return err
		}
		if original == nil {
			return fmt.Errorf("%w: %s", ErrEntryNotFound, k)
		}
		t.items[string(k.Key)] = &TrackedEntry{Action: ActionErase, Original: original}
		return nil
	}

	switch entry.Action {
	case ActionErase:
		return fmt.Errorf("%w: %s (deleted)", ErrEntryNotFound, k)
	case ActionInsert:
		// Inserted and erased within the table: nothing to commit
		delete(t.items, string(k.Key))
	default:
		entry.Action = ActionErase
		entry.Current = nil
	}
	return nil
}

// Apply commits every staged change to the base store as one batch.
// A table can be applied once.
func (t *Table) Apply() (Changes, error) {
	var summary Changes
	if t.applied {
		return summary, fmt.Errorf("state table already applied")
	}

	keys := make([]string, 0, len(t.items))
	for key, entry := range t.items {
		if entry.Action != ActionCache {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	changes := make([]change, 0, len(keys))
	for _, key := range keys {
		entry := t.items[key]
		switch entry.Action {
		case ActionInsert:
			summary.Created++
			changes = append(changes, change{key: []byte(key), data: entry.Current})
		case ActionModify:
			if bytes.Equal(entry.Original, entry.Current) {
				continue
			}
			summary.Modified++
			changes = append(changes, change{key: []byte(key), data: entry.Current})
		case ActionErase:
			summary.Deleted++
			changes = append(changes, change{key: []byte(key)})
		}
	}

	if err := t.base.commit(t.ctx, changes); err != nil {
		return Changes{}, err
	}
	t.applied = true
	return summary, nil
}

// Touched reports how many entries the table has staged or read.
func (t *Table) Touched() int {
	return len(t.items)
}

// change is one committed write; nil data means delete.
type change struct {
	key  []byte
	data []byte
}
