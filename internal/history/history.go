// Package history keeps a linear undo/redo stack of scene snapshots.
//
// The stack has a cursor pointing at the entry that matches the current
// scene, or -1 before the first snapshot. Snapshot truncates everything after
// the cursor, so a new edit after an undo destroys the redo branch.
package history

import (
	"bytes"
	"fmt"
)

// Store is the part of a scene the manager snapshots and restores.
type Store interface {
	Serialize() ([]byte, error)
	Restore(snapshot []byte) error
}

// Manager is the undo/redo stack for one Store.
type Manager struct {
	store   Store
	entries [][]byte
	cursor  int
}

// New returns an empty manager bound to store.
func New(store Store) *Manager {
	return &Manager{store: store, cursor: -1}
}

// Snapshot records the current state of the store after the cursor,
// discarding any redo entries. It reports whether an entry was added; a state
// identical to the entry at the cursor is not recorded twice.
func (m *Manager) Snapshot() (bool, error) {
	data, err := m.store.Serialize()
	if err != nil {
		return false, fmt.Errorf("snapshot: %w", err)
	}
	if m.cursor >= 0 && bytes.Equal(m.entries[m.cursor], data) {
		return false, nil
	}
	m.entries = append(m.entries[:m.cursor+1], data)
	m.cursor++
	return true, nil
}

// Undo steps back one entry and restores it. At the first entry it does
// nothing and reports false.
func (m *Manager) Undo() (bool, error) {
	if m.cursor <= 0 {
		return false, nil
	}
	if err := m.store.Restore(m.entries[m.cursor-1]); err != nil {
		return false, fmt.Errorf("undo: %w", err)
	}
	m.cursor--
	return true, nil
}

// Redo steps forward one entry and restores it. At the last entry it does
// nothing and reports false.
func (m *Manager) Redo() (bool, error) {
	if m.cursor >= len(m.entries)-1 {
		return false, nil
	}
	if err := m.store.Restore(m.entries[m.cursor+1]); err != nil {
		return false, fmt.Errorf("redo: %w", err)
	}
	m.cursor++
	return true, nil
}

// Reset empties the stack.
func (m *Manager) Reset() {
	m.entries = nil
	m.cursor = -1
}

// CanUndo reports whether Undo would change anything.
func (m *Manager) CanUndo() bool { return m.cursor > 0 }

// CanRedo reports whether Redo would change anything.
func (m *Manager) CanRedo() bool { return m.cursor < len(m.entries)-1 }

// Len returns the number of entries.
func (m *Manager) Len() int { return len(m.entries) }

// Cursor returns the index of the current entry, -1 when empty.
func (m *Manager) Cursor() int { return m.cursor }
