package vm

import (
	"sync"

	"golang.org/x/text/cases"
)

// ---------------------------------------------------------------------------
// StringTable: Interned property names
// ---------------------------------------------------------------------------

// StringTable interns names to unique IDs and remembers, for every ID, the
// ID of its case-folded form. ID 0 is always the empty string.
type StringTable struct {
	mu     sync.RWMutex
	byName map[string]uint32 // name -> ID
	byID   []string          // ID -> name
	folded []uint32          // ID -> ID of the folded name
	fold   cases.Caser       // guarded by mu (write lock)
}

// NewStringTable creates a table holding only the empty string.
func NewStringTable() *StringTable {
	st := &StringTable{
		byName: make(map[string]uint32),
		byID:   make([]string, 0, 256),
		folded: make([]uint32, 0, 256),
		fold:   cases.Fold(),
	}
	st.Intern("")
	return st
}

// Intern returns the ID for name, creating a new one if needed.
func (st *StringTable) Intern(name string) uint32 {
	// Fast path: read-only lookup
	st.mu.RLock()
	if id, ok := st.byName[name]; ok {
		st.mu.RUnlock()
		return id
	}
	st.mu.RUnlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	return st.internLocked(name)
}

func (st *StringTable) internLocked(name string) uint32 {
	if id, ok := st.byName[name]; ok {
		return id
	}
	id := uint32(len(st.byID))
	st.byName[name] = id
	st.byID = append(st.byID, name)
	st.folded = append(st.folded, id)

	lower := st.fold.String(name)
	if lower != name {
		st.folded[id] = st.internLocked(lower)
	}
	return id
}

// Lookup returns the ID for name without interning it.
func (st *StringTable) Lookup(name string) (uint32, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.byName[name]
	return id, ok
}

// Value returns the string for an ID, or "" if invalid.
func (st *StringTable) Value(id uint32) string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if int(id) >= len(st.byID) {
		return ""
	}
	return st.byID[id]
}

// NoCase returns the ID of the case-folded form of id.
func (st *StringTable) NoCase(id uint32) uint32 {
	st.mu.RLock()
	defer st.mu.RUnlock()
	if int(id) >= len(st.folded) {
		return id
	}
	return st.folded[id]
}

// Len returns the number of interned strings.
func (st *StringTable) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.byID)
}
