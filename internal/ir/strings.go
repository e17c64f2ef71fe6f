package ir

import "math"

// StrIdx is a stable 32-bit index into the string arena.
type StrIdx uint32

// InvalidStrIdx is the sentinel for "no text".
const InvalidStrIdx StrIdx = math.MaxUint32

// IsValid reports whether the index refers to an interned string.
func (i StrIdx) IsValid() bool { return i != InvalidStrIdx }

// StringArena interns identifier, literal, comment and operator text and
// hands out stable indices. The arena is append-only; entries are never
// deleted or relocated within a session.
type StringArena struct {
	entries []string
	lookup  map[string]StrIdx
}

// NewStringArena creates an empty arena.
func NewStringArena() *StringArena {
	return &StringArena{
		lookup: make(map[string]StrIdx, 256),
	}
}

// Intern returns the index for text, adding it on first sight.
// Idempotent: Intern(x) == Intern(x) for the lifetime of the arena.
func (a *StringArena) Intern(text string) StrIdx {
	if idx, ok := a.lookup[text]; ok {
		return idx
	}
	idx := StrIdx(len(a.entries))
	a.entries = append(a.entries, text)
	a.lookup[text] = idx
	return idx
}

// Get returns the interned text for idx, or the empty string for the
// sentinel and out-of-range indices.
func (a *StringArena) Get(idx StrIdx) string {
	if !idx.IsValid() || int(idx) >= len(a.entries) {
		return ""
	}
	return a.entries[idx]
}

// Len reports the number of distinct interned strings.
func (a *StringArena) Len() int { return len(a.entries) }
