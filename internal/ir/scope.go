package ir

import (
	"fmt"
	"math"
)

// ScopeIndex is a stable index into the scope arena.
type ScopeIndex uint32

const (
	// InvalidScopeIndex is the sentinel for "no scope". The root scope's
	// Parent field holds it.
	InvalidScopeIndex ScopeIndex = math.MaxUint32

	// RootScopeIndex is always the first scope allocated in an arena.
	RootScopeIndex ScopeIndex = 0

	// maxScopeIndex caps the arena so any index fits the high-bit
	// ContextualKind encoding.
	maxScopeIndex = math.MaxInt32 - 1
)

// IsValid reports whether the index refers to an allocated scope.
func (i ScopeIndex) IsValid() bool { return i != InvalidScopeIndex }

// ScopeType classifies a structural region by what its header announced.
type ScopeType uint8

const (
	ScopeTopLevel ScopeType = iota
	ScopeNamedFunction
	ScopeNamedClass
	ScopeConditional
	ScopeLoop
	ScopeTry
	ScopeNaked
)

var scopeTypeNames = [...]string{
	ScopeTopLevel:      "TopLevel",
	ScopeNamedFunction: "NamedFunction",
	ScopeNamedClass:    "NamedClass",
	ScopeConditional:   "Conditional",
	ScopeLoop:          "Loop",
	ScopeTry:           "Try",
	ScopeNaked:         "Naked",
}

func (t ScopeType) String() string {
	if int(t) < len(scopeTypeNames) {
		return scopeTypeNames[t]
	}
	return fmt.Sprintf("ScopeType(%d)", int(t))
}

// Instruction is a maximal token slice between two structural boundaries.
// Tokens holds indices into the owning stream; Contextual starts empty and
// is populated once by the contextualiser.
type Instruction struct {
	Tokens     []uint32
	Contextual []ContextualToken
}

// IsEmpty reports whether the instruction references no tokens.
func (in Instruction) IsEmpty() bool { return len(in.Tokens) == 0 }

// BodyElementKind tags the active variant of a BodyElement.
type BodyElementKind uint8

const (
	BodyNone BodyElementKind = iota // absent footer / zero value
	BodyInstruction
	BodyChildScope
)

// BodyElement is either an instruction or a child scope reference.
// Dispatch is a switch over Kind; exactly one payload field is meaningful.
type BodyElement struct {
	Kind  BodyElementKind
	Instr Instruction
	Child ScopeIndex
}

// InstructionElement wraps an instruction as a body element.
func InstructionElement(in Instruction) BodyElement {
	return BodyElement{Kind: BodyInstruction, Instr: in}
}

// ChildElement wraps a child scope index as a body element.
func ChildElement(child ScopeIndex) BodyElement {
	return BodyElement{Kind: BodyChildScope, Child: child}
}

// Scope is one structural region: header tokens before the opening brace, a
// body of instructions and child scopes in source order, and a footer that
// is either the closing-brace instruction or a scope generated by
// meta-execution.
type Scope struct {
	Type     ScopeType
	Header   Instruction
	Body     []BodyElement
	Footer   BodyElement
	Parent   ScopeIndex
	StreamID uint32
}

// ScopeArena is a flat growth-only vector of scopes. Indices never move and
// appending never invalidates existing ones.
type ScopeArena struct {
	scopes []Scope
}

// NewScopeArena creates an arena holding only the root scope for the given
// stream.
func NewScopeArena(streamID uint32) *ScopeArena {
	return &ScopeArena{
		scopes: []Scope{{
			Type:     ScopeTopLevel,
			Parent:   InvalidScopeIndex,
			StreamID: streamID,
		}},
	}
}

// Add allocates a new scope and returns its index. The caller is
// responsible for referencing the index from exactly one parent body or
// footer. Fails once the arena reaches the encodable index cap.
func (a *ScopeArena) Add(t ScopeType, parent ScopeIndex, streamID uint32) (ScopeIndex, error) {
	if len(a.scopes) > maxScopeIndex {
		return InvalidScopeIndex, fmt.Errorf("scope arena full: %d scopes reached the 2^31-1 session cap", len(a.scopes))
	}
	idx := ScopeIndex(len(a.scopes))
	a.scopes = append(a.scopes, Scope{
		Type:     t,
		Parent:   parent,
		StreamID: streamID,
	})
	return idx, nil
}

// Get returns the scope pointer, or nil for invalid or out-of-range indices.
func (a *ScopeArena) Get(idx ScopeIndex) *Scope {
	if !idx.IsValid() || int(idx) >= len(a.scopes) {
		return nil
	}
	return &a.scopes[idx]
}

// Root returns the root scope index.
func (a *ScopeArena) Root() ScopeIndex { return RootScopeIndex }

// Len reports the total number of scopes including the root.
func (a *ScopeArena) Len() int { return len(a.scopes) }

// ChildIndices collects the scope indices referenced from a parent's body
// and footer, in source order.
func (a *ScopeArena) ChildIndices(parent ScopeIndex) []ScopeIndex {
	s := a.Get(parent)
	if s == nil {
		return nil
	}
	var children []ScopeIndex
	for _, el := range s.Body {
		if el.Kind == BodyChildScope {
			children = append(children, el.Child)
		}
	}
	if s.Footer.Kind == BodyChildScope {
		children = append(children, s.Footer.Child)
	}
	return children
}

// ReplaceFooter swaps a scope's footer for a generated child scope. This is
// the one sanctioned structural mutation after construction, used by
// meta-execution expansion.
func (a *ScopeArena) ReplaceFooter(idx ScopeIndex, child ScopeIndex) error {
	s := a.Get(idx)
	if s == nil {
		return fmt.Errorf("replace footer: invalid scope index %d", uint32(idx))
	}
	if a.Get(child) == nil {
		return fmt.Errorf("replace footer: invalid child scope index %d", uint32(child))
	}
	s.Footer = ChildElement(child)
	return nil
}
