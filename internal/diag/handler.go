package diag

import (
	"fmt"
	"sort"
	"sync"

	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

// InstructionPart locates a diagnostic within its scope.
type InstructionPart uint8

const (
	PartHeader InstructionPart = iota
	PartBody
	PartFooter
)

var partNames = [...]string{
	PartHeader: "header",
	PartBody:   "body",
	PartFooter: "footer",
}

func (p InstructionPart) String() string {
	if int(p) < len(partNames) {
		return partNames[p]
	}
	return fmt.Sprintf("InstructionPart(%d)", int(p))
}

// Diagnostic is one collected finding. Components register diagnostics with
// (scope, instruction, token) coordinates only; source locations are
// resolved lazily by the handler after a layer completes.
type Diagnostic struct {
	Kind             ErrorKind
	Extra            string
	TokenIndices     []uint32
	ScopeIndex       ir.ScopeIndex
	InstructionIndex int
	Part             InstructionPart
	Severity         Severity

	// Resolved lazily by ResolveSourceLocations.
	Resolved bool
	File     string
	Line     uint32
	Column   uint32
	StreamID uint32
}

// Error implements the error interface for single-diagnostic reporting.
func (d Diagnostic) Error() string {
	if d.Resolved {
		return fmt.Sprintf("%s:%d:%d: [%s] %s", d.File, d.Line, d.Column, d.Kind, d.Extra)
	}
	return fmt.Sprintf("[%s] %s (scope=%d, instruction=%d)", d.Kind, d.Extra, uint32(d.ScopeIndex), d.InstructionIndex)
}

// streamSource retains what the handler needs to resolve and render
// locations for one token stream.
type streamSource struct {
	name   string
	source string
}

// Handler collects diagnostics across all layers. Registration is safe for
// concurrent use so a parallelised contextualiser can share one handler; all
// other methods are called between layers, single-threaded.
type Handler struct {
	mu      sync.Mutex
	policy  map[ErrorKind]Severity
	diags   []Diagnostic
	streams map[uint32]streamSource
}

// NewHandler creates a handler with the given severity policy. A nil policy
// selects the defaults.
func NewHandler(policy map[ErrorKind]Severity) *Handler {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Handler{
		policy:  policy,
		streams: make(map[uint32]streamSource),
	}
}

// AddStream tells the handler where a token stream's text came from, for
// location resolution and snippet rendering.
func (h *Handler) AddStream(id uint32, name, source string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.streams[id] = streamSource{name: name, source: source}
}

// Register records a diagnostic, stamping its policy severity.
// Suppressed kinds are still recorded but excluded from the report and from
// the failure decision.
func (h *Handler) Register(d Diagnostic) {
	sev, ok := h.policy[d.Kind]
	if !ok {
		sev = SeverityError
	}
	d.Severity = sev

	h.mu.Lock()
	defer h.mu.Unlock()
	h.diags = append(h.diags, d)
}

// ResolveSourceLocations fills file/line/column for every pending diagnostic
// by looking up the first token in its TokenIndices against the owning
// scope's stream. Called between layers.
func (h *Handler) ResolveSourceLocations(scopes *ir.ScopeArena, tokens *ir.TokenArena) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.diags {
		d := &h.diags[i]
		if d.Resolved {
			continue
		}
		var streamID uint32
		if scope := scopes.Get(d.ScopeIndex); scope != nil {
			streamID = scope.StreamID
		}
		d.StreamID = streamID
		d.File = h.streams[streamID].name
		if len(d.TokenIndices) > 0 {
			tok := tokens.Token(streamID, d.TokenIndices[0])
			d.Line = tok.Line
			d.Column = tok.Column
		}
		d.Resolved = true
	}

	h.sortLocked()
}

// sortLocked orders diagnostics by (scope, instruction, first token), the
// ordering guarantee the report promises. Caller holds the lock.
func (h *Handler) sortLocked() {
	sort.SliceStable(h.diags, func(i, j int) bool {
		a, b := h.diags[i], h.diags[j]
		if a.ScopeIndex != b.ScopeIndex {
			return a.ScopeIndex < b.ScopeIndex
		}
		if a.InstructionIndex != b.InstructionIndex {
			return a.InstructionIndex < b.InstructionIndex
		}
		return firstToken(a) < firstToken(b)
	})
}

func firstToken(d Diagnostic) uint32 {
	if len(d.TokenIndices) == 0 {
		return 0
	}
	return d.TokenIndices[0]
}

// Diagnostics returns a snapshot of all collected diagnostics, suppressed
// ones included.
func (h *Handler) Diagnostics() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Diagnostic, len(h.diags))
	copy(out, h.diags)
	return out
}

// HasErrors reports whether any non-suppressed diagnostic has error
// severity. Compilation is declared failed iff this is true.
func (h *Handler) HasErrors() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range h.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count reports (errors, warnings), excluding suppressed diagnostics.
func (h *Handler) Count() (errors, warnings int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, d := range h.diags {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}
