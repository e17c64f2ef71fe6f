// Package validate implements the inter-layer invariant checks: structural
// integrity of the scope arena after layer 2, sentinel and scope-type
// alignment after layer 3, and the absence of unlowered defers after layer 4.
// Validators only read the IR; findings go to the error handler.
package validate

import (
	"fmt"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

// Validator checks arena invariants between pipeline layers.
type Validator struct {
	strings *ir.StringArena
	tokens  *ir.TokenArena
	scopes  *ir.ScopeArena
	errs    *diag.Handler
}

// New wires a validator to the session state.
func New(strs *ir.StringArena, tokens *ir.TokenArena, scopes *ir.ScopeArena, errs *diag.Handler) *Validator {
	return &Validator{strings: strs, tokens: tokens, scopes: scopes, errs: errs}
}

// PostStructure verifies the arena after layer 2: every non-root scope is
// referenced by exactly one body or footer slot, and every non-root scope is
// closed by a footer. Scopes heading a generated stream are exempt from the
// footer requirement; they close with the end of their stream, not a brace.
func (v *Validator) PostStructure() bool {
	ok := true
	refs := make([]int, v.scopes.Len())
	for idx := ir.ScopeIndex(0); int(idx) < v.scopes.Len(); idx++ {
		for _, child := range v.scopes.ChildIndices(idx) {
			refs[child]++
		}
	}
	for idx := 1; idx < v.scopes.Len(); idx++ {
		s := v.scopes.Get(ir.ScopeIndex(idx))
		if refs[idx] != 1 {
			ok = false
			v.errs.Register(diag.Diagnostic{
				Kind:       diag.KindUnbalancedBraces,
				Extra:      fmt.Sprintf("scope referenced %d times, expected exactly once", refs[idx]),
				ScopeIndex: ir.ScopeIndex(idx),
			})
		}
		if s.Footer.Kind == ir.BodyNone && !v.headsGeneratedStream(s) {
			ok = false
			v.errs.Register(diag.Diagnostic{
				Kind:       diag.KindUnbalancedBraces,
				Extra:      "scope was never closed",
				ScopeIndex: ir.ScopeIndex(idx),
			})
		}
	}
	return ok
}

// headsGeneratedStream reports whether the scope is the container built for a
// meta-execution fragment: it lives on a different stream than its parent.
func (v *Validator) headsGeneratedStream(s *ir.Scope) bool {
	p := v.scopes.Get(s.Parent)
	return p != nil && p.StreamID != s.StreamID
}

// PostContextual verifies the arena after layer 3: no unaccompanied error
// sentinel survives, and every scope's header agrees with its structural
// type.
func (v *Validator) PostContextual() bool {
	ok := true
	covered := v.diagnosedPositions()

	for idx := ir.ScopeIndex(0); int(idx) < v.scopes.Len(); idx++ {
		s := v.scopes.Get(idx)
		if !v.checkSentinels(idx, 0, diag.PartHeader, s.Header, covered) {
			ok = false
		}
		for i, el := range s.Body {
			if el.Kind != ir.BodyInstruction {
				continue
			}
			if !v.checkSentinels(idx, i, diag.PartBody, el.Instr, covered) {
				ok = false
			}
		}
		if s.Footer.Kind == ir.BodyInstruction {
			if !v.checkSentinels(idx, 0, diag.PartFooter, s.Footer.Instr, covered) {
				ok = false
			}
		}
		if !v.checkAlignment(idx, s) {
			ok = false
		}
	}
	return ok
}

// PostLowering verifies the arena after layer 4: no DEFER_RAII contextual
// token remains anywhere.
func (v *Validator) PostLowering() bool {
	ok := true
	for idx := ir.ScopeIndex(0); int(idx) < v.scopes.Len(); idx++ {
		s := v.scopes.Get(idx)
		for i, el := range s.Body {
			if el.Kind != ir.BodyInstruction {
				continue
			}
			for _, ct := range el.Instr.Contextual {
				if ct.Kind == ir.CtxDeferRAII {
					ok = false
					v.errs.Register(diag.Diagnostic{
						Kind:             diag.KindDeferComplexConditional,
						Extra:            "defer statement survived lowering",
						ScopeIndex:       idx,
						InstructionIndex: i,
						Part:             diag.PartBody,
						TokenIndices:     ct.Parents,
					})
				}
			}
		}
	}
	return ok
}

type position struct {
	scope ir.ScopeIndex
	instr int
	part  diag.InstructionPart
}

func (v *Validator) diagnosedPositions() map[position]bool {
	covered := make(map[position]bool)
	for _, d := range v.errs.Diagnostics() {
		covered[position{d.ScopeIndex, d.InstructionIndex, d.Part}] = true
	}
	return covered
}

// checkSentinels reports a leftover TODO/ERROR/UNKNOWN token that no earlier
// layer diagnosed.
func (v *Validator) checkSentinels(scope ir.ScopeIndex, instrIdx int, part diag.InstructionPart, instr ir.Instruction, covered map[position]bool) bool {
	ok := true
	for _, ct := range instr.Contextual {
		if !ct.Kind.IsSentinel() {
			continue
		}
		ok = false
		if covered[position{scope, instrIdx, part}] {
			continue // the producing layer already reported it
		}
		v.errs.Register(diag.Diagnostic{
			Kind:             diag.KindContextualTodo,
			Extra:            "unresolved " + ct.Kind.String() + " contextual token",
			ScopeIndex:       scope,
			InstructionIndex: instrIdx,
			Part:             part,
			TokenIndices:     ct.Parents,
		})
	}
	return ok
}

// checkAlignment verifies the scope's structural type against its resolved
// header. Headers that failed to match carry sentinels and are already
// reported, so only resolved headers are compared.
func (v *Validator) checkAlignment(idx ir.ScopeIndex, s *ir.Scope) bool {
	if len(s.Header.Contextual) == 0 || s.Header.Contextual[0].Kind.IsSentinel() {
		return true
	}
	if headerMatchesType(s.Type, s.Header.Contextual) {
		return true
	}
	v.errs.Register(diag.Diagnostic{
		Kind:         diag.KindUnsupportedTokenPattern,
		Extra:        fmt.Sprintf("header does not agree with scope type %s", s.Type),
		ScopeIndex:   idx,
		Part:         diag.PartHeader,
		TokenIndices: s.Header.Tokens,
	})
	return false
}

func headerMatchesType(t ir.ScopeType, contextual []ir.ContextualToken) bool {
	has := func(kinds ...ir.ContextualKind) bool {
		for _, ct := range contextual {
			for _, k := range kinds {
				if ct.Kind == k {
					return true
				}
			}
		}
		return false
	}
	switch t {
	case ir.ScopeTopLevel, ir.ScopeNaked:
		return true
	case ir.ScopeNamedClass:
		return has(ir.CtxDataClass)
	case ir.ScopeNamedFunction:
		return has(ir.CtxFunctionDeclaration, ir.CtxConstructor, ir.CtxDestructor,
			ir.CtxEntryPoint, ir.CtxExecInvocation)
	case ir.ScopeConditional, ir.ScopeLoop, ir.ScopeTry:
		return has(ir.CtxControlFlow)
	}
	return false
}
