// Package raii implements layer 4: constructor/destructor pairing checks on
// data classes and the rewriting of defer statements into LIFO-ordered
// cleanup sequences placed before every exit edge of a function body.
package raii

import (
	"context"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

// Result summarises one lowering pass.
type Result struct {
	OK bool
}

// Lowerer walks the contextualised scope tree. It is the only component that
// mutates scope bodies after construction.
type Lowerer struct {
	strings *ir.StringArena
	tokens  *ir.TokenArena
	scopes  *ir.ScopeArena
	errs    *diag.Handler
}

// New wires a lowerer to the session state.
func New(strs *ir.StringArena, tokens *ir.TokenArena, scopes *ir.ScopeArena, errs *diag.Handler) *Lowerer {
	return &Lowerer{strings: strs, tokens: tokens, scopes: scopes, errs: errs}
}

// Run validates RAII pairing on every data class and lowers defers in every
// function body. Cancellation is honoured between scopes.
func (l *Lowerer) Run(ctx context.Context) (Result, error) {
	for idx := ir.ScopeIndex(0); int(idx) < l.scopes.Len(); idx++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		s := l.scopes.Get(idx)
		switch s.Type {
		case ir.ScopeNamedClass:
			l.checkPairing(idx, s)
		case ir.ScopeNamedFunction:
			l.lowerBody(idx, s, l.bodyFallsThrough(s))
		}
	}
	return Result{OK: !l.errs.HasErrors()}, nil
}

// checkPairing enforces has_ctor ⇔ has_dtor on a data class. Constructors
// and destructors surface either as defaulted body instructions or as child
// scopes whose header resolved to the corresponding kind.
func (l *Lowerer) checkPairing(idx ir.ScopeIndex, s *ir.Scope) {
	var hasCtor, hasDtor bool
	for _, el := range s.Body {
		var contextual []ir.ContextualToken
		switch el.Kind {
		case ir.BodyInstruction:
			contextual = el.Instr.Contextual
		case ir.BodyChildScope:
			contextual = l.scopes.Get(el.Child).Header.Contextual
		}
		for _, ct := range contextual {
			switch ct.Kind {
			case ir.CtxConstructor:
				hasCtor = true
			case ir.CtxDestructor:
				hasDtor = true
			}
		}
	}

	if hasCtor == hasDtor {
		return
	}
	kind := diag.KindRAIIMissingConstructor
	extra := "class declares a destructor but no constructor"
	if hasCtor {
		kind = diag.KindRAIIMissingDestructor
		extra = "class declares a constructor but no destructor"
	}
	l.errs.Register(diag.Diagnostic{
		Kind:         kind,
		Extra:        extra,
		ScopeIndex:   idx,
		Part:         diag.PartHeader,
		TokenIndices: significantIndices(l.tokens, s.StreamID, s.Header.Tokens),
	})
}

func significantIndices(tokens *ir.TokenArena, streamID uint32, indices []uint32) []uint32 {
	var out []uint32
	for _, idx := range indices {
		if !tokens.Token(streamID, idx).Kind.IsLayout() {
			out = append(out, idx)
		}
	}
	return out
}
