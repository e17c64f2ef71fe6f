package raii

import (
	"sort"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

// deferInfo is one collected defer statement within a body.
type deferInfo struct {
	bodyIdx int
	target  []uint32 // token indices of the scope-reference target
	call    []uint32 // token indices of the whole deferred call, arguments included
	name    string   // first identifier of the target
	declIdx int      // body position of the target's declaration, -1 if not local
	heap    bool     // target was initialised with new
}

// lowerBody rewrites one body: defers are removed, cleanup instructions are
// spliced before every exit edge, and child blocks are lowered recursively.
// fallsThrough reports whether control can reach the closing brace.
func (l *Lowerer) lowerBody(idx ir.ScopeIndex, s *ir.Scope, fallsThrough bool) {
	l.lowerConditionals(s)

	// Declarations are scanned up front so a defer can see a target that is
	// declared after it; such a defer is bumped ahead at the exit edge.
	decls := make(map[string]int)
	heapVars := make(map[string]bool)
	for i, el := range s.Body {
		if el.Kind != ir.BodyInstruction {
			continue
		}
		if name, heap, ok := l.declaredVariable(s, el.Instr); ok {
			if _, seen := decls[name]; !seen {
				decls[name] = i
				if heap {
					heapVars[name] = true
				}
			}
		}
	}

	var defers []deferInfo
	for i, el := range s.Body {
		if el.Kind != ir.BodyInstruction {
			continue
		}
		if target, call, name, ok := l.deferTarget(s, el.Instr); ok {
			info := deferInfo{bodyIdx: i, target: target, call: call, name: name, declIdx: -1}
			if at, local := decls[name]; local {
				info.declIdx = at
				info.heap = heapVars[name]
			}
			if info.heap {
				l.errs.Register(diag.Diagnostic{
					Kind:             diag.KindDeferHeapUnsupported,
					Extra:            "defer target " + name + " is heap-allocated",
					ScopeIndex:       idx,
					InstructionIndex: i,
					Part:             diag.PartBody,
					TokenIndices:     target,
				})
				continue // dropped, never lowered
			}
			defers = append(defers, info)
		}
	}

	out := make([]ir.BodyElement, 0, len(s.Body))
	warned := false
	returnAt := -1
	for i, el := range s.Body {
		if el.Kind == ir.BodyInstruction && isDefer(el.Instr) {
			continue // replaced by cleanups at the exit edges
		}
		if returnAt >= 0 && isSignificant(l.tokens, s, el) && !warned {
			l.errs.Register(diag.Diagnostic{
				Kind:             diag.KindStyle,
				Extra:            "unreachable code after return",
				ScopeIndex:       idx,
				InstructionIndex: i,
				Part:             diag.PartBody,
				TokenIndices:     elementTokens(el),
			})
			warned = true
		}
		if el.Kind == ir.BodyInstruction && isReturn(l.tokens, s, el.Instr) {
			for _, d := range cleanupOrder(defers, i) {
				out = append(out, cleanupElement(d))
			}
			returnAt = i
		}
		out = append(out, el)
	}
	if fallsThrough {
		for _, d := range cleanupOrder(defers, len(s.Body)) {
			out = append(out, cleanupElement(d))
		}
	}
	s.Body = out
}

// lowerConditionals resolves defers sitting inside conditional branches.
// A defer inside a branch is allowed only when the branch chain is closed by
// a plain else and every branch provably returns; it then lowers into its own
// branch's exit. Anything else is reported and dropped. Plain blocks keep
// their defers and lower them at the block's own fall-through exit.
func (l *Lowerer) lowerConditionals(s *ir.Scope) {
	for i := 0; i < len(s.Body); i++ {
		if s.Body[i].Kind != ir.BodyChildScope {
			continue
		}
		child := s.Body[i].Child
		cs := l.scopes.Get(child)
		switch cs.Type {
		case ir.ScopeNaked:
			l.lowerBody(child, cs, true)
		case ir.ScopeConditional:
			end := i
			for end < len(s.Body) && isConditionalChild(l.scopes, s.Body[end]) {
				end++
			}
			l.lowerChain(s.Body[i:end])
			i = end - 1
		case ir.ScopeLoop, ir.ScopeTry:
			l.rejectDefers(child, cs, "defer inside a loop or try scope is not lowered")
		}
	}
}

func (l *Lowerer) lowerChain(branches []ir.BodyElement) {
	assured := l.chainAssuresReturn(branches)
	for _, el := range branches {
		child := el.Child
		cs := l.scopes.Get(child)
		if !l.hasDefers(cs) {
			continue
		}
		if assured {
			l.lowerBody(child, cs, false)
		} else {
			l.rejectDefers(child, cs, "conditional defer requires every branch to return")
		}
	}
}

// chainAssuresReturn reports whether an if/else chain is closed by a plain
// else and every branch's last significant instruction is a return.
func (l *Lowerer) chainAssuresReturn(branches []ir.BodyElement) bool {
	if len(branches) < 2 {
		return false
	}
	for i, el := range branches {
		cs := l.scopes.Get(el.Child)
		if i == len(branches)-1 && !isPlainElse(l.tokens, cs) {
			return false
		}
		if !endsWithReturn(l.tokens, cs) {
			return false
		}
	}
	return true
}

func (l *Lowerer) rejectDefers(idx ir.ScopeIndex, s *ir.Scope, reason string) {
	out := s.Body[:0]
	for i, el := range s.Body {
		if el.Kind == ir.BodyInstruction && isDefer(el.Instr) {
			l.errs.Register(diag.Diagnostic{
				Kind:             diag.KindDeferComplexConditional,
				Extra:            reason,
				ScopeIndex:       idx,
				InstructionIndex: i,
				Part:             diag.PartBody,
				TokenIndices:     el.Instr.Tokens,
			})
			continue
		}
		out = append(out, el)
	}
	s.Body = out
	// Nested blocks still need their own pass.
	l.lowerConditionals(s)
}

func (l *Lowerer) hasDefers(s *ir.Scope) bool {
	for _, el := range s.Body {
		if el.Kind == ir.BodyInstruction && isDefer(el.Instr) {
			return true
		}
		if el.Kind == ir.BodyChildScope && l.hasDefers(l.scopes.Get(el.Child)) {
			return true
		}
	}
	return false
}

// cleanupOrder selects the defers collected before the exit edge and orders
// them for emission: LIFO on body position, with a defer whose target is
// declared later bumped ahead so later-declared stack objects destruct first.
func cleanupOrder(defers []deferInfo, before int) []deferInfo {
	var out []deferInfo
	for _, d := range defers {
		if d.bodyIdx < before {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return orderKey(out[i]) > orderKey(out[j])
	})
	return out
}

func orderKey(d deferInfo) int {
	if d.declIdx > d.bodyIdx {
		return d.declIdx
	}
	return d.bodyIdx
}

// cleanupElement synthesises the destructor-call instruction for one lowered
// defer. It reuses the raw tokens of the whole deferred call, so arguments
// survive lowering verbatim.
func cleanupElement(d deferInfo) ir.BodyElement {
	return ir.InstructionElement(ir.Instruction{
		Tokens: d.call,
		Contextual: []ir.ContextualToken{
			{Kind: ir.CtxDestructor, Parents: d.target},
		},
	})
}

// deferTarget extracts the target of a defer instruction: the scope
// reference's indices and name, plus the indices of everything after the
// defer keyword (call parentheses and arguments included).
func (l *Lowerer) deferTarget(s *ir.Scope, instr ir.Instruction) (target, call []uint32, name string, ok bool) {
	if !isDefer(instr) {
		return nil, nil, "", false
	}
	for _, ct := range instr.Contextual {
		if ct.Kind == ir.CtxDeferRAII {
			continue
		}
		if ct.Kind == ir.CtxScopeReference && target == nil && len(ct.Parents) > 0 {
			target = ct.Parents
			name = l.strings.Get(l.tokens.Token(s.StreamID, ct.Parents[0]).Text)
		}
		call = append(call, ct.Parents...)
	}
	if target == nil {
		return nil, nil, "", false
	}
	return target, call, name, true
}

// declaredVariable reports the name of a variable declared by the
// instruction and whether its initialiser heap-allocates.
func (l *Lowerer) declaredVariable(s *ir.Scope, instr ir.Instruction) (string, bool, bool) {
	name := ""
	heap := false
	for _, ct := range instr.Contextual {
		switch ct.Kind {
		case ir.CtxVariableDeclaration:
			if len(ct.Parents) > 0 {
				name = l.strings.Get(l.tokens.Token(s.StreamID, ct.Parents[0]).Text)
			}
		case ir.CtxExpression:
			for _, p := range ct.Parents {
				if l.tokens.Token(s.StreamID, p).Kind == ir.KwNew {
					heap = true
				}
			}
		}
	}
	return name, heap, name != ""
}

func isDefer(instr ir.Instruction) bool {
	return len(instr.Contextual) > 0 && instr.Contextual[0].Kind == ir.CtxDeferRAII
}

func isReturn(tokens *ir.TokenArena, s *ir.Scope, instr ir.Instruction) bool {
	if len(instr.Contextual) == 0 || instr.Contextual[0].Kind != ir.CtxControlFlow {
		return false
	}
	parents := instr.Contextual[0].Parents
	return len(parents) > 0 && tokens.Token(s.StreamID, parents[0]).Kind == ir.KwReturn
}

func isSignificant(tokens *ir.TokenArena, s *ir.Scope, el ir.BodyElement) bool {
	if el.Kind == ir.BodyChildScope {
		return true
	}
	return len(significantIndices(tokens, s.StreamID, el.Instr.Tokens)) > 0
}

func elementTokens(el ir.BodyElement) []uint32 {
	if el.Kind == ir.BodyInstruction {
		return el.Instr.Tokens
	}
	return nil
}

// bodyFallsThrough reports whether control can reach the closing brace of a
// function body, i.e. its last significant instruction is not a return.
func (l *Lowerer) bodyFallsThrough(s *ir.Scope) bool {
	for i := len(s.Body) - 1; i >= 0; i-- {
		el := s.Body[i]
		if !isSignificant(l.tokens, s, el) {
			continue
		}
		if el.Kind == ir.BodyInstruction && isReturn(l.tokens, s, el.Instr) {
			return false
		}
		return true
	}
	return true
}

func isConditionalChild(scopes *ir.ScopeArena, el ir.BodyElement) bool {
	return el.Kind == ir.BodyChildScope && scopes.Get(el.Child).Type == ir.ScopeConditional
}

func isPlainElse(tokens *ir.TokenArena, s *ir.Scope) bool {
	sig := significantIndices(tokens, s.StreamID, s.Header.Tokens)
	return len(sig) == 1 && tokens.Token(s.StreamID, sig[0]).Kind == ir.KwElse
}

func endsWithReturn(tokens *ir.TokenArena, s *ir.Scope) bool {
	for i := len(s.Body) - 1; i >= 0; i-- {
		el := s.Body[i]
		if !isSignificant(tokens, s, el) {
			continue
		}
		return el.Kind == ir.BodyInstruction && isReturn(tokens, s, el.Instr)
	}
	return false
}
