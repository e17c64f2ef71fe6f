// Package contextual implements layer 3: annotating every instruction in the
// scope arena with resolved contextual tokens. Raw tokens are never changed;
// the only mutation is populating Instruction.Contextual.
package contextual

import (
	"context"
	"fmt"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/execmeta"
	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
	"github.com/GeorgieTragnar/cprime-sub000/internal/pattern"
)

// Result summarises one contextualisation pass.
type Result struct {
	OK bool
}

// Contextualiser matches instructions against the pattern registry. The
// registry and the exec registry are read-only during the pass.
type Contextualiser struct {
	strings  *ir.StringArena
	tokens   *ir.TokenArena
	scopes   *ir.ScopeArena
	patterns *pattern.Registry
	exec     *execmeta.Registry
	errs     *diag.Handler
}

// New wires a contextualiser to the session state. The exec registry may be
// nil when no meta-execution took place.
func New(strs *ir.StringArena, tokens *ir.TokenArena, scopes *ir.ScopeArena, patterns *pattern.Registry, exec *execmeta.Registry, errs *diag.Handler) *Contextualiser {
	return &Contextualiser{
		strings:  strs,
		tokens:   tokens,
		scopes:   scopes,
		patterns: patterns,
		exec:     exec,
		errs:     errs,
	}
}

// Run contextualises every scope in the arena. Scopes are visited in
// construction order, which is a pre-order walk of the block structure.
// Cancellation is honoured between scopes; an instruction that matches no
// pattern is annotated with unknown sentinels plus a diagnostic and the pass
// continues.
func (c *Contextualiser) Run(ctx context.Context) (Result, error) {
	for idx := ir.ScopeIndex(0); int(idx) < c.scopes.Len(); idx++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		c.contextualiseScope(idx)
	}
	return Result{OK: !c.errs.HasErrors()}, nil
}

func (c *Contextualiser) contextualiseScope(idx ir.ScopeIndex) {
	s := c.scopes.Get(idx)

	if c.exec != nil && c.exec.IsAliasBody(idx) {
		// The header is the declaration site; the body is interpreter
		// source and carries no CPrime semantics.
		c.markExecDeclaration(s)
	} else {
		c.contextualise(idx, 0, diag.PartHeader, s, &s.Header, pattern.PosHeader)
		for i := range s.Body {
			if s.Body[i].Kind != ir.BodyInstruction {
				continue
			}
			c.contextualise(idx, i, diag.PartBody, s, &s.Body[i].Instr, pattern.PosBody)
		}
	}

	if s.Footer.Kind == ir.BodyInstruction {
		c.contextualise(idx, 0, diag.PartFooter, s, &s.Footer.Instr, pattern.PosFooter)
	}
}

// contextualise matches one instruction and populates its contextual tokens.
// Population happens at most once; re-running the pass is a no-op.
func (c *Contextualiser) contextualise(scope ir.ScopeIndex, instrIdx int, part diag.InstructionPart, s *ir.Scope, instr *ir.Instruction, pos pattern.Position) {
	if len(instr.Contextual) > 0 {
		return
	}

	raw := make([]ir.Token, 0, len(instr.Tokens))
	for _, tokIdx := range instr.Tokens {
		raw = append(raw, c.tokens.Token(s.StreamID, tokIdx))
	}
	clean := pattern.Preprocess(raw)

	cands := c.patterns.MatchAll(c.strings, pos, clean)
	if len(cands) == 1 {
		instr.Contextual = cands[0].Contextual
		return
	}
	if len(cands) > 1 {
		c.annotateSentinels(instr, clean, ir.CtxError)
		c.errs.Register(diag.Diagnostic{
			Kind: diag.KindAmbiguousOperatorContext,
			Extra: fmt.Sprintf("instruction matches both %s and %s",
				cands[0].Pattern.Name, cands[1].Pattern.Name),
			ScopeIndex:       scope,
			InstructionIndex: instrIdx,
			Part:             part,
			TokenIndices:     significantIndices(clean),
		})
		return
	}

	if !c.annotateSentinels(instr, clean, ir.CtxUnknown) {
		return // nothing significant to resolve
	}
	c.errs.Register(diag.Diagnostic{
		Kind:             diag.KindUnsupportedTokenPattern,
		Extra:            "no pattern matches this instruction",
		ScopeIndex:       scope,
		InstructionIndex: instrIdx,
		Part:             part,
		TokenIndices:     significantIndices(clean),
	})
}

// annotateSentinels marks every significant token with the given sentinel
// kind; it reports false when the instruction has no significant tokens.
func (c *Contextualiser) annotateSentinels(instr *ir.Instruction, clean []ir.Token, kind ir.ContextualKind) bool {
	var sentinels []ir.ContextualToken
	for _, tok := range clean {
		if tok.Kind.IsLayout() {
			continue
		}
		sentinels = append(sentinels, ir.ContextualToken{Kind: kind, Parents: []uint32{tok.Index}})
	}
	if len(sentinels) == 0 {
		return false
	}
	instr.Contextual = sentinels
	return true
}

func significantIndices(clean []ir.Token) []uint32 {
	var out []uint32
	for _, tok := range clean {
		if !tok.Kind.IsLayout() {
			out = append(out, tok.Index)
		}
	}
	return out
}

// markExecDeclaration annotates an alias declaration header with a single
// exec-invocation token covering its significant tokens.
func (c *Contextualiser) markExecDeclaration(s *ir.Scope) {
	if len(s.Header.Contextual) > 0 {
		return
	}
	var parents []uint32
	for _, tokIdx := range s.Header.Tokens {
		if !c.tokens.Token(s.StreamID, tokIdx).Kind.IsLayout() {
			parents = append(parents, tokIdx)
		}
	}
	if len(parents) == 0 {
		return
	}
	s.Header.Contextual = []ir.ContextualToken{{Kind: ir.CtxExecInvocation, Parents: parents}}
}
