// Package structure implements layer 2 of the front end: deriving the flat
// scope arena from a token stream in a single pass.
//
// The cache-and-boundary algorithm keeps two pieces of state: a stack of
// currently-open scope indices and an ordered cache of raw tokens. Every
// token either extends the cache or, for the three structural boundaries
// (';', '{', '}'), flushes it into the current scope. Layout tokens travel
// with the cache so instructions detokenise back to their exact source
// text.
package structure

import (
	"context"
	"fmt"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/execmeta"
	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

// Result summarises one structure-building pass.
type Result struct {
	Root ir.ScopeIndex
	OK   bool
}

// Builder derives scopes from tokens. One builder serves a whole session:
// meta-execution fragments re-enter it recursively on fresh streams.
type Builder struct {
	strings *ir.StringArena
	tokens  *ir.TokenArena
	scopes  *ir.ScopeArena
	errs    *diag.Handler
	exec    *execmeta.Registry
	runtime *execmeta.Runtime
}

// NewBuilder wires a builder to the session arenas. Registry and runtime
// may be nil, which disables meta-execution (invocations then surface as
// ordinary instructions for layer 3 to reject).
func NewBuilder(strs *ir.StringArena, tokens *ir.TokenArena, scopes *ir.ScopeArena, errs *diag.Handler, reg *execmeta.Registry, rt *execmeta.Runtime) *Builder {
	return &Builder{
		strings: strs,
		tokens:  tokens,
		scopes:  scopes,
		errs:    errs,
		exec:    reg,
		runtime: rt,
	}
}

// Build walks the stream into the arena's root scope. The pass completes
// over the whole input, collecting diagnostics rather than aborting; the
// only early exit is context cancellation, honoured at scope boundaries.
func (b *Builder) Build(ctx context.Context, streamID uint32) (Result, error) {
	root := b.scopes.Root()
	if err := b.buildInto(ctx, streamID, root); err != nil {
		return Result{Root: root, OK: false}, err
	}
	return Result{Root: root, OK: !b.errs.HasErrors()}, nil
}

// buildInto runs the cache-and-boundary loop for one stream, treating
// target as the open scope at the bottom of the stack.
func (b *Builder) buildInto(ctx context.Context, streamID uint32, target ir.ScopeIndex) error {
	stack := []ir.ScopeIndex{target}
	var cache []ir.Token

	stream := b.tokens.Stream(streamID)
	for {
		tok := stream.Advance()
		if tok.Kind == ir.TokenEOF {
			break
		}

		switch tok.Kind {
		case ir.OpSemicolon:
			if cacheSignificant(cache) {
				current := stack[len(stack)-1]
				instrIdx := b.appendInstruction(current, cache)
				if err := b.maybeExpandExec(ctx, current, instrIdx); err != nil {
					return err
				}
			}
			cache = cache[:0]

		case ir.OpLBrace:
			if err := ctx.Err(); err != nil {
				return err
			}
			current := stack[len(stack)-1]
			child, err := b.openScope(current, cache, streamID)
			if err != nil {
				return err
			}
			stack = append(stack, child)
			cache = cache[:0]

		case ir.OpRBrace:
			if err := ctx.Err(); err != nil {
				return err
			}
			current := stack[len(stack)-1]
			if cacheSignificant(cache) {
				instrIdx := b.appendInstruction(current, cache)
				if err := b.maybeExpandExecFooter(ctx, current, instrIdx); err != nil {
					return err
				}
			}
			cache = cache[:0]

			if len(stack) == 1 {
				b.errs.Register(diag.Diagnostic{
					Kind:       diag.KindUnbalancedBraces,
					Extra:      "closing brace without a matching open scope",
					ScopeIndex: target,
					Line:       tok.Line,
					Column:     tok.Column,
				})
				continue
			}
			popped := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if p := b.scopes.Get(popped); p.Footer.Kind != ir.BodyChildScope {
				// A meta-execution expansion may already have rewritten
				// the footer into a generated scope.
				p.Footer = ir.InstructionElement(ir.Instruction{
					Tokens: []uint32{tok.Index},
				})
			}

		default:
			cache = append(cache, tok)
		}
	}

	if len(stack) != 1 {
		b.errs.Register(diag.Diagnostic{
			Kind:       diag.KindUnbalancedBraces,
			Extra:      fmt.Sprintf("%d scope(s) left open at end of input", len(stack)-1),
			ScopeIndex: stack[len(stack)-1],
		})
	}
	if cacheSignificant(cache) {
		b.errs.Register(diag.Diagnostic{
			Kind:         diag.KindTrailingTokens,
			Extra:        "tokens after the last structural boundary",
			ScopeIndex:   stack[0],
			TokenIndices: cacheIndices(cache),
			Line:         firstSignificant(cache).Line,
			Column:       firstSignificant(cache).Column,
		})
	}
	return nil
}

// appendInstruction flushes the cache as a body instruction of scope and
// returns the new element's body index.
func (b *Builder) appendInstruction(scope ir.ScopeIndex, cache []ir.Token) int {
	s := b.scopes.Get(scope)
	s.Body = append(s.Body, ir.InstructionElement(ir.Instruction{
		Tokens: cacheIndices(cache),
	}))
	return len(s.Body) - 1
}

// openScope allocates a child scope typed from the cache, with the cache as
// its header, and references it from the parent body. Exec alias
// declaration headers additionally register the new scope as the alias's
// lambda body.
func (b *Builder) openScope(parent ir.ScopeIndex, cache []ir.Token, streamID uint32) (ir.ScopeIndex, error) {
	scopeType := detectScopeType(cache)

	if decl, ok := b.detectAliasDeclaration(cache); ok {
		scopeType = ir.ScopeNamedFunction
		child, err := b.scopes.Add(scopeType, parent, streamID)
		if err != nil {
			return ir.InvalidScopeIndex, err
		}
		b.finishOpen(parent, child, cache)
		if b.exec != nil {
			path := append(b.scopeNamespace(parent), decl.name)
			b.exec.Register(path, child, decl.params)
		}
		return child, nil
	}

	child, err := b.scopes.Add(scopeType, parent, streamID)
	if err != nil {
		return ir.InvalidScopeIndex, err
	}
	b.finishOpen(parent, child, cache)
	return child, nil
}

func (b *Builder) finishOpen(parent, child ir.ScopeIndex, cache []ir.Token) {
	b.scopes.Get(child).Header = ir.Instruction{Tokens: cacheIndices(cache)}
	p := b.scopes.Get(parent)
	p.Body = append(p.Body, ir.ChildElement(child))
}

// scopeNamespace walks the parent chain collecting header names of named
// scopes, outermost first. Used to qualify exec alias registrations.
func (b *Builder) scopeNamespace(scope ir.ScopeIndex) []string {
	var reversed []string
	for idx := scope; idx.IsValid(); {
		s := b.scopes.Get(idx)
		if s == nil {
			break
		}
		if name := b.headerName(s); name != "" {
			reversed = append(reversed, name)
		}
		idx = s.Parent
	}
	path := make([]string, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}

// headerName extracts the first identifier of a scope header, the declared
// name for classes, functions and namespaces.
func (b *Builder) headerName(s *ir.Scope) string {
	for _, idx := range s.Header.Tokens {
		tok := b.tokens.Token(s.StreamID, idx)
		if tok.Kind == ir.TokenIdentifier {
			return b.strings.Get(tok.Text)
		}
	}
	return ""
}

func cacheSignificant(cache []ir.Token) bool {
	for _, tok := range cache {
		if !tok.Kind.IsLayout() {
			return true
		}
	}
	return false
}

func cacheIndices(cache []ir.Token) []uint32 {
	out := make([]uint32, len(cache))
	for i, tok := range cache {
		out[i] = tok.Index
	}
	return out
}

func firstSignificant(cache []ir.Token) ir.Token {
	for _, tok := range cache {
		if !tok.Kind.IsLayout() {
			return tok
		}
	}
	return ir.Token{}
}

// detectScopeType inspects the significant cache head, mirroring the
// fixed keyword table: class-likes, conditionals, loops, try-family, then
// the function shapes, and Naked for an empty cache.
func detectScopeType(cache []ir.Token) ir.ScopeType {
	sig := significant(cache)
	if len(sig) == 0 {
		return ir.ScopeNaked
	}
	switch sig[0].Kind {
	case ir.KwClass, ir.KwStruct, ir.KwUnion, ir.KwInterface, ir.KwPlex:
		return ir.ScopeNamedClass
	case ir.KwIf, ir.KwElse, ir.KwSwitch, ir.KwCase:
		return ir.ScopeConditional
	case ir.KwWhile, ir.KwFor, ir.KwDo:
		return ir.ScopeLoop
	case ir.KwTry, ir.KwCatch, ir.KwFinally:
		return ir.ScopeTry
	case ir.KwFunc:
		return ir.ScopeNamedFunction
	}
	for i := 0; i+1 < len(sig); i++ {
		if sig[i].Kind == ir.TokenIdentifier && sig[i+1].Kind == ir.OpLParen {
			return ir.ScopeNamedFunction
		}
	}
	return ir.ScopeNaked
}

func significant(cache []ir.Token) []ir.Token {
	out := make([]ir.Token, 0, len(cache))
	for _, tok := range cache {
		if !tok.Kind.IsLayout() {
			out = append(out, tok)
		}
	}
	return out
}

type aliasDecl struct {
	name   string
	params []string
}

// detectAliasDeclaration matches the exec declaration header shape:
// a bare identifier immediately followed by balanced angle brackets
// spanning the rest of the header.
func (b *Builder) detectAliasDeclaration(cache []ir.Token) (aliasDecl, bool) {
	sig := significant(cache)
	if len(sig) < 3 || sig[0].Kind != ir.TokenIdentifier || sig[1].Kind != ir.OpLess {
		return aliasDecl{}, false
	}
	if sig[len(sig)-1].Kind != ir.OpGreater {
		return aliasDecl{}, false
	}
	if !anglesBalanced(sig[1:]) {
		return aliasDecl{}, false
	}
	name := b.strings.Get(sig[0].Text)
	argText := b.sliceText(sig[2 : len(sig)-1])
	return aliasDecl{name: name, params: execmeta.SplitArgs(argText)}, true
}

func (b *Builder) sliceText(toks []ir.Token) string {
	if len(toks) == 0 {
		return ""
	}
	return ir.TokensText(b.strings, b.tokens, toks[0].StreamID, tokenIndices(toks))
}

func tokenIndices(toks []ir.Token) []uint32 {
	out := make([]uint32, len(toks))
	for i, tok := range toks {
		out[i] = tok.Index
	}
	return out
}

func anglesBalanced(toks []ir.Token) bool {
	depth := 0
	for _, tok := range toks {
		switch tok.Kind {
		case ir.OpLess:
			depth++
		case ir.OpGreater:
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
