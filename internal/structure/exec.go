package structure

import (
	"context"
	"errors"
	"strings"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/execmeta"
	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
	"github.com/GeorgieTragnar/cprime-sub000/internal/lexer"
)

// invocation is a recognised exec execution site within one instruction.
type invocation struct {
	alias *execmeta.Alias
	name  string
	args  []string
}

// maybeExpandExec checks whether the body element at bodyIdx is an exec
// execution site and, if so, replaces it in place with the scope built from
// the interpreter's emitted fragment. Interpreter failures surface as
// diagnostics; the arena is untouched on any failure path.
func (b *Builder) maybeExpandExec(ctx context.Context, scope ir.ScopeIndex, bodyIdx int) error {
	if b.exec == nil || b.runtime == nil {
		return nil
	}
	if b.insideAliasBody(scope) {
		return nil
	}

	s := b.scopes.Get(scope)
	instr := s.Body[bodyIdx].Instr
	inv, ok := b.detectInvocation(scope, instr)
	if !ok {
		return nil
	}

	container, err := b.expand(ctx, scope, bodyIdx, inv)
	if err != nil {
		return err
	}
	if container.IsValid() {
		s = b.scopes.Get(scope) // re-fetch: expansion may grow the arena
		s.Body[bodyIdx] = ir.ChildElement(container)
	}
	return nil
}

// maybeExpandExecFooter handles an invocation that terminates a scope body
// right before the closing brace. On success the terminator instruction is
// dropped and the generated scope becomes the footer.
func (b *Builder) maybeExpandExecFooter(ctx context.Context, scope ir.ScopeIndex, bodyIdx int) error {
	if b.exec == nil || b.runtime == nil {
		return nil
	}
	if b.insideAliasBody(scope) {
		return nil
	}

	s := b.scopes.Get(scope)
	inv, ok := b.detectInvocation(scope, s.Body[bodyIdx].Instr)
	if !ok {
		return nil
	}

	container, err := b.expand(ctx, scope, bodyIdx, inv)
	if err != nil {
		return err
	}
	if container.IsValid() {
		s = b.scopes.Get(scope)
		s.Body = s.Body[:bodyIdx]
		if err := b.scopes.ReplaceFooter(scope, container); err != nil {
			return err
		}
	}
	return nil
}

// expand runs the interpreter for one invocation and builds the emitted
// fragment into a fresh scope on a fresh stream. Returns InvalidScopeIndex
// without error when the run failed and a diagnostic was registered.
func (b *Builder) expand(ctx context.Context, scope ir.ScopeIndex, bodyIdx int, inv invocation) (ir.ScopeIndex, error) {
	script, err := execmeta.ScriptSource(inv.alias, b.strings, b.tokens, b.scopes)
	if err != nil {
		b.execDiag(diag.KindExecError, scope, bodyIdx, err.Error())
		return ir.InvalidScopeIndex, nil
	}

	params := make([]string, 0, len(inv.alias.Prefilled)+len(inv.args))
	for _, p := range inv.alias.Prefilled {
		params = append(params, b.strings.Get(p))
	}
	params = append(params, inv.args...)

	fragment, err := b.runtime.Invoke(ctx, inv.name, script, params)
	if err != nil {
		kind := diag.KindExecError
		if errors.Is(err, execmeta.ErrTimeout) {
			kind = diag.KindExecTimeout
		}
		b.execDiag(kind, scope, bodyIdx, err.Error())
		return ir.InvalidScopeIndex, nil
	}

	newStream := b.tokens.NewStream()
	b.errs.AddStream(newStream, "<exec:"+inv.name+">", fragment)
	lexer.Tokenise([]byte(fragment), newStream, b.strings, b.tokens, b.errs)

	container, err := b.scopes.Add(ir.ScopeNaked, scope, newStream)
	if err != nil {
		return ir.InvalidScopeIndex, err
	}
	if err := b.buildInto(ctx, newStream, container); err != nil {
		return ir.InvalidScopeIndex, err
	}
	return container, nil
}

func (b *Builder) execDiag(kind diag.ErrorKind, scope ir.ScopeIndex, bodyIdx int, extra string) {
	d := diag.Diagnostic{
		Kind:             kind,
		Extra:            extra,
		ScopeIndex:       scope,
		InstructionIndex: bodyIdx,
		Part:             diag.PartBody,
	}
	if s := b.scopes.Get(scope); s != nil && bodyIdx < len(s.Body) {
		d.TokenIndices = s.Body[bodyIdx].Instr.Tokens
	}
	b.errs.Register(d)
}

// insideAliasBody reports whether scope or any ancestor is a registered
// lambda body; interpreter source must not trigger nested expansion.
func (b *Builder) insideAliasBody(scope ir.ScopeIndex) bool {
	for idx := scope; idx.IsValid(); {
		if b.exec.IsAliasBody(idx) {
			return true
		}
		s := b.scopes.Get(idx)
		if s == nil {
			break
		}
		idx = s.Parent
	}
	return false
}

// detectInvocation recognises the three execution shapes:
//
//	alias< args >          named invocation
//	alias< args >()        named invocation, call form
//	< args >               no-name invocation, attributed to the path of
//	                       the enclosing named scope
func (b *Builder) detectInvocation(scope ir.ScopeIndex, instr ir.Instruction) (invocation, bool) {
	sig := b.significantTokens(scope, instr)
	if len(sig) == 0 {
		return invocation{}, false
	}

	if sig[0].Kind == ir.OpLess {
		return b.detectNoName(scope, sig)
	}

	if sig[0].Kind != ir.TokenIdentifier || len(sig) < 3 || sig[1].Kind != ir.OpLess {
		return invocation{}, false
	}
	name := b.strings.Get(sig[0].Text)
	if !b.exec.Known(name) {
		return invocation{}, false
	}

	closing := matchingAngle(sig, 1)
	if closing < 0 {
		return invocation{}, false
	}
	// Only a bare call suffix "()" may follow the angle brackets.
	rest := sig[closing+1:]
	if len(rest) != 0 && !(len(rest) == 2 && rest[0].Kind == ir.OpLParen && rest[1].Kind == ir.OpRParen) {
		return invocation{}, false
	}

	alias, ok := b.exec.ResolveFrom(b.scopeNamespace(scope), name)
	if !ok {
		return invocation{}, false
	}
	return invocation{
		alias: alias,
		name:  name,
		args:  execmeta.SplitArgs(b.sliceText(sig[2:closing])),
	}, true
}

// detectNoName handles "< args >": the base alias is the namespaced path of
// the enclosing named scope, or ::anonymous::N when there is none.
func (b *Builder) detectNoName(scope ir.ScopeIndex, sig []ir.Token) (invocation, bool) {
	closing := matchingAngle(sig, 0)
	if closing != len(sig)-1 {
		return invocation{}, false
	}

	path := b.scopeNamespace(scope)
	name := strings.Join(path, "::")
	if name == "" {
		// No named ancestor: attribute to ::anonymous::N. An alias cannot
		// have been declared under a fresh counter value, so resolution
		// fails and the invocation is left alone.
		name = strings.Join(b.exec.AnonymousPath(), "::")
	}
	alias, ok := b.exec.Resolve(name)
	if !ok {
		return invocation{}, false
	}
	return invocation{
		alias: alias,
		name:  name,
		args:  execmeta.SplitArgs(b.sliceText(sig[1:closing])),
	}, true
}

func (b *Builder) significantTokens(scope ir.ScopeIndex, instr ir.Instruction) []ir.Token {
	s := b.scopes.Get(scope)
	out := make([]ir.Token, 0, len(instr.Tokens))
	for _, idx := range instr.Tokens {
		tok := b.tokens.Token(s.StreamID, idx)
		if !tok.Kind.IsLayout() {
			out = append(out, tok)
		}
	}
	return out
}

// matchingAngle returns the index of the '>' balancing the '<' at open, or
// -1 when the brackets do not balance.
func matchingAngle(sig []ir.Token, open int) int {
	depth := 0
	for i := open; i < len(sig); i++ {
		switch sig[i].Kind {
		case ir.OpLess:
			depth++
		case ir.OpGreater:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
