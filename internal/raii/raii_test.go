package raii

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeorgieTragnar/cprime-sub000/internal/contextual"
	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/execmeta"
	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
	"github.com/GeorgieTragnar/cprime-sub000/internal/lexer"
	"github.com/GeorgieTragnar/cprime-sub000/internal/pattern"
	"github.com/GeorgieTragnar/cprime-sub000/internal/structure"
)

type fixture struct {
	strs   *ir.StringArena
	tokens *ir.TokenArena
	scopes *ir.ScopeArena
	errs   *diag.Handler
	l      *Lowerer
}

// newFixture runs layers 1-3 over source and returns a lowerer ready to run.
func newFixture(t *testing.T, source string) *fixture {
	t.Helper()
	strs := ir.NewStringArena()
	tokens := ir.NewTokenArena()
	stream := tokens.NewStream()
	scopes := ir.NewScopeArena(stream)
	errs := diag.NewHandler(nil)
	errs.AddStream(stream, "main.cp", source)
	reg := execmeta.NewRegistry(strs)

	lex := lexer.Tokenise([]byte(source), stream, strs, tokens, errs)
	require.True(t, lex.OK)

	b := structure.NewBuilder(strs, tokens, scopes, errs, reg, execmeta.NewRuntime(0))
	_, err := b.Build(context.Background(), stream)
	require.NoError(t, err)

	patterns, err := pattern.NewRegistry()
	require.NoError(t, err)
	_, err = contextual.New(strs, tokens, scopes, patterns, reg, errs).Run(context.Background())
	require.NoError(t, err)
	require.False(t, errs.HasErrors(), "fixtures must contextualise cleanly: %v", errs.Diagnostics())

	return &fixture{
		strs:   strs,
		tokens: tokens,
		scopes: scopes,
		errs:   errs,
		l:      New(strs, tokens, scopes, errs),
	}
}

func (f *fixture) run(t *testing.T) Result {
	t.Helper()
	res, err := f.l.Run(context.Background())
	require.NoError(t, err)
	return res
}

// funcScope finds the first named-function scope in the arena.
func (f *fixture) funcScope(t *testing.T) (*ir.Scope, ir.ScopeIndex) {
	t.Helper()
	for idx := ir.ScopeIndex(1); int(idx) < f.scopes.Len(); idx++ {
		if s := f.scopes.Get(idx); s.Type == ir.ScopeNamedFunction {
			return s, idx
		}
	}
	t.Fatal("no function scope in fixture")
	return nil, ir.InvalidScopeIndex
}

func (f *fixture) instrFirstText(s *ir.Scope, el ir.BodyElement) string {
	return f.strs.Get(f.tokens.Token(s.StreamID, el.Instr.Tokens[0]).Text)
}

func (f *fixture) instrText(s *ir.Scope, el ir.BodyElement) string {
	return ir.TokensText(f.strs, f.tokens, s.StreamID, el.Instr.Tokens)
}

func countDeferTokens(scopes *ir.ScopeArena) int {
	n := 0
	for idx := ir.ScopeIndex(0); int(idx) < scopes.Len(); idx++ {
		s := scopes.Get(idx)
		for _, el := range s.Body {
			if el.Kind != ir.BodyInstruction {
				continue
			}
			for _, ct := range el.Instr.Contextual {
				if ct.Kind == ir.CtxDeferRAII {
					n++
				}
			}
		}
	}
	return n
}

func TestRun_MissingDestructor(t *testing.T) {
	f := newFixture(t, "class C {\n    C() = default;\n};\n")
	res := f.run(t)
	assert.False(t, res.OK)

	diags := f.errs.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindRAIIMissingDestructor, diags[0].Kind)
	assert.Equal(t, diag.PartHeader, diags[0].Part)

	children := f.scopes.ChildIndices(f.scopes.Root())
	assert.Equal(t, children[0], diags[0].ScopeIndex)
}

func TestRun_MissingConstructor(t *testing.T) {
	f := newFixture(t, "class C {\n    ~C() = default;\n};\n")
	res := f.run(t)
	assert.False(t, res.OK)

	diags := f.errs.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindRAIIMissingConstructor, diags[0].Kind)
}

func TestRun_PairingSatisfied(t *testing.T) {
	src := "class C {\n    C() {\n    }\n    ~C() {\n    }\n};\n" +
		"class Plain {\n    int x;\n};\n"
	f := newFixture(t, src)
	res := f.run(t)
	assert.True(t, res.OK, "%v", f.errs.Diagnostics())
}

func TestRun_DeferLIFOBeforeReturn(t *testing.T) {
	src := `func f {
    Res a;
    Res b;
    defer a;
    defer b;
    return;
}
`
	f := newFixture(t, src)
	res := f.run(t)
	require.True(t, res.OK, "%v", f.errs.Diagnostics())

	s, _ := f.funcScope(t)
	require.Len(t, s.Body, 5, "two decls, two cleanups, one return")

	assert.Equal(t, ir.CtxDestructor, s.Body[2].Instr.Contextual[0].Kind)
	assert.Equal(t, "b", f.instrFirstText(s, s.Body[2]), "later defer cleans up first")
	assert.Equal(t, ir.CtxDestructor, s.Body[3].Instr.Contextual[0].Kind)
	assert.Equal(t, "a", f.instrFirstText(s, s.Body[3]))
	assert.Equal(t, ir.CtxControlFlow, s.Body[4].Instr.Contextual[0].Kind, "exit comes last")

	assert.Zero(t, countDeferTokens(f.scopes), "no defer survives lowering")
}

func TestRun_DeferFallThroughExit(t *testing.T) {
	src := `func f {
    Res a;
    defer a;
    work();
}
`
	f := newFixture(t, src)
	res := f.run(t)
	require.True(t, res.OK, "%v", f.errs.Diagnostics())

	s, _ := f.funcScope(t)
	require.Len(t, s.Body, 3)
	last := s.Body[len(s.Body)-1]
	assert.Equal(t, ir.CtxDestructor, last.Instr.Contextual[0].Kind,
		"cleanup placed at the closing-brace exit")
	assert.Equal(t, "a", f.instrFirstText(s, last))
}

func TestRun_DeferredCallsWithArguments(t *testing.T) {
	src := `func f {
    defer A(x);
    defer B(y);
    return 0;
}
`
	f := newFixture(t, src)
	res := f.run(t)
	require.True(t, res.OK, "%v", f.errs.Diagnostics())

	s, _ := f.funcScope(t)
	require.Len(t, s.Body, 3, "two cleanups and the return")

	assert.Equal(t, ir.CtxDestructor, s.Body[0].Instr.Contextual[0].Kind)
	assert.Equal(t, "B(y)", f.instrText(s, s.Body[0]), "later defer cleans up first, arguments kept")
	assert.Equal(t, ir.CtxDestructor, s.Body[1].Instr.Contextual[0].Kind)
	assert.Equal(t, "A(x)", f.instrText(s, s.Body[1]))
	assert.Equal(t, ir.CtxControlFlow, s.Body[2].Instr.Contextual[0].Kind)
	assert.Zero(t, countDeferTokens(f.scopes))
}

func TestRun_DeferBeforeLaterDeclarationBumps(t *testing.T) {
	src := `func f {
    Res b;
    defer a;
    defer b;
    Res a;
    return;
}
`
	f := newFixture(t, src)
	res := f.run(t)
	require.True(t, res.OK, "%v", f.errs.Diagnostics())

	s, _ := f.funcScope(t)
	require.Len(t, s.Body, 5, "two decls, two cleanups, one return")
	assert.Equal(t, "a", f.instrFirstText(s, s.Body[2]),
		"later-declared object destructs first despite its earlier defer")
	assert.Equal(t, "b", f.instrFirstText(s, s.Body[3]))
}

func TestRun_LaterDeclaredStackObjectDestructsFirst(t *testing.T) {
	src := `func f {
    defer g;
    Res b;
    defer b;
    return;
}
`
	f := newFixture(t, src)
	res := f.run(t)
	require.True(t, res.OK, "%v", f.errs.Diagnostics())

	s, _ := f.funcScope(t)
	require.Len(t, s.Body, 4, "one decl, two cleanups, one return")
	assert.Equal(t, "b", f.instrFirstText(s, s.Body[1]))
	assert.Equal(t, "g", f.instrFirstText(s, s.Body[2]))
}

func TestRun_HeapDeferRejected(t *testing.T) {
	src := `func f {
    Res p = new Res();
    defer p;
}
`
	f := newFixture(t, src)
	res := f.run(t)
	assert.False(t, res.OK)

	diags := f.errs.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindDeferHeapUnsupported, diags[0].Kind)

	s, _ := f.funcScope(t)
	require.Len(t, s.Body, 1, "defer dropped without a cleanup")
	assert.Zero(t, countDeferTokens(f.scopes))
}

func TestRun_ConditionalDeferAssuredReturn(t *testing.T) {
	src := `func f {
    Res a;
    if (cond) {
        defer a;
        return;
    }
    else {
        return;
    }
}
`
	f := newFixture(t, src)
	res := f.run(t)
	require.True(t, res.OK, "%v", f.errs.Diagnostics())

	s, _ := f.funcScope(t)
	branch := f.scopes.Get(s.Body[1].Child)
	require.Len(t, branch.Body, 2)
	assert.Equal(t, ir.CtxDestructor, branch.Body[0].Instr.Contextual[0].Kind,
		"cleanup lowered into the branch exit")
	assert.Equal(t, ir.CtxControlFlow, branch.Body[1].Instr.Contextual[0].Kind)
	assert.Zero(t, countDeferTokens(f.scopes))
}

func TestRun_ConditionalDeferWithoutElseRejected(t *testing.T) {
	src := `func f {
    if (cond) {
        defer a;
    }
}
`
	f := newFixture(t, src)
	res := f.run(t)
	assert.False(t, res.OK)

	diags := f.errs.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindDeferComplexConditional, diags[0].Kind)
	assert.Zero(t, countDeferTokens(f.scopes))
}

func TestRun_UnreachableCodeWarns(t *testing.T) {
	src := `func f {
    return;
    int x;
}
`
	f := newFixture(t, src)
	res := f.run(t)
	assert.True(t, res.OK, "style findings are warnings, not errors")

	diags := f.errs.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindStyle, diags[0].Kind)
	assert.Equal(t, diag.SeverityWarning, diags[0].Severity)
}
