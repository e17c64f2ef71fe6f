package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

const cleanSource = `class C {
    C() {
    }
    ~C() {
    }
};
func f {
    Res a;
    defer a;
    return;
}
`

func TestCompile_CleanUnit(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	sum, err := s.Compile(context.Background(), "main.cp", []byte(cleanSource))
	require.NoError(t, err)

	assert.False(t, sum.Failed)
	assert.Zero(t, sum.Errors)
	assert.Equal(t, "main.cp", sum.File)
	assert.Equal(t, 1, sum.Streams)
	assert.Greater(t, sum.Tokens, 10)
	assert.Equal(t, 5, sum.Scopes, "root, class, ctor, dtor, func")

	rep := s.Report()
	assert.False(t, rep.Failed)
	assert.Contains(t, s.Render(), "no diagnostics")
}

func TestCompile_CollectsAcrossLayers(t *testing.T) {
	src := `class C {
    C() = default;
};
func f {
    @ return;
}
`
	s, err := New(nil)
	require.NoError(t, err)

	sum, err := s.Compile(context.Background(), "bad.cp", []byte(src))
	require.NoError(t, err)

	assert.True(t, sum.Failed)
	assert.GreaterOrEqual(t, sum.Errors, 2,
		"lex error and missing destructor surface in one run")

	kinds := map[diag.ErrorKind]bool{}
	for _, d := range s.Handler().Diagnostics() {
		kinds[d.Kind] = true
	}
	assert.True(t, kinds[diag.KindLexError])
	assert.True(t, kinds[diag.KindRAIIMissingDestructor])
}

func TestCompile_ResolvesLocations(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)

	_, err = s.Compile(context.Background(), "loc.cp", []byte("func f {\n    @\n}\n"))
	require.NoError(t, err)

	diags := s.Handler().Diagnostics()
	require.NotEmpty(t, diags)
	assert.True(t, diags[0].Resolved)
	assert.Equal(t, "loc.cp", diags[0].File)
	assert.Equal(t, uint32(2), diags[0].Line)
}

func TestCompile_SeverityOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Severity[diag.KindStyle] = diag.SeveritySuppress

	s, err := New(cfg)
	require.NoError(t, err)

	sum, err := s.Compile(context.Background(), "style.cp",
		[]byte("func f {\n    return;\n    int x;\n}\n"))
	require.NoError(t, err)

	assert.False(t, sum.Failed)
	assert.Zero(t, sum.Warnings, "suppressed style finding leaves the report")
	assert.Len(t, s.Handler().Diagnostics(), 1, "but stays recorded")
}

func TestCompile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s, err := New(nil)
	require.NoError(t, err)
	_, err = s.Compile(ctx, "main.cp", []byte(cleanSource))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLayerEntryPoints(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	ctx := context.Background()

	lex := s.Tokenise("main.cp", []byte(cleanSource))
	require.True(t, lex.OK)
	assert.Equal(t, s.PrimaryStream(), lex.StreamID)

	sres, err := s.BuildStructure(ctx)
	require.NoError(t, err)
	assert.True(t, sres.OK)
	assert.Equal(t, s.Scopes().Root(), sres.Root)

	cres, err := s.Contextualise(ctx)
	require.NoError(t, err)
	assert.True(t, cres.OK)

	lres, err := s.LowerRAIIDefer(ctx)
	require.NoError(t, err)
	assert.True(t, lres.OK)
}

func TestTokenDump(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	require.True(t, s.Tokenise("main.cp", []byte("int x;\n")).OK)

	dump := s.TokenDump()
	assert.Contains(t, dump, `"int"`)
	assert.Contains(t, dump, `"x"`)
	assert.Contains(t, dump, ir.TokenEOF.String())
}

func TestStructureDump(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	_, err = s.Compile(context.Background(), "main.cp", []byte(cleanSource))
	require.NoError(t, err)

	dump := s.StructureDump()
	assert.Contains(t, dump, ir.ScopeTopLevel.String())
	assert.Contains(t, dump, ir.ScopeNamedClass.String())
	assert.Contains(t, dump, ir.ScopeNamedFunction.String())
	assert.Contains(t, dump, `"class C"`)
}

func TestSessionsAreIndependent(t *testing.T) {
	a, err := New(nil)
	require.NoError(t, err)
	b, err := New(nil)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)

	_, err = a.Compile(context.Background(), "a.cp", []byte("func f {\n    @\n}\n"))
	require.NoError(t, err)
	_, err = b.Compile(context.Background(), "b.cp", []byte(cleanSource))
	require.NoError(t, err)

	assert.True(t, a.Handler().HasErrors())
	assert.False(t, b.Handler().HasErrors())
}
