package validate

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
	"github.com/GeorgieTragnar/cprime-sub000/internal/raii"
	"github.com/GeorgieTragnar/cprime-sub000/internal/structure"
)

func TestValidators_CleanPipeline(t *testing.T) {
	source := `class C {
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
	strs := ir.NewStringArena()
	tokens := ir.NewTokenArena()
	stream := tokens.NewStream()
	scopes := ir.NewScopeArena(stream)
	errs := diag.NewHandler(nil)
	errs.AddStream(stream, "main.cp", source)
	reg := execmeta.NewRegistry(strs)

	require.True(t, lexer.Tokenise([]byte(source), stream, strs, tokens, errs).OK)
	_, err := structure.NewBuilder(strs, tokens, scopes, errs, reg, execmeta.NewRuntime(0)).
		Build(context.Background(), stream)
	require.NoError(t, err)

	v := New(strs, tokens, scopes, errs)
	assert.True(t, v.PostStructure())

	patterns, err := pattern.NewRegistry()
	require.NoError(t, err)
	_, err = contextual.New(strs, tokens, scopes, patterns, reg, errs).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, v.PostContextual(), "%v", errs.Diagnostics())

	_, err = raii.New(strs, tokens, scopes, errs).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, v.PostLowering(), "%v", errs.Diagnostics())
	assert.False(t, errs.HasErrors())
}

func emptyArenas() (*ir.StringArena, *ir.TokenArena, *ir.ScopeArena, *diag.Handler) {
	tokens := ir.NewTokenArena()
	stream := tokens.NewStream()
	return ir.NewStringArena(), tokens, ir.NewScopeArena(stream), diag.NewHandler(nil)
}

func closedFooter() ir.BodyElement {
	return ir.InstructionElement(ir.Instruction{})
}

func TestPostStructure_DoubleReference(t *testing.T) {
	strs, tokens, scopes, errs := emptyArenas()
	child, err := scopes.Add(ir.ScopeNaked, scopes.Root(), 0)
	require.NoError(t, err)
	scopes.Get(child).Footer = closedFooter()
	root := scopes.Get(scopes.Root())
	root.Body = append(root.Body, ir.ChildElement(child), ir.ChildElement(child))

	v := New(strs, tokens, scopes, errs)
	assert.False(t, v.PostStructure())

	diags := errs.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindUnbalancedBraces, diags[0].Kind)
	assert.Contains(t, diags[0].Extra, "referenced 2 times")
}

func TestPostStructure_UnreferencedAndUnclosed(t *testing.T) {
	strs, tokens, scopes, errs := emptyArenas()
	_, err := scopes.Add(ir.ScopeNaked, scopes.Root(), 0)
	require.NoError(t, err)

	v := New(strs, tokens, scopes, errs)
	assert.False(t, v.PostStructure())
	assert.Equal(t, 2, len(errs.Diagnostics()), "unreferenced and unclosed both reported")
}

func TestPostStructure_GeneratedContainerNeedsNoFooter(t *testing.T) {
	strs, tokens, scopes, errs := emptyArenas()
	generated := tokens.NewStream()
	container, err := scopes.Add(ir.ScopeNaked, scopes.Root(), generated)
	require.NoError(t, err)
	root := scopes.Get(scopes.Root())
	root.Body = append(root.Body, ir.ChildElement(container))

	v := New(strs, tokens, scopes, errs)
	assert.True(t, v.PostStructure(),
		"a scope heading a generated stream closes with its stream: %v", errs.Diagnostics())
	assert.Empty(t, errs.Diagnostics())
}

func TestPostContextual_UnaccompaniedSentinel(t *testing.T) {
	strs, tokens, scopes, errs := emptyArenas()
	root := scopes.Get(scopes.Root())
	root.Body = append(root.Body, ir.InstructionElement(ir.Instruction{
		Contextual: []ir.ContextualToken{{Kind: ir.CtxUnknown, Parents: []uint32{0}}},
	}))

	v := New(strs, tokens, scopes, errs)
	assert.False(t, v.PostContextual())

	diags := errs.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindContextualTodo, diags[0].Kind)
	assert.Contains(t, diags[0].Extra, "CONTEXTUAL_UNKNOWN")
}

func TestPostContextual_AccompaniedSentinelNotDuplicated(t *testing.T) {
	strs, tokens, scopes, errs := emptyArenas()
	root := scopes.Get(scopes.Root())
	root.Body = append(root.Body, ir.InstructionElement(ir.Instruction{
		Contextual: []ir.ContextualToken{{Kind: ir.CtxUnknown, Parents: []uint32{0}}},
	}))
	errs.Register(diag.Diagnostic{
		Kind:       diag.KindUnsupportedTokenPattern,
		ScopeIndex: scopes.Root(),
		Part:       diag.PartBody,
	})

	v := New(strs, tokens, scopes, errs)
	assert.False(t, v.PostContextual(), "sentinel still fails the check")
	assert.Len(t, errs.Diagnostics(), 1, "but no duplicate diagnostic is added")
}

func TestPostContextual_TypeAlignment(t *testing.T) {
	strs, tokens, scopes, errs := emptyArenas()
	child, err := scopes.Add(ir.ScopeNamedClass, scopes.Root(), 0)
	require.NoError(t, err)
	cs := scopes.Get(child)
	cs.Footer = closedFooter()
	cs.Header.Contextual = []ir.ContextualToken{{Kind: ir.CtxControlFlow, Parents: []uint32{0}}}
	root := scopes.Get(scopes.Root())
	root.Body = append(root.Body, ir.ChildElement(child))

	v := New(strs, tokens, scopes, errs)
	assert.False(t, v.PostContextual())

	diags := errs.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindUnsupportedTokenPattern, diags[0].Kind)
	assert.Contains(t, diags[0].Extra, "NamedClass")
}

func TestPostLowering_LeftoverDefer(t *testing.T) {
	strs, tokens, scopes, errs := emptyArenas()
	root := scopes.Get(scopes.Root())
	root.Body = append(root.Body, ir.InstructionElement(ir.Instruction{
		Contextual: []ir.ContextualToken{{Kind: ir.CtxDeferRAII, Parents: []uint32{0}}},
	}))

	v := New(strs, tokens, scopes, errs)
	assert.False(t, v.PostLowering())

	diags := errs.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, diag.KindDeferComplexConditional, diags[0].Kind)
	assert.Contains(t, diags[0].Extra, "survived lowering")
}
