package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeArena_RootInvariant(t *testing.T) {
	arena := NewScopeArena(0)

	require.Equal(t, 1, arena.Len())
	root := arena.Get(arena.Root())
	require.NotNil(t, root)
	assert.Equal(t, ScopeTopLevel, root.Type)
	assert.Equal(t, InvalidScopeIndex, root.Parent)
}

func TestScopeArena_AddKeepsIndicesStable(t *testing.T) {
	arena := NewScopeArena(0)

	first, err := arena.Add(ScopeNamedClass, arena.Root(), 0)
	require.NoError(t, err)
	firstPtr := arena.Get(first)
	firstPtr.Header = Instruction{Tokens: []uint32{0, 1}}

	// Growing the arena must not invalidate earlier indices.
	for i := 0; i < 100; i++ {
		_, err := arena.Add(ScopeNaked, first, 0)
		require.NoError(t, err)
	}

	again := arena.Get(first)
	assert.Equal(t, []uint32{0, 1}, again.Header.Tokens)
	assert.Equal(t, ScopeNamedClass, again.Type)
}

func TestScopeArena_ChildIndices(t *testing.T) {
	arena := NewScopeArena(0)
	root := arena.Root()

	a, err := arena.Add(ScopeNamedFunction, root, 0)
	require.NoError(t, err)
	b, err := arena.Add(ScopeNamedClass, root, 0)
	require.NoError(t, err)

	rootScope := arena.Get(root)
	rootScope.Body = append(rootScope.Body,
		ChildElement(a),
		InstructionElement(Instruction{Tokens: []uint32{5}}),
		ChildElement(b),
	)

	assert.Equal(t, []ScopeIndex{a, b}, arena.ChildIndices(root))
	assert.Nil(t, arena.ChildIndices(InvalidScopeIndex))
}

func TestScopeArena_ReplaceFooter(t *testing.T) {
	arena := NewScopeArena(0)
	target, err := arena.Add(ScopeNamedFunction, arena.Root(), 0)
	require.NoError(t, err)
	generated, err := arena.Add(ScopeNamedFunction, target, 0)
	require.NoError(t, err)

	require.NoError(t, arena.ReplaceFooter(target, generated))
	footer := arena.Get(target).Footer
	assert.Equal(t, BodyChildScope, footer.Kind)
	assert.Equal(t, generated, footer.Child)

	assert.Error(t, arena.ReplaceFooter(InvalidScopeIndex, generated))
	assert.Error(t, arena.ReplaceFooter(target, ScopeIndex(999)))
}

func TestEncodeScopeIndex_RoundTrip(t *testing.T) {
	cases := []ScopeIndex{0, 1, 42, 1<<31 - 2}
	for _, idx := range cases {
		kind, err := EncodeScopeIndex(idx)
		require.NoError(t, err)
		assert.True(t, kind.IsScopeIndex())
		assert.Equal(t, idx, kind.ScopeIndex())
	}
}

func TestEncodeScopeIndex_RejectsHighBit(t *testing.T) {
	_, err := EncodeScopeIndex(ScopeIndex(1 << 31))
	assert.Error(t, err)
}

func TestContextualKind_Sentinels(t *testing.T) {
	assert.True(t, CtxTodo.IsSentinel())
	assert.True(t, CtxError.IsSentinel())
	assert.True(t, CtxUnknown.IsSentinel())
	assert.False(t, CtxInvalid.IsSentinel(), "CtxInvalid is tolerated with a diagnostic, not a validator failure by itself")
	assert.False(t, CtxExpression.IsSentinel())

	encoded, err := EncodeScopeIndex(3)
	require.NoError(t, err)
	assert.False(t, encoded.IsSentinel())
	assert.Equal(t, "SCOPE_INDEX(3)", encoded.String())
}
