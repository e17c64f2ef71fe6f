package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringArena_InternIsIdempotent(t *testing.T) {
	arena := NewStringArena()

	inputs := []string{"x", "foo", "", "x", "foo", "// comment", "x"}
	seen := make(map[string]StrIdx)

	for _, in := range inputs {
		idx := arena.Intern(in)
		if prev, ok := seen[in]; ok {
			assert.Equal(t, prev, idx, "re-interning %q must return the same index", in)
		}
		seen[in] = idx
	}

	assert.Equal(t, 4, arena.Len(), "four distinct strings were interned")
}

func TestStringArena_GetRoundTrip(t *testing.T) {
	arena := NewStringArena()

	for _, text := range []string{"alpha", "beta", "", "日本語", "a b\tc"} {
		idx := arena.Intern(text)
		assert.Equal(t, text, arena.Get(idx))
	}
}

func TestStringArena_GetInvalid(t *testing.T) {
	arena := NewStringArena()
	arena.Intern("only")

	assert.Equal(t, "", arena.Get(InvalidStrIdx))
	assert.Equal(t, "", arena.Get(StrIdx(99)), "out-of-range index yields empty string")
}

func TestStringArena_IndicesAreDense(t *testing.T) {
	arena := NewStringArena()

	for i := 0; i < 100; i++ {
		idx := arena.Intern(fmt.Sprintf("s%d", i))
		require.Equal(t, StrIdx(i), idx, "indices are handed out densely in intern order")
	}
}

func TestStrIdx_IsValid(t *testing.T) {
	assert.True(t, StrIdx(0).IsValid())
	assert.False(t, InvalidStrIdx.IsValid())
}
