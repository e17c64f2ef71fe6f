package execmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

func TestRegistry_RegisterAndResolve(t *testing.T) {
	strs := ir.NewStringArena()
	r := NewRegistry(strs)

	a := r.Register([]string{"gen", "mk_getter"}, 3, []string{"T"})
	require.Equal(t, 1, r.Len())

	got, ok := r.Resolve("gen::mk_getter")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, ir.ScopeIndex(3), got.Body)
	assert.Equal(t, "gen::mk_getter", r.PathString(got))
	assert.Equal(t, "T", strs.Get(got.Prefilled[0]))

	_, ok = r.Resolve("mk_getter")
	assert.False(t, ok, "bare name does not resolve fully qualified")
}

func TestRegistry_ResolveFrom(t *testing.T) {
	r := NewRegistry(ir.NewStringArena())
	outer := r.Register([]string{"mk"}, 1, nil)
	inner := r.Register([]string{"gen", "mk"}, 2, nil)

	got, ok := r.ResolveFrom([]string{"gen"}, "mk")
	require.True(t, ok)
	assert.Same(t, inner, got, "innermost qualification wins")

	got, ok = r.ResolveFrom([]string{"other"}, "mk")
	require.True(t, ok)
	assert.Same(t, outer, got, "falls back to the global name")

	_, ok = r.ResolveFrom([]string{"gen"}, "absent")
	assert.False(t, ok)
}

func TestRegistry_Known(t *testing.T) {
	r := NewRegistry(ir.NewStringArena())
	r.Register([]string{"gen", "mk_getter"}, 1, nil)

	assert.True(t, r.Known("mk_getter"))
	assert.True(t, r.Known("gen::mk_getter"))
	assert.False(t, r.Known("mk_setter"))
}

func TestRegistry_AnonymousPathsAreDistinct(t *testing.T) {
	r := NewRegistry(ir.NewStringArena())
	first := r.AnonymousPath()
	second := r.AnonymousPath()
	assert.Equal(t, []string{"", "anonymous", "1"}, first)
	assert.Equal(t, []string{"", "anonymous", "2"}, second)
}

func TestSplitArgs(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"Foo", []string{"Foo"}},
		{"Foo, bar", []string{"Foo", "bar"}},
		{" a ,b, c ", []string{"a", "b", "c"}},
		{"pair<int, bool>, x", []string{"pair<int, bool>", "x"}},
		{"f(a, b), g", []string{"f(a, b)", "g"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SplitArgs(tc.in), "input %q", tc.in)
	}
}

func TestDedent(t *testing.T) {
	in := "    emit(\"a\")\n    for i in range(2):\n        emit(\"b\")\n"
	out := dedent(in)
	assert.Equal(t, "emit(\"a\")\nfor i in range(2):\n    emit(\"b\")\n", out)
}
