// Package execmeta implements compile-time meta-execution: the namespaced
// registry of exec aliases and the sandboxed Starlark runtime that turns an
// alias invocation into a source fragment.
//
// The registry is append-only while layer 2 runs and read-only afterwards.
// The runtime grants scripts exactly four capabilities: get_param,
// param_count, emit and emit_line. Nothing is written to any arena until
// the interpreter completes successfully.
package execmeta

import (
	"strconv"
	"strings"

	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

// Alias is one registered exec macro: a namespaced path, the scope holding
// its lambda body, and parameters prefilled at the declaration site.
type Alias struct {
	Path      []ir.StrIdx
	Body      ir.ScopeIndex
	Prefilled []ir.StrIdx
}

// Registry maps namespaced paths to exec aliases.
type Registry struct {
	strings *ir.StringArena
	aliases map[string]*Alias
	bodies  map[ir.ScopeIndex]bool
	anon    int // counter for ::anonymous::N attribution
}

// NewRegistry creates an empty registry borrowing the session string arena.
func NewRegistry(strs *ir.StringArena) *Registry {
	return &Registry{
		strings: strs,
		aliases: make(map[string]*Alias),
		bodies:  make(map[ir.ScopeIndex]bool),
	}
}

// Register adds an alias under the given path segments. Re-registering a
// path overwrites the previous alias; declaration sites are processed in
// source order so the last declaration wins.
func (r *Registry) Register(path []string, body ir.ScopeIndex, prefilled []string) *Alias {
	a := &Alias{Body: body}
	for _, seg := range path {
		a.Path = append(a.Path, r.strings.Intern(seg))
	}
	for _, p := range prefilled {
		a.Prefilled = append(a.Prefilled, r.strings.Intern(p))
	}
	r.aliases[strings.Join(path, "::")] = a
	r.bodies[body] = true
	return a
}

// IsAliasBody reports whether scope holds a registered lambda body. Such
// scopes contain interpreter source, not CPrime, so the contextualiser and
// the builder's own invocation detection leave them alone.
func (r *Registry) IsAliasBody(scope ir.ScopeIndex) bool {
	return r.bodies[scope]
}

// Resolve looks up a fully-qualified path.
func (r *Registry) Resolve(qualified string) (*Alias, bool) {
	a, ok := r.aliases[qualified]
	return a, ok
}

// ResolveFrom resolves name from inside the given namespace, trying the
// innermost qualification first and falling back to the global name.
func (r *Registry) ResolveFrom(namespace []string, name string) (*Alias, bool) {
	for i := len(namespace); i >= 0; i-- {
		key := strings.Join(append(append([]string{}, namespace[:i]...), name), "::")
		if a, ok := r.aliases[key]; ok {
			return a, true
		}
	}
	return nil, false
}

// Known reports whether name resolves at all, in any namespace. Layer 2
// uses this to decide whether "identifier <" opens an exec invocation or a
// comparison.
func (r *Registry) Known(name string) bool {
	if _, ok := r.aliases[name]; ok {
		return true
	}
	suffix := "::" + name
	for key := range r.aliases {
		if strings.HasSuffix(key, suffix) {
			return true
		}
	}
	return false
}

// AnonymousPath mints the base alias path for a no-name exec with no named
// enclosing scope: ::anonymous::N, N increasing per session.
func (r *Registry) AnonymousPath() []string {
	r.anon++
	return []string{"", "anonymous", strconv.Itoa(r.anon)}
}

// Len reports the number of registered aliases.
func (r *Registry) Len() int { return len(r.aliases) }

// PathString renders an alias path for diagnostics.
func (r *Registry) PathString(a *Alias) string {
	parts := make([]string, len(a.Path))
	for i, idx := range a.Path {
		parts[i] = r.strings.Get(idx)
	}
	return strings.Join(parts, "::")
}

