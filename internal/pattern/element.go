// Package pattern implements the reusable pattern registry and the pattern
// tree used to contextualise instructions. Patterns are element sequences
// inserted into a per-position trie; common prefixes share nodes and the
// registry rejects two patterns with identical element sequences.
package pattern

import (
	"sort"
	"strings"

	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

// Position groups patterns by where an instruction sits within a scope.
type Position uint8

const (
	PosHeader Position = iota
	PosBody
	PosFooter
)

var positionNames = [...]string{
	PosHeader: "Header",
	PosBody:   "Body",
	PosFooter: "Footer",
}

func (p Position) String() string {
	if int(p) < len(positionNames) {
		return positionNames[p]
	}
	return "Position(?)"
}

// ElementKind tags the active variant of an Element.
type ElementKind uint8

const (
	ElemConcrete ElementKind = iota
	ElemLexeme
	ElemGroup
	ElemOptionalWhitespace
	ElemRequiredWhitespace
	ElemNamespacedIdentifier
	ElemExpression
	ElemReusableRef
	ElemEnd
)

// Key names a reusable sub-pattern in the registry.
type Key string

const (
	KeyOptionalAssignment   Key = "OPTIONAL_ASSIGNMENT"
	KeyOptionalTypeModifier Key = "OPTIONAL_TYPE_MODIFIER"
	KeyRepeatableNamespace  Key = "REPEATABLE_NAMESPACE"
)

// Element is one step of a pattern. Exactly the fields selected by Kind are
// meaningful; identity (not pointer equality) keys trie edges.
type Element struct {
	Kind   ElementKind
	Tokens []ir.TokenKind    // Concrete: single entry; Group: the accepted set
	Text   string            // Lexeme: exact source spelling
	Target ir.ContextualKind // contextual kind emitted for matched tokens
	Ref    Key               // ReusableRef: registry key
}

// Concrete matches exactly one raw token of the given kind.
func Concrete(kind ir.TokenKind, target ir.ContextualKind) Element {
	return Element{Kind: ElemConcrete, Tokens: []ir.TokenKind{kind}, Target: target}
}

// Lexeme matches one token whose exact source spelling equals text.
func Lexeme(text string, target ir.ContextualKind) Element {
	return Element{Kind: ElemLexeme, Text: text, Target: target}
}

// Group matches one token whose kind is any member of the set.
func Group(target ir.ContextualKind, kinds ...ir.TokenKind) Element {
	return Element{Kind: ElemGroup, Tokens: kinds, Target: target}
}

// OptionalWhitespace matches zero or one collapsed whitespace token.
func OptionalWhitespace() Element { return Element{Kind: ElemOptionalWhitespace} }

// RequiredWhitespace matches exactly one collapsed whitespace token.
func RequiredWhitespace() Element { return Element{Kind: ElemRequiredWhitespace} }

// NamespacedIdentifier matches an identifier optionally extended by repeated
// ':: identifier' segments, emitting one contextual token covering all of
// them.
func NamespacedIdentifier(target ir.ContextualKind) Element {
	return Element{Kind: ElemNamespacedIdentifier, Target: target}
}

// Expression matches one or more tokens as an opaque expression. The matcher
// tries the longest extent first and backtracks until the remainder of the
// pattern fits.
func Expression(target ir.ContextualKind) Element {
	return Element{Kind: ElemExpression, Target: target}
}

// Ref delegates to a keyed reusable sub-pattern.
func Ref(key Key) Element { return Element{Kind: ElemReusableRef, Ref: key} }

// End is the terminal marker; it matches only when all input is consumed.
func End() Element { return Element{Kind: ElemEnd} }

// identity renders the element as a stable trie-edge key. Two elements with
// the same identity are the same transition.
func (e Element) identity() string {
	switch e.Kind {
	case ElemConcrete:
		return "tok:" + e.Tokens[0].String() + ">" + e.Target.String()
	case ElemLexeme:
		return "lex:" + e.Text + ">" + e.Target.String()
	case ElemGroup:
		kinds := make([]string, len(e.Tokens))
		for i, k := range e.Tokens {
			kinds[i] = k.String()
		}
		sort.Strings(kinds)
		return "grp:" + strings.Join(kinds, "|") + ">" + e.Target.String()
	case ElemOptionalWhitespace:
		return "ws?"
	case ElemRequiredWhitespace:
		return "ws+"
	case ElemNamespacedIdentifier:
		return "nsid>" + e.Target.String()
	case ElemExpression:
		return "expr>" + e.Target.String()
	case ElemReusableRef:
		return "ref:" + string(e.Ref)
	case ElemEnd:
		return "end"
	}
	return "?"
}
