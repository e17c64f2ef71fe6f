package pattern

import (
	"fmt"

	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

// Pattern is one named element sequence bound to an instruction position.
// The last element must be End.
type Pattern struct {
	Name     string
	Position Position
	Elements []Element
}

// subPattern is a keyed reusable sequence. Optional keys succeed on zero
// occurrences; repeatable keys require at least one.
type subPattern struct {
	elements   []Element
	repeatable bool
}

type node struct {
	elem     Element
	children map[string]*node
	order    []string
	terminal *Pattern
}

func newNode(e Element) *node {
	return &node{elem: e, children: make(map[string]*node)}
}

// Registry holds the reusable sub-patterns and one pattern trie per
// instruction position. It is initialised once before layer 3 and immutable
// afterwards.
type Registry struct {
	reusable map[Key]subPattern
	roots    map[Position]*node
	count    int
}

// NewRegistry builds a registry preloaded with the built-in reusable
// sub-patterns and top-level patterns. Initialisation fails if any two
// built-ins collide, which the tests pin down.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		reusable: make(map[Key]subPattern),
		roots: map[Position]*node{
			PosHeader: newNode(Element{}),
			PosBody:   newNode(Element{}),
			PosFooter: newNode(Element{}),
		},
	}
	if err := r.registerBuiltinReusables(); err != nil {
		return nil, err
	}
	for _, p := range builtinPatterns() {
		p := p
		if err := r.Add(&p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegisterReusable adds a keyed sub-pattern. Re-registering a key fails.
func (r *Registry) RegisterReusable(key Key, repeatable bool, elements ...Element) error {
	if _, ok := r.reusable[key]; ok {
		return fmt.Errorf("reusable pattern %q already registered", key)
	}
	if len(elements) == 0 {
		return fmt.Errorf("reusable pattern %q has no elements", key)
	}
	for _, e := range elements {
		if e.Kind == ElemEnd {
			return fmt.Errorf("reusable pattern %q may not contain an end marker", key)
		}
	}
	r.reusable[key] = subPattern{elements: elements, repeatable: repeatable}
	return nil
}

// Add inserts a pattern into its position trie. Patterns must be uniquely
// decidable: a second pattern with an identical element sequence is rejected.
func (r *Registry) Add(p *Pattern) error {
	if len(p.Elements) == 0 {
		return fmt.Errorf("pattern %q has no elements", p.Name)
	}
	for i, e := range p.Elements {
		if e.Kind == ElemEnd && i != len(p.Elements)-1 {
			return fmt.Errorf("pattern %q has an end marker before the last element", p.Name)
		}
		if e.Kind == ElemReusableRef {
			if _, ok := r.reusable[e.Ref]; !ok {
				return fmt.Errorf("pattern %q references unknown reusable key %q", p.Name, e.Ref)
			}
		}
	}
	if p.Elements[len(p.Elements)-1].Kind != ElemEnd {
		return fmt.Errorf("pattern %q does not finish with an end marker", p.Name)
	}

	cur := r.roots[p.Position]
	for _, e := range p.Elements {
		key := e.identity()
		next, ok := cur.children[key]
		if !ok {
			next = newNode(e)
			cur.children[key] = next
			cur.order = append(cur.order, key)
		}
		cur = next
	}
	if cur.terminal != nil {
		return fmt.Errorf("pattern %q collides with %q: identical element sequence", p.Name, cur.terminal.Name)
	}
	cur.terminal = p
	r.count++
	return nil
}

// Len reports the number of registered top-level patterns.
func (r *Registry) Len() int { return r.count }

func (r *Registry) registerBuiltinReusables() error {
	ows := OptionalWhitespace()

	if err := r.RegisterReusable(KeyOptionalAssignment, false,
		ows,
		Concrete(ir.OpAssign, ir.CtxOperator),
		ows,
		Expression(ir.CtxExpression),
	); err != nil {
		return err
	}
	if err := r.RegisterReusable(KeyOptionalTypeModifier, false,
		Group(ir.CtxTypeModifier, ir.KwConst, ir.KwVolatile, ir.KwStatic),
		RequiredWhitespace(),
	); err != nil {
		return err
	}
	return r.RegisterReusable(KeyRepeatableNamespace, true,
		Concrete(ir.OpColonColon, ir.CtxPunctuation),
		ows,
		Concrete(ir.TokenIdentifier, ir.CtxNamespace),
	)
}

// builtinPatterns lists the top-level patterns known to the front end. Every
// sequence starts with optional whitespace because instructions keep their
// exact layout tokens.
func builtinPatterns() []Pattern {
	ows := OptionalWhitespace()
	rws := RequiredWhitespace()
	lparen := Concrete(ir.OpLParen, ir.CtxPunctuation)
	rparen := Concrete(ir.OpRParen, ir.CtxPunctuation)
	expr := Expression(ir.CtxExpression)
	assign := Concrete(ir.OpAssign, ir.CtxOperator)
	deflt := Concrete(ir.KwDefault, ir.CtxRuntimeAccessRight)
	end := End()

	classKinds := Group(ir.CtxDataClass, ir.KwClass, ir.KwStruct, ir.KwUnion, ir.KwInterface, ir.KwPlex)
	builtinType := Group(ir.CtxTypeReference, ir.KwInt, ir.KwChar, ir.KwBool, ir.KwFloat, ir.KwDouble, ir.KwVoid)

	return []Pattern{
		// Headers.
		{Name: "class-header", Position: PosHeader, Elements: []Element{
			ows, classKinds, rws, NamespacedIdentifier(ir.CtxTypeReference), ows, end,
		}},
		{Name: "func-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwFunc, ir.CtxFunctionDeclaration), rws,
			NamespacedIdentifier(ir.CtxFunctionDeclaration), ows, end,
		}},
		{Name: "func-header-empty-params", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwFunc, ir.CtxFunctionDeclaration), rws,
			NamespacedIdentifier(ir.CtxFunctionDeclaration), ows, lparen, ows, rparen, ows, end,
		}},
		{Name: "func-header-params", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwFunc, ir.CtxFunctionDeclaration), rws,
			NamespacedIdentifier(ir.CtxFunctionDeclaration), ows, lparen, ows, expr, ows, rparen, ows, end,
		}},
		{Name: "method-header-empty-params", Position: PosHeader, Elements: []Element{
			ows, builtinType, rws, NamespacedIdentifier(ir.CtxFunctionDeclaration),
			ows, lparen, ows, rparen, ows, end,
		}},
		{Name: "method-header-params", Position: PosHeader, Elements: []Element{
			ows, builtinType, rws, NamespacedIdentifier(ir.CtxFunctionDeclaration),
			ows, lparen, ows, expr, ows, rparen, ows, end,
		}},
		{Name: "namespace-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwNamespace, ir.CtxNamespace), rws,
			NamespacedIdentifier(ir.CtxNamespace), ows, end,
		}},
		{Name: "entry-point-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwInt, ir.CtxTypeReference), rws, Lexeme("main", ir.CtxEntryPoint),
			ows, lparen,
			ows, Concrete(ir.KwInt, ir.CtxTypeReference), rws, Lexeme("argc", ir.CtxVariableDeclaration),
			ows, Concrete(ir.OpComma, ir.CtxPunctuation),
			ows, Concrete(ir.KwChar, ir.CtxTypeReference), ows, Concrete(ir.OpStar, ir.CtxTypeModifier),
			ows, Lexeme("argv", ir.CtxVariableDeclaration),
			ows, Concrete(ir.OpLBracket, ir.CtxPunctuation), ows, Concrete(ir.OpRBracket, ir.CtxPunctuation),
			ows, rparen, ows, assign, ows, deflt, ows, end,
		}},
		{Name: "if-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwIf, ir.CtxControlFlow), ows, lparen, ows, expr, ows, rparen, ows, end,
		}},
		{Name: "else-if-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwElse, ir.CtxControlFlow), rws, Concrete(ir.KwIf, ir.CtxControlFlow),
			ows, lparen, ows, expr, ows, rparen, ows, end,
		}},
		{Name: "else-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwElse, ir.CtxControlFlow), ows, end,
		}},
		{Name: "switch-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwSwitch, ir.CtxControlFlow), ows, lparen, ows, expr, ows, rparen, ows, end,
		}},
		{Name: "while-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwWhile, ir.CtxControlFlow), ows, lparen, ows, expr, ows, rparen, ows, end,
		}},
		{Name: "for-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwFor, ir.CtxControlFlow), ows, lparen, ows, expr, ows, rparen, ows, end,
		}},
		{Name: "do-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwDo, ir.CtxControlFlow), ows, end,
		}},
		{Name: "try-header", Position: PosHeader, Elements: []Element{
			ows, Group(ir.CtxControlFlow, ir.KwTry, ir.KwFinally), ows, end,
		}},
		{Name: "catch-all-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwCatch, ir.CtxControlFlow), ows, end,
		}},
		{Name: "catch-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.KwCatch, ir.CtxControlFlow), ows, lparen, ows, expr, ows, rparen, ows, end,
		}},
		{Name: "constructor-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.TokenIdentifier, ir.CtxConstructor), ows, lparen, ows, rparen, ows, end,
		}},
		{Name: "constructor-header-params", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.TokenIdentifier, ir.CtxConstructor), ows, lparen, ows, expr, ows, rparen, ows, end,
		}},
		{Name: "destructor-header", Position: PosHeader, Elements: []Element{
			ows, Concrete(ir.OpTilde, ir.CtxDestructor), ows, Concrete(ir.TokenIdentifier, ir.CtxDestructor),
			ows, lparen, ows, rparen, ows, end,
		}},
		{Name: "naked-header", Position: PosHeader, Elements: []Element{
			ows, end,
		}},

		// Body instructions.
		{Name: "variable-declaration", Position: PosBody, Elements: []Element{
			ows, Ref(KeyOptionalTypeModifier), builtinType, rws,
			Concrete(ir.TokenIdentifier, ir.CtxVariableDeclaration),
			Ref(KeyOptionalAssignment), ows, end,
		}},
		{Name: "variable-declaration-user-type", Position: PosBody, Elements: []Element{
			ows, Ref(KeyOptionalTypeModifier), NamespacedIdentifier(ir.CtxTypeReference), rws,
			Concrete(ir.TokenIdentifier, ir.CtxVariableDeclaration),
			Ref(KeyOptionalAssignment), ows, end,
		}},
		{Name: "assignment", Position: PosBody, Elements: []Element{
			ows, NamespacedIdentifier(ir.CtxScopeReference), ows, assign, ows, expr, ows, end,
		}},
		{Name: "function-call", Position: PosBody, Elements: []Element{
			ows, NamespacedIdentifier(ir.CtxFunctionCall), ows, lparen, ows, rparen, ows, end,
		}},
		{Name: "function-call-args", Position: PosBody, Elements: []Element{
			ows, NamespacedIdentifier(ir.CtxFunctionCall), ows, lparen, ows, expr, ows, rparen, ows, end,
		}},
		{Name: "defaulted-constructor", Position: PosBody, Elements: []Element{
			ows, Concrete(ir.TokenIdentifier, ir.CtxConstructor), ows, lparen, ows, rparen,
			ows, assign, ows, deflt, ows, end,
		}},
		{Name: "defaulted-destructor", Position: PosBody, Elements: []Element{
			ows, Concrete(ir.OpTilde, ir.CtxDestructor), ows, Concrete(ir.TokenIdentifier, ir.CtxDestructor),
			ows, lparen, ows, rparen, ows, assign, ows, deflt, ows, end,
		}},
		{Name: "defer-statement", Position: PosBody, Elements: []Element{
			ows, Concrete(ir.KwDefer, ir.CtxDeferRAII), rws,
			NamespacedIdentifier(ir.CtxScopeReference), ows, end,
		}},
		{Name: "defer-call", Position: PosBody, Elements: []Element{
			ows, Concrete(ir.KwDefer, ir.CtxDeferRAII), rws,
			NamespacedIdentifier(ir.CtxScopeReference), ows, lparen, ows, rparen, ows, end,
		}},
		{Name: "defer-call-args", Position: PosBody, Elements: []Element{
			ows, Concrete(ir.KwDefer, ir.CtxDeferRAII), rws,
			NamespacedIdentifier(ir.CtxScopeReference), ows, lparen, ows, expr, ows, rparen, ows, end,
		}},
		{Name: "delete-statement", Position: PosBody, Elements: []Element{
			ows, Concrete(ir.KwDelete, ir.CtxControlFlow), rws,
			NamespacedIdentifier(ir.CtxScopeReference), ows, end,
		}},
		{Name: "jump-statement", Position: PosBody, Elements: []Element{
			ows, Group(ir.CtxControlFlow, ir.KwBreak, ir.KwContinue), ows, end,
		}},
		{Name: "return-statement", Position: PosBody, Elements: []Element{
			ows, Concrete(ir.KwReturn, ir.CtxControlFlow), ows, end,
		}},
		{Name: "return-value-statement", Position: PosBody, Elements: []Element{
			ows, Concrete(ir.KwReturn, ir.CtxControlFlow), rws, expr, ows, end,
		}},

		// Footers.
		{Name: "closing-brace", Position: PosFooter, Elements: []Element{
			ows, Concrete(ir.OpRBrace, ir.CtxPunctuation), ows, end,
		}},
		{Name: "return-footer", Position: PosFooter, Elements: []Element{
			ows, Concrete(ir.KwReturn, ir.CtxControlFlow), ows, end,
		}},
		{Name: "return-value-footer", Position: PosFooter, Elements: []Element{
			ows, Concrete(ir.KwReturn, ir.CtxControlFlow), rws, expr, ows, end,
		}},
	}
}
