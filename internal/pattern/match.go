package pattern

import (
	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

// Preprocess reduces an instruction's raw tokens to the clean sequence the
// matcher operates on: comments are dropped entirely and runs of whitespace
// collapse into their first token. Raw tokens are never modified.
func Preprocess(tokens []ir.Token) []ir.Token {
	clean := make([]ir.Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Kind == ir.TokenComment {
			continue
		}
		if tok.Kind == ir.TokenWhitespace && len(clean) > 0 && clean[len(clean)-1].Kind == ir.TokenWhitespace {
			continue
		}
		clean = append(clean, tok)
	}
	return clean
}

// alt is one way an element (or element sequence) can consume input:
// the cursor position after the match plus the contextual tokens emitted.
type alt struct {
	next  int
	emits []ir.ContextualToken
}

// Candidate is one pattern that consumed the whole input, together with the
// contextual tokens its first successful parse emitted.
type Candidate struct {
	Pattern    *Pattern
	Contextual []ir.ContextualToken
}

// Match runs the position's pattern tree against the clean token sequence
// and returns the first pattern that consumes all input, together with the
// contextual tokens it emitted. Matching is a pure function of its inputs;
// repeated runs yield identical results.
func (r *Registry) Match(strs *ir.StringArena, pos Position, clean []ir.Token) (*Pattern, []ir.ContextualToken, bool) {
	cands := r.MatchAll(strs, pos, clean)
	if len(cands) == 0 {
		return nil, nil, false
	}
	return cands[0].Pattern, cands[0].Contextual, true
}

// MatchAll returns every distinct pattern that consumes the whole input, in
// trie order. A pattern that matches in more than one way contributes its
// first parse only. More than one candidate means the instruction is
// ambiguous between patterns; the caller decides how to report that.
func (r *Registry) MatchAll(strs *ir.StringArena, pos Position, clean []ir.Token) []Candidate {
	root, ok := r.roots[pos]
	if !ok {
		return nil
	}
	var out []Candidate
	seen := make(map[*Pattern]bool)
	r.collectMatches(strs, root, clean, 0, nil, seen, &out)
	return out
}

func (r *Registry) collectMatches(strs *ir.StringArena, n *node, clean []ir.Token, at int, acc []ir.ContextualToken, seen map[*Pattern]bool, out *[]Candidate) {
	for _, key := range n.order {
		child := n.children[key]
		if child.elem.Kind == ElemEnd {
			if at == len(clean) && child.terminal != nil && !seen[child.terminal] {
				seen[child.terminal] = true
				*out = append(*out, Candidate{Pattern: child.terminal, Contextual: acc})
			}
			continue
		}
		for _, a := range r.matchElement(strs, child.elem, clean, at) {
			merged := acc
			if len(a.emits) > 0 {
				merged = append(append([]ir.ContextualToken{}, acc...), a.emits...)
			}
			r.collectMatches(strs, child, clean, a.next, merged, seen, out)
		}
	}
}

// matchElement enumerates the ways e can match clean starting at the cursor,
// preferred alternative first.
func (r *Registry) matchElement(strs *ir.StringArena, e Element, clean []ir.Token, at int) []alt {
	switch e.Kind {
	case ElemConcrete, ElemGroup:
		if at >= len(clean) {
			return nil
		}
		for _, kind := range e.Tokens {
			if clean[at].Kind == kind {
				return []alt{{next: at + 1, emits: emit(e.Target, clean[at].Index)}}
			}
		}
		return nil

	case ElemLexeme:
		if at >= len(clean) || clean[at].Kind.IsLayout() {
			return nil
		}
		if strs.Get(clean[at].Text) != e.Text {
			return nil
		}
		return []alt{{next: at + 1, emits: emit(e.Target, clean[at].Index)}}

	case ElemOptionalWhitespace:
		if at < len(clean) && clean[at].Kind == ir.TokenWhitespace {
			return []alt{{next: at + 1}, {next: at}}
		}
		return []alt{{next: at}}

	case ElemRequiredWhitespace:
		if at < len(clean) && clean[at].Kind == ir.TokenWhitespace {
			return []alt{{next: at + 1}}
		}
		return nil

	case ElemNamespacedIdentifier:
		return r.matchNamespacedIdentifier(e, clean, at)

	case ElemExpression:
		return matchExpression(e, clean, at)

	case ElemReusableRef:
		return r.matchRef(strs, e, clean, at)
	}
	return nil
}

// matchNamespacedIdentifier consumes 'ident (:: ident)*' greedily, tolerating
// whitespace around the separators. One contextual token covers all the
// significant parents.
func (r *Registry) matchNamespacedIdentifier(e Element, clean []ir.Token, at int) []alt {
	if at >= len(clean) || clean[at].Kind != ir.TokenIdentifier {
		return nil
	}
	parents := []uint32{clean[at].Index}
	pos := at + 1
	for {
		p := pos
		if p < len(clean) && clean[p].Kind == ir.TokenWhitespace {
			p++
		}
		if p >= len(clean) || clean[p].Kind != ir.OpColonColon {
			break
		}
		q := p + 1
		if q < len(clean) && clean[q].Kind == ir.TokenWhitespace {
			q++
		}
		if q >= len(clean) || clean[q].Kind != ir.TokenIdentifier {
			break
		}
		parents = append(parents, clean[p].Index, clean[q].Index)
		pos = q + 1
	}
	return []alt{{next: pos, emits: []ir.ContextualToken{{Kind: e.Target, Parents: parents}}}}
}

// matchExpression enumerates opaque-expression extents from longest to
// shortest so the remainder of the pattern decides the boundary. An extent
// must start and finish on a significant token and covers at least one.
func matchExpression(e Element, clean []ir.Token, at int) []alt {
	if at >= len(clean) || clean[at].Kind.IsLayout() {
		return nil
	}
	var alts []alt
	for end := len(clean); end > at; end-- {
		if clean[end-1].Kind.IsLayout() {
			continue
		}
		var parents []uint32
		for _, tok := range clean[at:end] {
			if !tok.Kind.IsLayout() {
				parents = append(parents, tok.Index)
			}
		}
		alts = append(alts, alt{
			next:  end,
			emits: []ir.ContextualToken{{Kind: e.Target, Parents: parents}},
		})
	}
	return alts
}

// matchRef inlines the keyed sub-pattern. Optional keys contribute a
// zero-occurrence alternative; repeatable keys chain one or more matches.
func (r *Registry) matchRef(strs *ir.StringArena, e Element, clean []ir.Token, at int) []alt {
	sub, ok := r.reusable[e.Ref]
	if !ok {
		return nil
	}
	if !sub.repeatable {
		alts := r.matchSequence(strs, sub.elements, clean, at)
		return append(alts, alt{next: at})
	}

	var out []alt
	var extend func(pos int, acc []ir.ContextualToken)
	extend = func(pos int, acc []ir.ContextualToken) {
		for _, a := range r.matchSequence(strs, sub.elements, clean, pos) {
			if a.next == pos {
				continue // no progress, would loop
			}
			merged := append(append([]ir.ContextualToken{}, acc...), a.emits...)
			out = append(out, alt{next: a.next, emits: merged})
			extend(a.next, merged)
		}
	}
	extend(at, nil)
	return out
}

// matchSequence enumerates the ways a flat element sequence can consume input
// starting at the cursor.
func (r *Registry) matchSequence(strs *ir.StringArena, elems []Element, clean []ir.Token, at int) []alt {
	if len(elems) == 0 {
		return []alt{{next: at}}
	}
	var out []alt
	for _, a := range r.matchElement(strs, elems[0], clean, at) {
		for _, rest := range r.matchSequence(strs, elems[1:], clean, a.next) {
			merged := append(append([]ir.ContextualToken{}, a.emits...), rest.emits...)
			out = append(out, alt{next: rest.next, emits: merged})
		}
	}
	return out
}

func emit(target ir.ContextualKind, index uint32) []ir.ContextualToken {
	if target == ir.CtxInvalid {
		return nil
	}
	return []ir.ContextualToken{{Kind: target, Parents: []uint32{index}}}
}
