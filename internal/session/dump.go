package session

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

// TokenDump renders the primary stream one token per line, for the tokenise
// command and for golden comparison.
func (s *Session) TokenDump() string {
	var b strings.Builder
	for _, tok := range s.tokens.StreamTokens(s.primary) {
		fmt.Fprintf(&b, "%4d:%-3d %-22s %s\n",
			tok.Line, tok.Column, tok.Kind, strconv.Quote(s.strings.Get(tok.Text)))
	}
	return b.String()
}

// StructureDump renders the scope tree with one line per scope, children
// indented under their parents. Generated scopes carry their stream id so
// meta-execution output is distinguishable from user source.
func (s *Session) StructureDump() string {
	var b strings.Builder
	s.dumpScope(&b, s.scopes.Root(), 0)
	return b.String()
}

func (s *Session) dumpScope(b *strings.Builder, idx ir.ScopeIndex, depth int) {
	scope := s.scopes.Get(idx)
	indent := strings.Repeat("  ", depth)

	header := strings.TrimSpace(ir.TokensText(s.strings, s.tokens, scope.StreamID, scope.Header.Tokens))
	line := fmt.Sprintf("%s%s", indent, scope.Type)
	if header != "" {
		line += " " + strconv.Quote(header)
	}
	if scope.StreamID != s.primary {
		line += fmt.Sprintf(" (stream %d)", scope.StreamID)
	}
	b.WriteString(line + "\n")

	for _, el := range scope.Body {
		switch el.Kind {
		case ir.BodyInstruction:
			text := strings.TrimSpace(ir.TokensText(s.strings, s.tokens, scope.StreamID, el.Instr.Tokens))
			if text == "" {
				continue
			}
			fmt.Fprintf(b, "%s  instr %s%s\n", indent, strconv.Quote(text), contextualSuffix(el.Instr))
		case ir.BodyChildScope:
			s.dumpScope(b, el.Child, depth+1)
		}
	}
	if scope.Footer.Kind == ir.BodyChildScope {
		s.dumpScope(b, scope.Footer.Child, depth+1)
	}
}

// contextualSuffix lists an instruction's contextual kinds, if populated.
func contextualSuffix(instr ir.Instruction) string {
	if len(instr.Contextual) == 0 {
		return ""
	}
	kinds := make([]string, 0, len(instr.Contextual))
	for _, ct := range instr.Contextual {
		kinds = append(kinds, ct.Kind.String())
	}
	return " [" + strings.Join(kinds, " ") + "]"
}
