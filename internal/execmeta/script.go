package execmeta

import (
	"fmt"
	"strings"

	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

// ScriptSource reconstructs the interpreter source for an alias from its
// lambda body scope. The tokeniser preserves every byte, so the body
// instructions detokenise back to the script exactly as written.
func ScriptSource(a *Alias, strs *ir.StringArena, tokens *ir.TokenArena, scopes *ir.ScopeArena) (string, error) {
	scope := scopes.Get(a.Body)
	if scope == nil {
		return "", fmt.Errorf("alias body scope %d does not exist", uint32(a.Body))
	}
	var b strings.Builder
	for _, el := range scope.Body {
		if el.Kind != ir.BodyInstruction {
			return "", fmt.Errorf("alias body may not contain nested scopes")
		}
		b.WriteString(ir.TokensText(strs, tokens, scope.StreamID, el.Instr.Tokens))
	}
	return dedent(strings.TrimLeft(b.String(), "\r\n")), nil
}

// dedent strips the common leading whitespace of all non-blank lines so
// scripts indented to match the surrounding CPrime code parse as top-level
// Starlark.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	margin := -1
	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if margin < 0 || indent < margin {
			margin = indent
		}
	}
	if margin <= 0 {
		return s
	}
	for i, line := range lines {
		if len(line) >= margin {
			lines[i] = line[margin:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// SplitArgs splits the detokenised text between the angle brackets of an
// invocation into trimmed parameter strings. Nested angle brackets and
// parentheses are respected; an empty argument list yields nil.
func SplitArgs(text string) []string {
	var args []string
	depth := 0
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(text[start:i]))
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		args = append(args, tail)
	}
	return args
}
