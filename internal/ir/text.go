package ir

import "strings"

// TokensText reconstructs source text from token indices by concatenating
// each token's preserved spelling. Because the tokeniser keeps whitespace
// and comments, a contiguous index range reproduces the original bytes.
func TokensText(strs *StringArena, tokens *TokenArena, stream uint32, indices []uint32) string {
	var b strings.Builder
	for _, idx := range indices {
		tok := tokens.Token(stream, idx)
		if tok.Kind == TokenEOF {
			continue
		}
		b.WriteString(strs.Get(tok.Text))
	}
	return b.String()
}
