// Package lexer implements layer 1 of the front end: single-pass
// tokenisation of UTF-8 source bytes into the token arena.
//
// Unlike a conventional lexer, whitespace and comments are emitted as
// tokens rather than skipped: concatenating every token's text reproduces
// the source byte-for-byte, which later layers rely on when detokenising
// scopes for meta-execution.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
)

// Result summarises one tokenisation pass. Lexical problems are collected
// in the handler; OK reports whether the pass saw none.
type Result struct {
	StreamID uint32
	First    uint32 // index of the first token produced
	Count    int    // tokens produced, final EOF included
	OK       bool
}

// Tokenise scans source into the given stream. The pass never aborts early:
// bytes matching no rule are reported and skipped so one run surfaces every
// lexical problem. A canonical EOF token always terminates the stream.
func Tokenise(source []byte, streamID uint32, strs *ir.StringArena, tokens *ir.TokenArena, errs *diag.Handler) Result {
	l := &lexer{
		src:      source,
		line:     1,
		col:      1,
		streamID: streamID,
		strings:  strs,
		tokens:   tokens,
		errs:     errs,
		ok:       true,
	}
	first := uint32(tokens.StreamLen(streamID))
	l.run()
	return Result{
		StreamID: streamID,
		First:    first,
		Count:    tokens.StreamLen(streamID) - int(first),
		OK:       l.ok,
	}
}

type lexer struct {
	src      []byte
	pos      int
	line     uint32
	col      uint32
	streamID uint32
	strings  *ir.StringArena
	tokens   *ir.TokenArena
	errs     *diag.Handler
	ok       bool
}

func (l *lexer) peek() byte { return l.at(0) }

func (l *lexer) at(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

// advance consumes one byte. Columns count bytes, 1-based; a bare CR is
// plain whitespace, only LF advances the line counter.
func (l *lexer) advance() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

// mark captures the position of the token about to be scanned.
type mark struct {
	pos  int
	line uint32
	col  uint32
}

func (l *lexer) mark() mark { return mark{pos: l.pos, line: l.line, col: l.col} }

func (l *lexer) emit(kind ir.TokenKind, m mark, lit ir.LiteralValue) {
	l.tokens.Append(l.streamID, ir.Token{
		Kind:    kind,
		Text:    l.strings.Intern(string(l.src[m.pos:l.pos])),
		Literal: lit,
		Line:    m.line,
		Column:  m.col,
		Offset:  uint32(m.pos),
	})
}

func (l *lexer) lexError(m mark, format string, args ...any) {
	l.ok = false
	l.errs.Register(diag.Diagnostic{
		Kind:       diag.KindLexError,
		Extra:      fmt.Sprintf(format, args...),
		ScopeIndex: ir.RootScopeIndex,
		Line:       m.line,
		Column:     m.col,
	})
}

// run is the scanner loop. At each position the rules are attempted in
// fixed order: whitespace, line comment, block comment, string/char literal
// (prefixes included), numeric literal, identifier/keyword, operator.
func (l *lexer) run() {
	for l.pos < len(l.src) {
		m := l.mark()
		b := l.peek()

		switch {
		case isSpace(b):
			l.scanWhitespace(m)
		case b == '/' && l.at(1) == '/':
			l.scanLineComment(m)
		case b == '/' && l.at(1) == '*':
			l.scanBlockComment(m)
		case l.atStringOrChar():
			l.scanStringOrChar(m)
		case isDigit(b) || (b == '.' && isDigit(l.at(1))):
			l.scanNumber(m)
		case isIdentStart(b):
			l.scanIdentifier(m)
		default:
			l.scanOperator(m)
		}
	}
	m := l.mark()
	l.tokens.Append(l.streamID, ir.Token{
		Kind:   ir.TokenEOF,
		Text:   ir.InvalidStrIdx,
		Line:   m.line,
		Column: m.col,
		Offset: uint32(m.pos),
	})
}

func (l *lexer) scanWhitespace(m mark) {
	for l.pos < len(l.src) && isSpace(l.peek()) {
		l.advance()
	}
	l.emit(ir.TokenWhitespace, m, ir.LiteralValue{})
}

// scanLineComment consumes "//..." up to but not including the newline, so
// the newline lands in a whitespace token and round-trips intact.
func (l *lexer) scanLineComment(m mark) {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
	l.emit(ir.TokenComment, m, ir.LiteralValue{})
}

func (l *lexer) scanBlockComment(m mark) {
	l.advance() // /
	l.advance() // *
	for l.pos < len(l.src) {
		if l.peek() == '*' && l.at(1) == '/' {
			l.advance()
			l.advance()
			l.emit(ir.TokenComment, m, ir.LiteralValue{})
			return
		}
		l.advance()
	}
	l.lexError(m, "unterminated block comment")
	l.emit(ir.TokenComment, m, ir.LiteralValue{})
}

// atStringOrChar reports whether the current position starts a string or
// character literal, including the prefixed forms L"", u"", U"", u8"", R"",
// and their character counterparts.
func (l *lexer) atStringOrChar() bool {
	b := l.peek()
	if b == '"' || b == '\'' {
		return true
	}
	switch b {
	case 'L', 'u', 'U':
		if l.at(1) == '"' || l.at(1) == '\'' {
			return true
		}
		if b == 'u' && l.at(1) == '8' && (l.at(2) == '"' || l.at(2) == '\'') {
			return true
		}
	case 'R':
		return l.at(1) == '"'
	}
	return false
}

func (l *lexer) scanStringOrChar(m mark) {
	prefix := ""
	switch l.peek() {
	case 'L', 'U':
		prefix = string(l.advance())
	case 'u':
		if l.at(1) == '8' {
			l.advance()
			l.advance()
			prefix = "u8"
		} else {
			prefix = string(l.advance())
		}
	case 'R':
		l.advance()
		l.scanRawString(m)
		return
	}

	if l.peek() == '\'' {
		l.scanCharLiteral(m, prefix)
		return
	}
	l.scanStringLiteral(m, prefix)
}

var stringKinds = map[string]ir.TokenKind{
	"":   ir.LitString,
	"L":  ir.LitWString,
	"u":  ir.LitString16,
	"U":  ir.LitString32,
	"u8": ir.LitU8String,
}

var charKinds = map[string]ir.LiteralKind{
	"":   ir.LitKindChar,
	"L":  ir.LitKindWChar,
	"u":  ir.LitKindChar16,
	"U":  ir.LitKindChar32,
	"u8": ir.LitKindChar,
}

var charTokenKinds = map[string]ir.TokenKind{
	"":   ir.LitChar,
	"L":  ir.LitWChar,
	"u":  ir.LitChar16,
	"U":  ir.LitChar32,
	"u8": ir.LitChar,
}

func (l *lexer) scanStringLiteral(m mark, prefix string) {
	l.advance() // opening quote
	for l.pos < len(l.src) {
		b := l.peek()
		if b == '"' {
			l.advance()
			l.emit(stringKinds[prefix], m, ir.LiteralValue{})
			return
		}
		if b == '\n' {
			break
		}
		if b == '\\' {
			l.advance()
		}
		l.advance()
	}
	l.lexError(m, "unterminated string literal")
	l.emit(stringKinds[prefix], m, ir.LiteralValue{})
}

// scanRawString handles R"delim( ... )delim". The opening R is already
// consumed.
func (l *lexer) scanRawString(m mark) {
	l.advance() // opening quote
	var delim strings.Builder
	for l.pos < len(l.src) && l.peek() != '(' {
		delim.WriteByte(l.advance())
	}
	if l.pos >= len(l.src) {
		l.lexError(m, "unterminated raw string literal")
		l.emit(ir.LitRawString, m, ir.LiteralValue{})
		return
	}
	l.advance() // (
	closing := ")" + delim.String() + `"`
	for l.pos < len(l.src) {
		if l.peek() == ')' && l.pos+len(closing) <= len(l.src) &&
			string(l.src[l.pos:l.pos+len(closing)]) == closing {
			for range closing {
				l.advance()
			}
			l.emit(ir.LitRawString, m, ir.LiteralValue{})
			return
		}
		l.advance()
	}
	l.lexError(m, "unterminated raw string literal")
	l.emit(ir.LitRawString, m, ir.LiteralValue{})
}

func (l *lexer) scanCharLiteral(m mark, prefix string) {
	l.advance() // opening quote
	var value rune

	switch l.peek() {
	case '\'':
		l.advance()
		l.lexError(m, "empty character literal")
		l.emit(charTokenKinds[prefix], m, ir.LiteralValue{})
		return
	case '\\':
		l.advance()
		esc := l.advance()
		switch esc {
		case 'n':
			value = '\n'
		case 'r':
			value = '\r'
		case 't':
			value = '\t'
		case '0':
			value = 0
		case '\\':
			value = '\\'
		case '\'':
			value = '\''
		case '"':
			value = '"'
		case 'x':
			var hex []byte
			for isHexDigit(l.peek()) {
				hex = append(hex, l.advance())
			}
			n, err := strconv.ParseUint(string(hex), 16, 32)
			if err != nil {
				l.lexError(m, "invalid hex escape in character literal")
			}
			value = rune(n)
		default:
			l.lexError(m, "unknown escape sequence \\%c", esc)
		}
	default:
		// Consume one UTF-8 code point.
		b := l.advance()
		value = rune(b)
		if b >= 0x80 {
			n := 1
			switch {
			case b >= 0xF0:
				n = 3
			case b >= 0xE0:
				n = 2
			}
			raw := []byte{b}
			for i := 0; i < n && l.pos < len(l.src); i++ {
				raw = append(raw, l.advance())
			}
			decoded := []rune(string(raw))
			if len(decoded) > 0 {
				value = decoded[0]
			}
		}
	}

	if l.peek() != '\'' {
		l.lexError(m, "unterminated character literal")
	} else {
		l.advance()
	}
	l.emit(charTokenKinds[prefix], m, ir.LiteralValue{Kind: charKinds[prefix], Rune: value})
}

// scanNumber disambiguates integer vs float with one-character lookahead
// for '.', 'e' or 'E', then parses the suffix to pick the typed variant.
func (l *lexer) scanNumber(m mark) {
	if l.peek() == '0' && (l.at(1) == 'x' || l.at(1) == 'X') {
		l.scanHex(m)
		return
	}

	digitsStart := l.pos
	for isDigit(l.peek()) {
		l.advance()
	}

	isFloat := l.peek() == '.' || l.peek() == 'e' || l.peek() == 'E' || l.src[m.pos] == '.'
	if !isFloat {
		digits := string(l.src[digitsStart:l.pos])
		l.scanIntSuffix(m, digits, 10)
		return
	}

	if l.peek() == '.' {
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	mantissa := string(l.src[m.pos:l.pos])

	kind := ir.LitFloat64
	litKind := ir.LitKindFloat64
	switch l.peek() {
	case 'f', 'F':
		l.advance()
		kind, litKind = ir.LitFloat32, ir.LitKindFloat32
	case 'l', 'L':
		l.advance()
		kind, litKind = ir.LitFloat80, ir.LitKindFloat80
	}

	value, err := strconv.ParseFloat(mantissa, 64)
	if err != nil {
		l.lexError(m, "invalid float literal %q", mantissa)
	}
	l.emit(kind, m, ir.LiteralValue{Kind: litKind, Float: value})
}

func (l *lexer) scanHex(m mark) {
	l.advance() // 0
	l.advance() // x
	digitsStart := l.pos
	for isHexDigit(l.peek()) {
		l.advance()
	}
	digits := string(l.src[digitsStart:l.pos])
	if digits == "" {
		l.lexError(m, "hex literal with no digits")
	}
	l.scanIntSuffix(m, digits, 16)
}

// scanIntSuffix consumes u/l/ll/ul/ull (any case) and emits the typed
// integer literal: no suffix selects i32 when the value fits, i64 otherwise;
// u selects u32; l and ll select i64; ul and ull select u64.
func (l *lexer) scanIntSuffix(m mark, digits string, base int) {
	unsigned := false
	longs := 0
	if l.peek() == 'u' || l.peek() == 'U' {
		unsigned = true
		l.advance()
	}
	for (l.peek() == 'l' || l.peek() == 'L') && longs < 2 {
		longs++
		l.advance()
	}
	if !unsigned && (l.peek() == 'u' || l.peek() == 'U') {
		// l/ll before u is also accepted (e.g. 1lu).
		unsigned = true
		l.advance()
	}

	value, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		l.lexError(m, "invalid integer literal %q", digits)
	}

	var kind ir.TokenKind
	var lit ir.LiteralValue
	switch {
	case unsigned && longs > 0:
		kind = ir.LitUint64
		lit = ir.LiteralValue{Kind: ir.LitKindUint64, Uint: value}
	case unsigned:
		kind = ir.LitUint32
		lit = ir.LiteralValue{Kind: ir.LitKindUint32, Uint: value}
	case longs > 0:
		kind = ir.LitInt64
		lit = ir.LiteralValue{Kind: ir.LitKindInt64, Int: int64(value)}
	case value <= 1<<31-1:
		kind = ir.LitInt32
		lit = ir.LiteralValue{Kind: ir.LitKindInt32, Int: int64(value)}
	default:
		kind = ir.LitInt64
		lit = ir.LiteralValue{Kind: ir.LitKindInt64, Int: int64(value)}
	}
	l.emit(kind, m, lit)
}

func (l *lexer) scanIdentifier(m mark) {
	for isIdentPart(l.peek()) {
		l.advance()
	}
	text := string(l.src[m.pos:l.pos])

	switch text {
	case "true":
		l.emit(ir.LitBool, m, ir.LiteralValue{Kind: ir.LitKindBool, Bool: true})
		return
	case "false":
		l.emit(ir.LitBool, m, ir.LiteralValue{Kind: ir.LitKindBool, Bool: false})
		return
	}
	if kw, ok := keywords[text]; ok {
		l.emit(kw, m, ir.LiteralValue{})
		return
	}
	l.emit(ir.TokenIdentifier, m, ir.LiteralValue{})
}

// scanOperator tries three-, then two-, then one-character matches against
// the closed operator tables. Longest match wins.
func (l *lexer) scanOperator(m mark) {
	if l.pos+3 <= len(l.src) {
		if kind, ok := threeCharOps[string(l.src[l.pos:l.pos+3])]; ok {
			l.advance()
			l.advance()
			l.advance()
			l.emit(kind, m, ir.LiteralValue{})
			return
		}
	}
	if l.pos+2 <= len(l.src) {
		if kind, ok := twoCharOps[string(l.src[l.pos:l.pos+2])]; ok {
			l.advance()
			l.advance()
			l.emit(kind, m, ir.LiteralValue{})
			return
		}
	}
	if kind, ok := oneCharOps[l.peek()]; ok {
		l.advance()
		l.emit(kind, m, ir.LiteralValue{})
		return
	}

	b := l.advance()
	l.lexError(m, "byte %q matches no lexical rule", b)
}
