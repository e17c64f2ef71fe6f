package ir

import "fmt"

// TokenKind identifies the lexical category of a raw token.
type TokenKind uint16

const (
	TokenEOF TokenKind = iota // sentinel: end of stream

	TokenIdentifier
	TokenComment    // line or block comment, text preserved
	TokenWhitespace // run of spaces/tabs/newlines, text preserved

	// Keywords
	KwClass
	KwStruct
	KwUnion
	KwInterface
	KwPlex
	KwIf
	KwElse
	KwSwitch
	KwCase
	KwDefault
	KwWhile
	KwFor
	KwDo
	KwTry
	KwCatch
	KwFinally
	KwFunc
	KwReturn
	KwDefer
	KwConst
	KwVolatile
	KwStatic
	KwInt
	KwChar
	KwBool
	KwFloat
	KwDouble
	KwVoid
	KwNew
	KwDelete
	KwBreak
	KwContinue
	KwNamespace

	// Typed literals. The suffix/prefix parsed by the tokeniser selects the
	// exact kind; the decoded value lives in Token.Literal.
	LitInt32
	LitUint32
	LitInt64
	LitUint64
	LitFloat32
	LitFloat64
	LitFloat80
	LitChar
	LitWChar
	LitChar16
	LitChar32
	LitBool

	// String literals carry interned text rather than a literal payload.
	LitString
	LitWString
	LitString16
	LitString32
	LitU8String
	LitRawString

	// Paired delimiters
	OpLBrace   // {
	OpRBrace   // }
	OpLParen   // (
	OpRParen   // )
	OpLBracket // [
	OpRBracket // ]

	// Punctuation
	OpSemicolon  // ;
	OpComma      // ,
	OpDot        // .
	OpColon      // :
	OpColonColon // ::
	OpArrow      // ->
	OpQuestion   // ?
	OpEllipsis   // ...

	// Operators
	OpPlus         // +
	OpMinus        // -
	OpStar         // *
	OpSlash        // /
	OpPercent      // %
	OpAmp          // &
	OpPipe         // |
	OpCaret        // ^
	OpTilde        // ~
	OpBang         // !
	OpAssign       // =
	OpPlusAssign   // +=
	OpMinusAssign  // -=
	OpStarAssign   // *=
	OpSlashAssign  // /=
	OpPercentAssign // %=
	OpAmpAssign    // &=
	OpPipeAssign   // |=
	OpCaretAssign  // ^=
	OpShlAssign    // <<=
	OpShrAssign    // >>=
	OpEq           // ==
	OpNotEq        // !=
	OpLess         // <
	OpGreater      // >
	OpLessEq       // <=
	OpGreaterEq    // >=
	OpShl          // <<
	OpShr          // >>
	OpAndAnd       // &&
	OpOrOr         // ||
	OpPlusPlus     // ++
	OpMinusMinus   // --

	tokenKindCount // keep last
)

var tokenKindNames = [...]string{
	TokenEOF:        "EOF",
	TokenIdentifier: "IDENTIFIER",
	TokenComment:    "COMMENT",
	TokenWhitespace: "WHITESPACE",
	KwClass:         "KW_CLASS",
	KwStruct:        "KW_STRUCT",
	KwUnion:         "KW_UNION",
	KwInterface:     "KW_INTERFACE",
	KwPlex:          "KW_PLEX",
	KwIf:            "KW_IF",
	KwElse:          "KW_ELSE",
	KwSwitch:        "KW_SWITCH",
	KwCase:          "KW_CASE",
	KwDefault:       "KW_DEFAULT",
	KwWhile:         "KW_WHILE",
	KwFor:           "KW_FOR",
	KwDo:            "KW_DO",
	KwTry:           "KW_TRY",
	KwCatch:         "KW_CATCH",
	KwFinally:       "KW_FINALLY",
	KwFunc:          "KW_FUNC",
	KwReturn:        "KW_RETURN",
	KwDefer:         "KW_DEFER",
	KwConst:         "KW_CONST",
	KwVolatile:      "KW_VOLATILE",
	KwStatic:        "KW_STATIC",
	KwInt:           "KW_INT",
	KwChar:          "KW_CHAR",
	KwBool:          "KW_BOOL",
	KwFloat:         "KW_FLOAT",
	KwDouble:        "KW_DOUBLE",
	KwVoid:          "KW_VOID",
	KwNew:           "KW_NEW",
	KwDelete:        "KW_DELETE",
	KwBreak:         "KW_BREAK",
	KwContinue:      "KW_CONTINUE",
	KwNamespace:     "KW_NAMESPACE",
	LitInt32:        "LIT_INT32",
	LitUint32:       "LIT_UINT32",
	LitInt64:        "LIT_INT64",
	LitUint64:       "LIT_UINT64",
	LitFloat32:      "LIT_FLOAT32",
	LitFloat64:      "LIT_FLOAT64",
	LitFloat80:      "LIT_FLOAT80",
	LitChar:         "LIT_CHAR",
	LitWChar:        "LIT_WCHAR",
	LitChar16:       "LIT_CHAR16",
	LitChar32:       "LIT_CHAR32",
	LitBool:         "LIT_BOOL",
	LitString:       "LIT_STRING",
	LitWString:      "LIT_WSTRING",
	LitString16:     "LIT_STRING16",
	LitString32:     "LIT_STRING32",
	LitU8String:     "LIT_U8STRING",
	LitRawString:    "LIT_RAWSTRING",
	OpLBrace:        "LBRACE",
	OpRBrace:        "RBRACE",
	OpLParen:        "LPAREN",
	OpRParen:        "RPAREN",
	OpLBracket:      "LBRACKET",
	OpRBracket:      "RBRACKET",
	OpSemicolon:     "SEMICOLON",
	OpComma:         "COMMA",
	OpDot:           "DOT",
	OpColon:         "COLON",
	OpColonColon:    "COLON_COLON",
	OpArrow:         "ARROW",
	OpQuestion:      "QUESTION",
	OpEllipsis:      "ELLIPSIS",
	OpPlus:          "PLUS",
	OpMinus:         "MINUS",
	OpStar:          "STAR",
	OpSlash:         "SLASH",
	OpPercent:       "PERCENT",
	OpAmp:           "AMP",
	OpPipe:          "PIPE",
	OpCaret:         "CARET",
	OpTilde:         "TILDE",
	OpBang:          "BANG",
	OpAssign:        "ASSIGN",
	OpPlusAssign:    "PLUS_ASSIGN",
	OpMinusAssign:   "MINUS_ASSIGN",
	OpStarAssign:    "STAR_ASSIGN",
	OpSlashAssign:   "SLASH_ASSIGN",
	OpPercentAssign: "PERCENT_ASSIGN",
	OpAmpAssign:     "AMP_ASSIGN",
	OpPipeAssign:    "PIPE_ASSIGN",
	OpCaretAssign:   "CARET_ASSIGN",
	OpShlAssign:     "SHL_ASSIGN",
	OpShrAssign:     "SHR_ASSIGN",
	OpEq:            "EQ",
	OpNotEq:         "NOT_EQ",
	OpLess:          "LESS",
	OpGreater:       "GREATER",
	OpLessEq:        "LESS_EQ",
	OpGreaterEq:     "GREATER_EQ",
	OpShl:           "SHL",
	OpShr:           "SHR",
	OpAndAnd:        "AND_AND",
	OpOrOr:          "OR_OR",
	OpPlusPlus:      "PLUS_PLUS",
	OpMinusMinus:    "MINUS_MINUS",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindNames) && tokenKindNames[k] != "" {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// IsKeyword reports whether k is a reserved word.
func (k TokenKind) IsKeyword() bool { return k >= KwClass && k <= KwNamespace }

// IsLiteral reports whether k is any literal kind, string literals included.
func (k TokenKind) IsLiteral() bool { return k >= LitInt32 && k <= LitRawString }

// IsStringLiteral reports whether k carries interned text instead of a
// decoded literal payload.
func (k TokenKind) IsStringLiteral() bool { return k >= LitString && k <= LitRawString }

// IsLayout reports whether k is skipped during contextual matching
// (whitespace and comments survive tokenisation for byte-exact round-trips
// but carry no semantics).
func (k TokenKind) IsLayout() bool { return k == TokenWhitespace || k == TokenComment }

// LiteralKind tags the active variant of a LiteralValue.
type LiteralKind uint8

const (
	LitKindNone LiteralKind = iota
	LitKindInt32
	LitKindUint32
	LitKindInt64
	LitKindUint64
	LitKindFloat32
	LitKindFloat64
	LitKindFloat80
	LitKindChar
	LitKindWChar
	LitKindChar16
	LitKindChar32
	LitKindBool
)

// LiteralValue is the decoded payload of a numeric, character or boolean
// literal token. Kind selects the active field; the zero value means "no
// literal".
//
// Float80 values are stored in the Float field at float64 precision; the
// kind is preserved so later layers can widen storage when emitting code.
type LiteralValue struct {
	Kind  LiteralKind
	Int   int64
	Uint  uint64
	Float float64
	Rune  rune
	Bool  bool
}

// IsSet reports whether the value carries a decoded literal.
func (v LiteralValue) IsSet() bool { return v.Kind != LitKindNone }

// Token is one immutable lexical unit. Tokens are never mutated after
// tokenisation; every later layer refers to them by (StreamID, Index).
type Token struct {
	Kind     TokenKind
	Text     StrIdx // exact source spelling, set for every non-EOF token
	Literal  LiteralValue
	Line     uint32 // 1-based
	Column   uint32 // 1-based
	Offset   uint32 // byte offset in the source
	StreamID uint32
	Index    uint32 // position within the owning stream
}
