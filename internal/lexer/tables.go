package lexer

import "github.com/GeorgieTragnar/cprime-sub000/internal/ir"

// keywords maps source text to its keyword kind. true/false are handled
// separately because they produce boolean literal tokens, not keywords.
var keywords = map[string]ir.TokenKind{
	"class":     ir.KwClass,
	"struct":    ir.KwStruct,
	"union":     ir.KwUnion,
	"interface": ir.KwInterface,
	"plex":      ir.KwPlex,
	"if":        ir.KwIf,
	"else":      ir.KwElse,
	"switch":    ir.KwSwitch,
	"case":      ir.KwCase,
	"default":   ir.KwDefault,
	"while":     ir.KwWhile,
	"for":       ir.KwFor,
	"do":        ir.KwDo,
	"try":       ir.KwTry,
	"catch":     ir.KwCatch,
	"finally":   ir.KwFinally,
	"func":      ir.KwFunc,
	"return":    ir.KwReturn,
	"defer":     ir.KwDefer,
	"const":     ir.KwConst,
	"volatile":  ir.KwVolatile,
	"static":    ir.KwStatic,
	"int":       ir.KwInt,
	"char":      ir.KwChar,
	"bool":      ir.KwBool,
	"float":     ir.KwFloat,
	"double":    ir.KwDouble,
	"void":      ir.KwVoid,
	"new":       ir.KwNew,
	"delete":    ir.KwDelete,
	"break":     ir.KwBreak,
	"continue":  ir.KwContinue,
	"namespace": ir.KwNamespace,
}

// Operator tables tried longest-first. Within one length the tables are
// closed: a miss falls through to the next shorter length.
var threeCharOps = map[string]ir.TokenKind{
	"<<=": ir.OpShlAssign,
	">>=": ir.OpShrAssign,
	"...": ir.OpEllipsis,
}

var twoCharOps = map[string]ir.TokenKind{
	"::": ir.OpColonColon,
	"->": ir.OpArrow,
	"==": ir.OpEq,
	"!=": ir.OpNotEq,
	"<=": ir.OpLessEq,
	">=": ir.OpGreaterEq,
	"<<": ir.OpShl,
	">>": ir.OpShr,
	"&&": ir.OpAndAnd,
	"||": ir.OpOrOr,
	"++": ir.OpPlusPlus,
	"--": ir.OpMinusMinus,
	"+=": ir.OpPlusAssign,
	"-=": ir.OpMinusAssign,
	"*=": ir.OpStarAssign,
	"/=": ir.OpSlashAssign,
	"%=": ir.OpPercentAssign,
	"&=": ir.OpAmpAssign,
	"|=": ir.OpPipeAssign,
	"^=": ir.OpCaretAssign,
}

var oneCharOps = map[byte]ir.TokenKind{
	'{': ir.OpLBrace,
	'}': ir.OpRBrace,
	'(': ir.OpLParen,
	')': ir.OpRParen,
	'[': ir.OpLBracket,
	']': ir.OpRBracket,
	';': ir.OpSemicolon,
	',': ir.OpComma,
	'.': ir.OpDot,
	':': ir.OpColon,
	'?': ir.OpQuestion,
	'+': ir.OpPlus,
	'-': ir.OpMinus,
	'*': ir.OpStar,
	'/': ir.OpSlash,
	'%': ir.OpPercent,
	'&': ir.OpAmp,
	'|': ir.OpPipe,
	'^': ir.OpCaret,
	'~': ir.OpTilde,
	'!': ir.OpBang,
	'=': ir.OpAssign,
	'<': ir.OpLess,
	'>': ir.OpGreater,
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\v', '\f':
		return true
	}
	return false
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentPart(b byte) bool { return isIdentStart(b) || isDigit(b) }
