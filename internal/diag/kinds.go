package diag

import "fmt"

// ErrorKind categorizes diagnostics by the layer and rule that produced them.
type ErrorKind string

const (
	// Layer 1
	KindLexError ErrorKind = "LEX_ERROR"

	// Layer 2
	KindUnbalancedBraces ErrorKind = "UNBALANCED_BRACES"
	KindTrailingTokens   ErrorKind = "TRAILING_TOKENS"

	// Layer 3
	KindUnsupportedTokenPattern   ErrorKind = "UNSUPPORTED_TOKEN_PATTERN"
	KindAmbiguousOperatorContext  ErrorKind = "AMBIGUOUS_OPERATOR_CONTEXT"
	KindContextualTodo            ErrorKind = "CONTEXTUAL_TODO"

	// Layer 4
	KindRAIIMissingConstructor  ErrorKind = "RAII_MISSING_CONSTRUCTOR"
	KindRAIIMissingDestructor   ErrorKind = "RAII_MISSING_DESTRUCTOR"
	KindDeferHeapUnsupported    ErrorKind = "DEFER_HEAP_UNSUPPORTED"
	KindDeferComplexConditional ErrorKind = "DEFER_COMPLEX_CONDITIONAL"

	// Meta-execution (layers 2 and 3)
	KindExecError   ErrorKind = "EXEC_ERROR"
	KindExecTimeout ErrorKind = "EXEC_TIMEOUT"

	// Style findings, warning by default
	KindStyle ErrorKind = "STYLE"
)

// Severity is the policy-resolved weight of a diagnostic.
type Severity uint8

const (
	SeveritySuppress Severity = iota
	SeverityWarning
	SeverityError
)

var severityNames = [...]string{
	SeveritySuppress: "suppress",
	SeverityWarning:  "warning",
	SeverityError:    "error",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity converts a policy-file string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "suppress":
		return SeveritySuppress, nil
	case "warning":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	default:
		return SeverityError, fmt.Errorf("invalid severity %q: must be suppress, warning, or error", s)
	}
}

// DefaultPolicy maps every kind to its default severity: hard language
// violations are errors, style findings are warnings.
func DefaultPolicy() map[ErrorKind]Severity {
	return map[ErrorKind]Severity{
		KindLexError:                 SeverityError,
		KindUnbalancedBraces:         SeverityError,
		KindTrailingTokens:           SeverityError,
		KindUnsupportedTokenPattern:  SeverityError,
		KindAmbiguousOperatorContext: SeverityError,
		KindContextualTodo:           SeverityError,
		KindRAIIMissingConstructor:   SeverityError,
		KindRAIIMissingDestructor:    SeverityError,
		KindDeferHeapUnsupported:     SeverityError,
		KindDeferComplexConditional:  SeverityError,
		KindExecError:                SeverityError,
		KindExecTimeout:              SeverityError,
		KindStyle:                    SeverityWarning,
	}
}

// kindInfo holds the long description and optional suggestion rendered in
// the final report.
type kindInfo struct {
	Description string
	Suggestion  string
}

var kindDescriptions = map[ErrorKind]kindInfo{
	KindLexError: {
		Description: "the tokeniser encountered a byte sequence that matches no lexical rule",
	},
	KindUnbalancedBraces: {
		Description: "the scope stack did not return to the root scope; an opening or closing brace is missing",
		Suggestion:  "check that every '{' has a matching '}'",
	},
	KindTrailingTokens: {
		Description: "tokens remain after the last structural boundary; a terminating ';' or '}' is missing",
		Suggestion:  "terminate the final statement with ';'",
	},
	KindUnsupportedTokenPattern: {
		Description: "the instruction matches no registered contextualisation pattern",
	},
	KindAmbiguousOperatorContext: {
		Description: "an operator token cannot be resolved to a single semantic interpretation in this position",
	},
	KindContextualTodo: {
		Description: "an unresolved contextual sentinel survived contextualisation",
	},
	KindRAIIMissingConstructor: {
		Description: "the class declares a destructor but no constructor",
		Suggestion:  "declare at least one constructor, or remove the destructor",
	},
	KindRAIIMissingDestructor: {
		Description: "the class declares a constructor but no destructor",
		Suggestion:  "declare at least one destructor, or remove the constructor",
	},
	KindDeferHeapUnsupported: {
		Description: "defer targets a heap-allocated object; only stack-declared locals can be deferred",
	},
	KindDeferComplexConditional: {
		Description: "defer inside a conditional is only supported when every branch provably returns",
	},
	KindExecError: {
		Description: "the meta-execution interpreter reported a failure",
	},
	KindExecTimeout: {
		Description: "the meta-execution interpreter exceeded its per-call time budget",
	},
	KindStyle: {
		Description: "style finding",
	},
}

// Describe returns the long description for a kind, falling back to the
// kind's code for unknown kinds.
func Describe(kind ErrorKind) string {
	if info, ok := kindDescriptions[kind]; ok {
		return info.Description
	}
	return string(kind)
}

// Suggest returns the remediation hint for a kind, or "".
func Suggest(kind ErrorKind) string {
	return kindDescriptions[kind].Suggestion
}
