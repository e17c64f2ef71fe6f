package ir

import "fmt"

// ContextualKind is the resolved semantic interpretation attached to one or
// more raw tokens by the contextualiser. The value space is split in two:
// kinds below the high bit are members of the closed enum; values with the
// high bit set encode a scope index (see EncodeScopeIndex).
type ContextualKind uint32

const (
	CtxInvalid ContextualKind = iota // unresolved region, tolerated only with a diagnostic

	// Error sentinels. None may survive past the post-contextualisation
	// validator.
	CtxTodo
	CtxError
	CtxUnknown

	CtxTypeReference
	CtxTypeModifier
	CtxVariableDeclaration
	CtxFunctionDeclaration
	CtxFunctionCall
	CtxConstructor
	CtxDestructor
	CtxExpression
	CtxControlFlow
	CtxOperator
	CtxPunctuation
	CtxNamespace
	CtxDataClass
	CtxEntryPoint
	CtxDeferRAII
	CtxRuntimeAccessRight
	CtxScopeReference
	CtxExecInvocation

	contextualKindCount // keep last
)

// scopeIndexBit marks a ContextualKind that packs a scope index. Scope
// indices are capped at 2^31-1 at insertion time so this encoding is total.
const scopeIndexBit ContextualKind = 1 << 31

var contextualKindNames = [...]string{
	CtxInvalid:             "CONTEXTUAL_INVALID",
	CtxTodo:                "CONTEXTUAL_TODO",
	CtxError:               "CONTEXTUAL_ERROR",
	CtxUnknown:             "CONTEXTUAL_UNKNOWN",
	CtxTypeReference:       "TYPE_REFERENCE",
	CtxTypeModifier:        "TYPE_MODIFIER",
	CtxVariableDeclaration: "VARIABLE_DECLARATION",
	CtxFunctionDeclaration: "FUNCTION_DECLARATION",
	CtxFunctionCall:        "FUNCTION_CALL",
	CtxConstructor:         "CONSTRUCTOR",
	CtxDestructor:          "DESTRUCTOR",
	CtxExpression:          "EXPRESSION",
	CtxControlFlow:         "CONTROL_FLOW",
	CtxOperator:            "OPERATOR",
	CtxPunctuation:         "PUNCTUATION",
	CtxNamespace:           "NAMESPACE",
	CtxDataClass:           "DATA_CLASS",
	CtxEntryPoint:          "ENTRY_POINT",
	CtxDeferRAII:           "DEFER_RAII",
	CtxRuntimeAccessRight:  "RUNTIME_ACCESS_RIGHT",
	CtxScopeReference:      "SCOPE_REFERENCE",
	CtxExecInvocation:      "EXEC_INVOCATION",
}

func (k ContextualKind) String() string {
	if k.IsScopeIndex() {
		return fmt.Sprintf("SCOPE_INDEX(%d)", uint32(k.ScopeIndex()))
	}
	if int(k) < len(contextualKindNames) && contextualKindNames[k] != "" {
		return contextualKindNames[k]
	}
	return fmt.Sprintf("ContextualKind(%d)", uint32(k))
}

// IsSentinel reports whether k is one of the three error sentinels that the
// post-contextualisation validator must not find in the final IR.
func (k ContextualKind) IsSentinel() bool {
	return k == CtxTodo || k == CtxError || k == CtxUnknown
}

// EncodeScopeIndex packs a scope index into a ContextualKind.
// Fails for indices at or above 2^31, which the scope arena already refuses
// to allocate.
func EncodeScopeIndex(idx ScopeIndex) (ContextualKind, error) {
	if uint32(idx)&uint32(scopeIndexBit) != 0 {
		return CtxInvalid, fmt.Errorf("scope index %d exceeds encodable range", uint32(idx))
	}
	return scopeIndexBit | ContextualKind(idx), nil
}

// IsScopeIndex reports whether k encodes a scope index.
func (k ContextualKind) IsScopeIndex() bool { return k&scopeIndexBit != 0 }

// ScopeIndex unpacks the encoded scope index. Only meaningful when
// IsScopeIndex reports true.
func (k ContextualKind) ScopeIndex() ScopeIndex {
	return ScopeIndex(k &^ scopeIndexBit)
}

// ContextualToken annotates one or more raw tokens with a resolved meaning.
// Parents are indices into the owning stream's token arena.
type ContextualToken struct {
	Kind    ContextualKind
	Parents []uint32
}
