// Package testutil provides shared source fixtures for tests that feed the
// pipeline from files. The fixtures are small but exercise the layers that
// matter: scope construction, RAII pairing and defer lowering.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// CleanUnit compiles without diagnostics: a paired class and a function with
// a deferred destruction.
const CleanUnit = `class C {
    C() {
    }
    ~C() {
    }
};
func f {
    Res a;
    defer a;
    return;
}
`

// BrokenUnit has a constructor without a destructor.
const BrokenUnit = `class C {
    C() = default;
};
`

// WarningUnit has an unreachable statement after return.
const WarningUnit = `func f {
    return;
    int x;
}
`

// LexErrorUnit contains a byte no lexical rule accepts.
const LexErrorUnit = "func f {\n    @\n}\n"

// WriteUnit drops source into a temp file and returns its path. The file is
// cleaned up with the test.
func WriteUnit(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.cp")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}
