package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("{}"))
	require.NoError(t, err)

	assert.Zero(t, cfg.ExecTimeout)
	assert.Equal(t, diag.SeverityError, cfg.Severity[diag.KindLexError])
	assert.Equal(t, diag.SeverityWarning, cfg.Severity[diag.KindStyle])
}

func TestParseConfig_Overrides(t *testing.T) {
	src := `
execTimeoutMs: 250
severity: {
	DEFER_HEAP_UNSUPPORTED: "warning"
	STYLE:                  "suppress"
}
`
	cfg, err := ParseConfig([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.ExecTimeout)
	assert.Equal(t, diag.SeverityWarning, cfg.Severity[diag.KindDeferHeapUnsupported])
	assert.Equal(t, diag.SeveritySuppress, cfg.Severity[diag.KindStyle])
	assert.Equal(t, diag.SeverityError, cfg.Severity[diag.KindLexError],
		"untouched kinds keep their defaults")
}

func TestParseConfig_RejectsNegativeTimeout(t *testing.T) {
	_, err := ParseConfig([]byte("execTimeoutMs: -5"))
	assert.Error(t, err)
}

func TestParseConfig_RejectsUnknownSeverity(t *testing.T) {
	_, err := ParseConfig([]byte(`severity: STYLE: "fatal"`))
	assert.Error(t, err)
}

func TestLoadConfig_EmptyPathIsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, diag.DefaultPolicy(), cfg.Severity)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.cue"))
	assert.Error(t, err)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cprime.cue")
	require.NoError(t, os.WriteFile(path, []byte("execTimeoutMs: 100\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.ExecTimeout)
}
