package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeorgieTragnar/cprime-sub000/internal/report"
	"github.com/GeorgieTragnar/cprime-sub000/internal/testutil"
)

func TestCompileCleanUnit(t *testing.T) {
	path := writeUnit(t, cleanUnit)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "✓ compiled")
	assert.Contains(t, output, "scope(s)")
}

func TestCompileCleanUnitJSON(t *testing.T) {
	path := writeUnit(t, cleanUnit)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Data)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	_, err = uuid.Parse(data["session"].(string))
	assert.NoError(t, err, "session id is a UUID")
}

func TestCompileBrokenUnitExitsFailure(t *testing.T) {
	path := writeUnit(t, brokenUnit)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✗ compilation failed")
	assert.Contains(t, output, "RAII_MISSING_DESTRUCTOR")
}

func TestCompileMissingFileExitsCommandError(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"/nonexistent/main.cp"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeReadFailed)
}

func TestCompileRecordsRun(t *testing.T) {
	path := writeUnit(t, brokenUnit)
	dbPath := filepath.Join(t.TempDir(), "report.db")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--report-db", dbPath})

	err := cmd.Execute()
	require.Error(t, err, "broken unit still fails the command")
	assert.Equal(t, ExitFailure, GetExitCode(err))

	sink, err := report.Open(dbPath)
	require.NoError(t, err)
	defer sink.Close()

	runs, err := sink.ListRuns(cmd.Context())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, path, runs[0].File)
	assert.True(t, runs[0].Failed)
	assert.Equal(t, 1, runs[0].Errors)
}

func TestCompileWritesReportFile(t *testing.T) {
	path := writeUnit(t, brokenUnit)
	outPath := filepath.Join(t.TempDir(), "report.txt")

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path, "--output", outPath})

	err := cmd.Execute()
	require.Error(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "RAII_MISSING_DESTRUCTOR")
}

func TestCompileWithConfigOverride(t *testing.T) {
	path := writeUnit(t, testutil.WarningUnit)
	cfgPath := filepath.Join(t.TempDir(), "cprime.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`severity: STYLE: "suppress"`), 0o644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Config: cfgPath}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "0 warning(s)")
}

func TestCompileInvalidConfig(t *testing.T) {
	path := writeUnit(t, cleanUnit)
	cfgPath := filepath.Join(t.TempDir(), "cprime.cue")
	require.NoError(t, os.WriteFile(cfgPath, []byte("execTimeoutMs: -1"), 0o644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", Config: cfgPath}
	cmd := NewCompileCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), ErrCodeConfigInvalid)
}
