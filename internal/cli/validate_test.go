package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GeorgieTragnar/cprime-sub000/internal/testutil"
)

func TestValidateCleanUnit(t *testing.T) {
	path := writeUnit(t, cleanUnit)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "validates")
}

func TestValidateBrokenUnit(t *testing.T) {
	path := writeUnit(t, brokenUnit)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "RAII_MISSING_DESTRUCTOR")
}

func TestValidateMultipleUnits(t *testing.T) {
	clean := writeUnit(t, cleanUnit)
	broken := writeUnit(t, brokenUnit)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{clean, broken, "--workers", "2"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	output := buf.String()
	assert.Contains(t, output, "✓ "+clean)
	assert.Contains(t, output, "✗ "+broken)
	assert.Contains(t, output, "RAII_MISSING_DESTRUCTOR")
}

func TestValidateMissingFileExitsCommandError(t *testing.T) {
	clean := writeUnit(t, cleanUnit)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{clean, "does-not-exist.cp"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, buf.String(), "E002")
}

func TestValidateWarningsStillPass(t *testing.T) {
	path := writeUnit(t, testutil.WarningUnit)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err, "warnings alone do not fail validation")

	output := buf.String()
	assert.Contains(t, output, "STYLE")
	assert.Contains(t, output, "1 warning(s)")
}

func TestValidateJSONReportsWarnings(t *testing.T) {
	path := writeUnit(t, testutil.WarningUnit)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var data ValidateData
	require.NoError(t, json.Unmarshal(raw, &data))

	assert.Equal(t, 0, data.Failed)
	require.Len(t, data.Units, 1)
	assert.False(t, data.Units[0].Report.Failed)
	assert.Len(t, data.Units[0].Report.Warnings, 1)
	assert.Equal(t, 1, data.Units[0].Summary.Warnings)
}

func TestValidateJSONBrokenUnit(t *testing.T) {
	path := writeUnit(t, brokenUnit)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "json"}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeCompileFailed, resp.Error.Code)
}
