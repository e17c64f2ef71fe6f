package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios.
func TestScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, scenario := range scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			res, err := Run(context.Background(), scenario)
			require.NoError(t, err)
			assert.True(t, res.Pass, "failures:\n%v\ntree:\n%s", res.Failures, res.Tree)
		})
	}
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	failed := false
	scenario := &Scenario{
		Name:   "mismatch",
		Source: "class C {\n    C() = default;\n};\n",
		Expect: &ExpectClause{Failed: &failed},
	}

	res, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "expected failed=false")
}

func TestRun_KindMismatchNamesTheKind(t *testing.T) {
	scenario := &Scenario{
		Name:   "wrong-kind",
		Source: "class C {\n    C() = default;\n};\n",
		Expect: &ExpectClause{Errors: []string{"LEX_ERROR"}},
	}

	res, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "LEX_ERROR")
	assert.Contains(t, res.Failures[0], "RAII_MISSING_DESTRUCTOR")
}

func TestRun_TreeAssertionFails(t *testing.T) {
	scenario := &Scenario{
		Name:   "no-such-scope",
		Source: "func f {\n}\n",
		Assertions: []Assertion{
			{Type: AssertTreeContains, Text: "NamedClass"},
		},
	}

	res, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, res.Pass)
}

func TestRun_ReportContainsLinePinned(t *testing.T) {
	scenario := &Scenario{
		Name:   "wrong-line",
		Source: "class C {\n    C() = default;\n};\n",
		Assertions: []Assertion{
			{Type: AssertReportContains, Kind: "RAII_MISSING_DESTRUCTOR", Line: 99},
		},
	}

	res, err := Run(context.Background(), scenario)
	require.NoError(t, err)
	assert.False(t, res.Pass)
	require.Len(t, res.Failures, 1)
	assert.Contains(t, res.Failures[0], "line 99")
}

func TestRun_InvalidConfigErrors(t *testing.T) {
	scenario := &Scenario{
		Name:   "bad-config",
		Source: "func f {\n}\n",
		Config: "execTimeoutMs: -1",
	}

	_, err := Run(context.Background(), scenario)
	assert.Error(t, err)
}
