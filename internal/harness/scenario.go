// Package harness runs YAML conformance scenarios through the full pipeline
// and checks the outcome against declared expectations. Scenarios live in
// testdata and double as executable documentation of compiler behaviour.
package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance test scenario: a source unit, optional
// session config, and the expected compilation outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. Also used as the source
	// file name and the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the CPrime source unit to compile.
	Source string `yaml:"source"`

	// Config is an optional CUE session config, e.g. severity overrides.
	Config string `yaml:"config,omitempty"`

	// Expect declares the expected outcome. If nil, only assertions run.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate details of the report and the scope tree.
	// Supported types: report_contains, tree_contains, round_trip.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectClause specifies the expected compilation outcome. Nil fields are
// not checked.
type ExpectClause struct {
	// Failed is the expected overall verdict.
	Failed *bool `yaml:"failed,omitempty"`

	// Errors lists the expected error kinds in report order.
	Errors []string `yaml:"errors,omitempty"`

	// Warnings lists the expected warning kinds in report order.
	Warnings []string `yaml:"warnings,omitempty"`

	// Scopes is the expected scope arena size, root included.
	Scopes *int `yaml:"scopes,omitempty"`

	// Streams is the expected stream count, generated streams included.
	Streams *int `yaml:"streams,omitempty"`
}

// Assertion validates one detail of the result.
type Assertion struct {
	// Type selects the assertion:
	// - "report_contains": a diagnostic with Kind (and Line, if set) exists
	// - "tree_contains": the scope tree dump contains Text
	// - "round_trip": the token stream reproduces the source bytes
	Type string `yaml:"type"`

	// Kind is the diagnostic kind (report_contains).
	Kind string `yaml:"kind,omitempty"`

	// Line is the expected resolved line, 0 to skip (report_contains).
	Line uint32 `yaml:"line,omitempty"`

	// Text is the expected substring (tree_contains).
	Text string `yaml:"text,omitempty"`
}

// Assertion type constants.
const (
	AssertReportContains = "report_contains"
	AssertTreeContains   = "tree_contains"
	AssertRoundTrip      = "round_trip"
)

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if s.Source == "" {
		return nil, fmt.Errorf("scenario %s: source is required", path)
	}
	for _, a := range s.Assertions {
		switch a.Type {
		case AssertReportContains, AssertTreeContains, AssertRoundTrip:
		default:
			return nil, fmt.Errorf("scenario %s: unknown assertion type %q", path, a.Type)
		}
	}
	return &s, nil
}

// LoadScenarios reads every .yaml scenario under dir, sorted by file name so
// test order is stable.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
