package harness

import (
	"context"
	"fmt"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/session"
)

// Result captures one scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool

	// Failures lists every expectation or assertion that did not hold.
	Failures []string

	// Summary is the pipeline outcome.
	Summary session.Summary

	// Report holds the resolved diagnostics, grouped by severity.
	Report diag.Report

	// Tree is the scope tree dump after lowering.
	Tree string
}

func (r *Result) fail(format string, args ...any) {
	r.Pass = false
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Run compiles the scenario's source in a fresh session and evaluates its
// expectations and assertions.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg := session.DefaultConfig()
	if scenario.Config != "" {
		var err error
		cfg, err = session.ParseConfig([]byte(scenario.Config))
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}

	sess, err := session.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	sum, err := sess.Compile(ctx, scenario.Name+".cp", []byte(scenario.Source))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	res := &Result{
		Pass:    true,
		Summary: sum,
		Report:  sess.Report(),
		Tree:    sess.StructureDump(),
	}
	checkExpect(res, scenario)
	for _, a := range scenario.Assertions {
		checkAssertion(res, scenario, a, sess)
	}
	return res, nil
}
