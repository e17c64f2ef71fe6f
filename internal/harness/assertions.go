package harness

import (
	"strings"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/ir"
	"github.com/GeorgieTragnar/cprime-sub000/internal/session"
)

// checkExpect compares the outcome against the scenario's expect clause.
func checkExpect(res *Result, scenario *Scenario) {
	exp := scenario.Expect
	if exp == nil {
		return
	}

	if exp.Failed != nil && res.Summary.Failed != *exp.Failed {
		res.fail("expected failed=%v, got failed=%v", *exp.Failed, res.Summary.Failed)
	}
	if exp.Errors != nil {
		checkKinds(res, "errors", exp.Errors, res.Report.Errors)
	}
	if exp.Warnings != nil {
		checkKinds(res, "warnings", exp.Warnings, res.Report.Warnings)
	}
	if exp.Scopes != nil && res.Summary.Scopes != *exp.Scopes {
		res.fail("expected %d scope(s), got %d", *exp.Scopes, res.Summary.Scopes)
	}
	if exp.Streams != nil && res.Summary.Streams != *exp.Streams {
		res.fail("expected %d stream(s), got %d", *exp.Streams, res.Summary.Streams)
	}
}

// checkKinds verifies the diagnostic kinds in report order.
func checkKinds(res *Result, group string, want []string, got []diag.Diagnostic) {
	if len(got) != len(want) {
		res.fail("expected %d %s, got %d: %v", len(want), group, len(got), kindsOf(got))
		return
	}
	for i, kind := range want {
		if string(got[i].Kind) != kind {
			res.fail("%s[%d]: expected kind %s, got %s", group, i, kind, got[i].Kind)
		}
	}
}

func kindsOf(diags []diag.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = string(d.Kind)
	}
	return out
}

// checkAssertion evaluates one assertion against the finished session.
func checkAssertion(res *Result, scenario *Scenario, a Assertion, sess *session.Session) {
	switch a.Type {
	case AssertReportContains:
		checkReportContains(res, a)
	case AssertTreeContains:
		if !strings.Contains(res.Tree, a.Text) {
			res.fail("tree does not contain %q:\n%s", a.Text, res.Tree)
		}
	case AssertRoundTrip:
		checkRoundTrip(res, scenario, sess)
	}
}

// checkReportContains looks for a diagnostic of the given kind, optionally
// pinned to a resolved line.
func checkReportContains(res *Result, a Assertion) {
	all := append(append([]diag.Diagnostic{}, res.Report.Errors...), res.Report.Warnings...)
	for _, d := range all {
		if string(d.Kind) != a.Kind {
			continue
		}
		if a.Line != 0 && d.Line != a.Line {
			continue
		}
		return
	}
	if a.Line != 0 {
		res.fail("report has no %s diagnostic at line %d", a.Kind, a.Line)
		return
	}
	res.fail("report has no %s diagnostic", a.Kind)
}

// checkRoundTrip verifies that concatenating the primary stream's token
// texts reproduces the source bytes.
func checkRoundTrip(res *Result, scenario *Scenario, sess *session.Session) {
	indices := make([]uint32, sess.Tokens().StreamLen(sess.PrimaryStream()))
	for i := range indices {
		indices[i] = uint32(i)
	}
	text := ir.TokensText(sess.Strings(), sess.Tokens(), sess.PrimaryStream(), indices)
	if text != scenario.Source {
		res.fail("token stream does not reproduce the source:\n%q\nvs\n%q", text, scenario.Source)
	}
}
