package diag

import (
	"fmt"
	"strings"
)

// Report is the user-visible outcome of a compilation session.
type Report struct {
	Errors   []Diagnostic `json:"errors"`
	Warnings []Diagnostic `json:"warnings"`
	Failed   bool         `json:"failed"`
}

// Report groups resolved diagnostics by severity. Suppressed diagnostics are
// dropped. Call after ResolveSourceLocations.
func (h *Handler) Report() Report {
	var r Report
	for _, d := range h.Diagnostics() {
		switch d.Severity {
		case SeverityError:
			r.Errors = append(r.Errors, d)
		case SeverityWarning:
			r.Warnings = append(r.Warnings, d)
		}
	}
	r.Failed = len(r.Errors) > 0
	return r
}

// Render produces the grouped textual report: for each diagnostic the
// source location, a snippet with two lines of context, the kind with its
// long description, and any suggestion.
func (h *Handler) Render() string {
	r := h.Report()
	var b strings.Builder

	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "%d error(s):\n\n", len(r.Errors))
		for _, d := range r.Errors {
			h.renderOne(&b, d)
		}
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "%d warning(s):\n\n", len(r.Warnings))
		for _, d := range r.Warnings {
			h.renderOne(&b, d)
		}
	}
	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		b.WriteString("no diagnostics\n")
	}
	return b.String()
}

func (h *Handler) renderOne(b *strings.Builder, d Diagnostic) {
	file := d.File
	if file == "" {
		file = "<unknown>"
	}
	fmt.Fprintf(b, "%s:%d:%d: %s: [%s] %s\n", file, d.Line, d.Column, d.Severity, d.Kind, Describe(d.Kind))
	if d.Extra != "" {
		fmt.Fprintf(b, "  %s\n", d.Extra)
	}
	for _, line := range h.snippet(d) {
		fmt.Fprintf(b, "  | %s\n", line)
	}
	if s := Suggest(d.Kind); s != "" {
		fmt.Fprintf(b, "  hint: %s\n", s)
	}
	b.WriteString("\n")
}

// snippet returns up to two lines of source context around the diagnostic's
// resolved line.
func (h *Handler) snippet(d Diagnostic) []string {
	h.mu.Lock()
	src := h.streams[d.StreamID].source
	h.mu.Unlock()

	if src == "" || d.Line == 0 {
		return nil
	}
	lines := strings.Split(src, "\n")
	at := int(d.Line) - 1
	if at < 0 || at >= len(lines) {
		return nil
	}
	start := at - 1
	if start < 0 {
		start = 0
	}
	end := at + 1
	if end > len(lines)-1 {
		end = len(lines) - 1
	}
	out := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, strings.TrimRight(lines[i], "\r"))
	}
	return out
}
