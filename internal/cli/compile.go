package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
	"github.com/GeorgieTragnar/cprime-sub000/internal/report"
	"github.com/GeorgieTragnar/cprime-sub000/internal/session"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	ReportDB string // optional SQLite sink for run outcomes
	Output   string // optional file for the rendered report
}

// CompileData is the JSON payload of a successful compile.
type CompileData struct {
	Session string          `json:"session"`
	Summary session.Summary `json:"summary"`
	Report  diag.Report     `json:"report"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <source-file>",
		Short: "Compile a CPrime source unit",
		Long: `Run the full pipeline over one source unit: tokenisation, scope
construction with meta-execution, contextualisation and RAII/defer lowering.
All diagnostics are collected in a single run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ReportDB, "report-db", "", "record the run in a SQLite database")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the rendered report to a file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	sess, source, err := openUnit(formatter, opts.RootOptions, path)
	if err != nil {
		return err
	}
	formatter.VerboseLog("session %s: compiling %s (%d bytes)", sess.ID, path, len(source))

	sum, err := sess.Compile(cmd.Context(), path, source)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("compilation aborted: %v", err), nil)
		return WrapExitError(ExitCommandError, "compilation aborted", err)
	}
	rep := sess.Report()

	if opts.ReportDB != "" {
		if err := recordRun(cmd, opts.ReportDB, sess, sum); err != nil {
			_ = formatter.Error(ErrCodeReportDB, err.Error(), nil)
			return WrapExitError(ExitCommandError, "recording run", err)
		}
		formatter.VerboseLog("recorded run %s in %s", sess.ID, opts.ReportDB)
	}
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(sess.Render()), 0644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing report: %v", err), nil)
			return WrapExitError(ExitCommandError, "writing report", err)
		}
	}

	if sum.Failed {
		return outputCompileFailure(formatter, sess, sum)
	}
	return outputCompileSuccess(formatter, sess, sum, rep)
}

// recordRun persists one finished session to the report database.
func recordRun(cmd *cobra.Command, path string, sess *session.Session, sum session.Summary) error {
	sink, err := report.Open(path)
	if err != nil {
		return err
	}
	defer sink.Close()

	run := report.Run{
		ID:       sess.ID,
		File:     sum.File,
		Tokens:   sum.Tokens,
		Streams:  sum.Streams,
		Scopes:   sum.Scopes,
		Errors:   sum.Errors,
		Warnings: sum.Warnings,
		Failed:   sum.Failed,
	}
	return sink.RecordRun(cmd.Context(), run, sess.Handler().Diagnostics())
}

func outputCompileSuccess(formatter *OutputFormatter, sess *session.Session, sum session.Summary, rep diag.Report) error {
	if formatter.Format == "json" {
		return formatter.Success(CompileData{
			Session: sess.ID.String(),
			Summary: sum,
			Report:  rep,
		})
	}

	if len(rep.Warnings) > 0 {
		fmt.Fprint(formatter.Writer, sess.Render())
	}
	fmt.Fprintf(formatter.Writer, "✓ compiled %s: %d token(s), %d scope(s), %d stream(s), %d warning(s)\n",
		sum.File, sum.Tokens, sum.Scopes, sum.Streams, sum.Warnings)
	return nil
}

func outputCompileFailure(formatter *OutputFormatter, sess *session.Session, sum session.Summary) error {
	if formatter.Format == "json" {
		_ = formatter.Error(ErrCodeCompileFailed,
			fmt.Sprintf("compilation failed with %d error(s)", sum.Errors), sess.Report())
		return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", sum.Errors))
	}

	fmt.Fprint(formatter.Writer, sess.Render())
	fmt.Fprintf(formatter.Writer, "✗ compilation failed: %d error(s), %d warning(s)\n",
		sum.Errors, sum.Warnings)
	return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", sum.Errors))
}
