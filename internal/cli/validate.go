package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/GeorgieTragnar/cprime-sub000/internal/session"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Workers int // parallel compilation workers
}

// ValidateData is the JSON payload of a validate run.
type ValidateData struct {
	Units  []CompileData `json:"units"`
	Failed int           `json:"failed"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <source-file>...",
		Short: "Check source units without emitting output",
		Long: `Run the full pipeline over each unit and report diagnostics only.
Units compile in parallel, each in its own session. Exit code 0 means every
unit compiles cleanly, 1 means at least one has errors.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", runtime.NumCPU(), "parallel compilation workers")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := session.LoadConfig(opts.Config)
	if err != nil {
		_ = formatter.Error(ErrCodeConfigInvalid, err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading config", err)
	}

	units := make([]session.Unit, len(paths))
	for i, path := range paths {
		source, err := os.ReadFile(path)
		if err != nil {
			_ = formatter.Error(ErrCodeReadFailed, fmt.Sprintf("reading %s: %v", path, err), nil)
			return WrapExitError(ExitCommandError, "reading source", err)
		}
		units[i] = session.Unit{Name: path, Source: source}
	}
	formatter.VerboseLog("validating %d unit(s) with %d worker(s)", len(units), opts.Workers)

	results := session.CompileAll(cmd.Context(), cfg, units, opts.Workers)

	failed := 0
	data := ValidateData{Units: make([]CompileData, 0, len(results))}
	for _, res := range results {
		if res.Err != nil {
			_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("validation aborted: %v", res.Err), nil)
			return WrapExitError(ExitCommandError, "validation aborted", res.Err)
		}
		if res.Summary.Failed {
			failed++
		}
		data.Units = append(data.Units, CompileData{
			Session: res.Session.ID.String(),
			Summary: res.Summary,
			Report:  res.Session.Report(),
		})
	}
	data.Failed = failed

	if formatter.Format == "json" {
		if failed > 0 {
			_ = formatter.Error(ErrCodeCompileFailed,
				fmt.Sprintf("%d of %d unit(s) failed validation", failed, len(results)), data)
			return NewExitError(ExitFailure, fmt.Sprintf("%d unit(s) failed validation", failed))
		}
		return formatter.Success(data)
	}

	for _, res := range results {
		sum := res.Summary
		if sum.Failed {
			fmt.Fprint(formatter.Writer, res.Session.Render())
			fmt.Fprintf(formatter.Writer, "✗ %s: %d error(s), %d warning(s)\n",
				sum.File, sum.Errors, sum.Warnings)
			continue
		}
		if sum.Warnings > 0 {
			fmt.Fprint(formatter.Writer, res.Session.Render())
		}
		fmt.Fprintf(formatter.Writer, "✓ %s validates: %d warning(s)\n", sum.File, sum.Warnings)
	}
	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d unit(s) failed validation", failed))
	}
	return nil
}
