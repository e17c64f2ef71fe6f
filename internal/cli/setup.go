package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GeorgieTragnar/cprime-sub000/internal/session"
)

// newFormatter builds the output formatter for one command invocation.
// Verbose logs go to stderr so they never corrupt JSON output.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openUnit loads the session config, creates a fresh session and reads the
// source file. Failures are reported through the formatter and returned as
// command-level exit errors.
func openUnit(formatter *OutputFormatter, opts *RootOptions, path string) (*session.Session, []byte, error) {
	cfg, err := session.LoadConfig(opts.Config)
	if err != nil {
		_ = formatter.Error(ErrCodeConfigInvalid, err.Error(), nil)
		return nil, nil, WrapExitError(ExitCommandError, "loading config", err)
	}

	sess, err := session.New(cfg)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return nil, nil, WrapExitError(ExitCommandError, "creating session", err)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		_ = formatter.Error(ErrCodeReadFailed, fmt.Sprintf("reading %s: %v", path, err), nil)
		return nil, nil, WrapExitError(ExitCommandError, "reading source", err)
	}
	return sess, source, nil
}
