package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GeorgieTragnar/cprime-sub000/internal/session"
)

// StructureData is the JSON payload of the structure command.
type StructureData struct {
	File    string `json:"file"`
	Scopes  int    `json:"scopes"`
	Streams int    `json:"streams"`
	Tree    string `json:"tree"`
}

// NewStructureCommand creates the structure command.
func NewStructureCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structure <source-file>",
		Short: "Build and dump the scope tree of a source unit",
		Long: `Run tokenisation and scope construction, including meta-execution
expansion, then dump the resulting scope tree. Later layers do not run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStructure(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runStructure(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	sess, source, err := openUnit(formatter, opts, path)
	if err != nil {
		return err
	}

	sess.Tokenise(path, source)
	res, err := sess.BuildStructure(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("scope construction aborted: %v", err), nil)
		return WrapExitError(ExitCommandError, "scope construction aborted", err)
	}
	formatter.VerboseLog("session %s: %d scope(s), %d stream(s)",
		sess.ID, sess.Scopes().Len(), sess.Tokens().StreamCount())

	if formatter.Format == "json" {
		if err := formatter.Success(structureData(sess, path)); err != nil {
			return err
		}
	} else {
		fmt.Fprint(formatter.Writer, sess.StructureDump())
	}

	if !res.OK {
		fmt.Fprint(formatter.GetErrWriter(), sess.Render())
		return NewExitError(ExitFailure, "scope construction produced errors")
	}
	return nil
}

func structureData(sess *session.Session, path string) StructureData {
	return StructureData{
		File:    path,
		Scopes:  sess.Scopes().Len(),
		Streams: sess.Tokens().StreamCount(),
		Tree:    sess.StructureDump(),
	}
}
