package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GeorgieTragnar/cprime-sub000/internal/session"
)

// TokenData is the JSON payload of the tokenise command.
type TokenData struct {
	File   string      `json:"file"`
	Count  int         `json:"count"`
	Tokens []TokenItem `json:"tokens"`
}

// TokenItem is one token in JSON output.
type TokenItem struct {
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	Line   uint32 `json:"line"`
	Column uint32 `json:"column"`
}

// NewTokeniseCommand creates the tokenise command.
func NewTokeniseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokenise <source-file>",
		Short: "Tokenise a source unit and dump the token stream",
		Long: `Run only the tokeniser. The dump preserves every token including
whitespace and comments, so concatenating the texts reproduces the source.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTokenise(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runTokenise(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	sess, source, err := openUnit(formatter, opts, path)
	if err != nil {
		return err
	}

	res := sess.Tokenise(path, source)
	formatter.VerboseLog("session %s: %d token(s) from %s", sess.ID, res.Count, path)

	if formatter.Format == "json" {
		if err := formatter.Success(tokenData(sess, path)); err != nil {
			return err
		}
	} else {
		fmt.Fprint(formatter.Writer, sess.TokenDump())
	}

	if !res.OK {
		fmt.Fprint(formatter.GetErrWriter(), sess.Render())
		return NewExitError(ExitFailure, "tokenisation produced errors")
	}
	return nil
}

func tokenData(sess *session.Session, path string) TokenData {
	toks := sess.Tokens().StreamTokens(sess.PrimaryStream())
	data := TokenData{File: path, Count: len(toks)}
	for _, tok := range toks {
		data.Tokens = append(data.Tokens, TokenItem{
			Kind:   tok.Kind.String(),
			Text:   sess.Strings().Get(tok.Text),
			Line:   tok.Line,
			Column: tok.Column,
		})
	}
	return data
}
