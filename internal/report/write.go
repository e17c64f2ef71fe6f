package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
)

// Run is one persisted compilation outcome.
type Run struct {
	ID       uuid.UUID
	File     string
	Tokens   int
	Streams  int
	Scopes   int
	Errors   int
	Warnings int
	Failed   bool
}

// RecordRun writes a run and its resolved diagnostics in one transaction.
// Uses ON CONFLICT(id) DO NOTHING so replaying the same session id is a
// no-op rather than an error.
func (s *Sink) RecordRun(ctx context.Context, run Run, diags []diag.Diagnostic) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, file, tokens, streams, scopes, errors, warnings, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID.String(),
		run.File,
		run.Tokens,
		run.Streams,
		run.Scopes,
		run.Errors,
		run.Warnings,
		run.Failed,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Same session recorded before; keep the original rows.
		return tx.Commit()
	}

	for pos, d := range diags {
		if d.Severity == diag.SeveritySuppress {
			continue
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO diagnostics (run_id, pos, kind, severity, file, line, col, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID.String(),
			pos,
			string(d.Kind),
			d.Severity.String(),
			d.File,
			d.Line,
			d.Column,
			d.Extra,
		)
		if err != nil {
			return fmt.Errorf("record diagnostic: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: commit: %w", err)
	}
	return nil
}
