package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/GeorgieTragnar/cprime-sub000/internal/diag"
)

// ErrRunNotFound is returned when the requested run id is absent.
var ErrRunNotFound = errors.New("run not found")

// StoredDiagnostic is one persisted diagnostic row.
type StoredDiagnostic struct {
	Kind     diag.ErrorKind
	Severity string
	File     string
	Line     uint32
	Column   uint32
	Message  string
}

// GetRun reads one run by session id.
func (s *Sink) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, file, tokens, streams, scopes, errors, warnings, failed
		FROM runs WHERE id = ?
	`, id.String())

	var run Run
	var rawID string
	err := row.Scan(&rawID, &run.File, &run.Tokens, &run.Streams, &run.Scopes,
		&run.Errors, &run.Warnings, &run.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	run.ID, err = uuid.Parse(rawID)
	if err != nil {
		return Run{}, fmt.Errorf("get run: parse id: %w", err)
	}
	return run, nil
}

// RunDiagnostics reads a run's diagnostics in report order.
func (s *Sink) RunDiagnostics(ctx context.Context, id uuid.UUID) ([]StoredDiagnostic, error) {
	rows, err := s.queryContext(ctx, `
		SELECT kind, severity, file, line, col, message
		FROM diagnostics WHERE run_id = ? ORDER BY pos
	`, id.String())
	if err != nil {
		return nil, fmt.Errorf("run diagnostics: %w", err)
	}
	defer rows.Close()

	var out []StoredDiagnostic
	for rows.Next() {
		var d StoredDiagnostic
		var kind string
		if err := rows.Scan(&kind, &d.Severity, &d.File, &d.Line, &d.Column, &d.Message); err != nil {
			return nil, fmt.Errorf("run diagnostics: scan: %w", err)
		}
		d.Kind = diag.ErrorKind(kind)
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListRuns returns all runs, newest first.
func (s *Sink) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.queryContext(ctx, `
		SELECT id, file, tokens, streams, scopes, errors, warnings, failed
		FROM runs ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var run Run
		var rawID string
		if err := rows.Scan(&rawID, &run.File, &run.Tokens, &run.Streams, &run.Scopes,
			&run.Errors, &run.Warnings, &run.Failed); err != nil {
			return nil, fmt.Errorf("list runs: scan: %w", err)
		}
		run.ID, err = uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("list runs: parse id: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
