// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mdhender/forester/model"
)

// BeginRun inserts a Run and returns its assigned ID. The run's ID is set too.
func (s *SQLiteStore) BeginRun(ctx context.Context, run *model.Run) (int64, error) {
	const query = `
		INSERT INTO runs (root, grammar, started_at)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		run.Root,
		run.Grammar,
		formatTime(run.StartedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	run.ID = id
	return id, nil
}

// RecordFile inserts the result for one file of a run.
func (s *SQLiteStore) RecordFile(ctx context.Context, fr *model.FileResult) error {
	const query = `
		INSERT INTO file_results (run_id, path, digest, category, bytes, tokens, elapsed_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		fr.RunID,
		fr.Path,
		fr.Digest,
		fr.Category,
		fr.Bytes,
		fr.Tokens,
		fr.Elapsed.Nanoseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert file_result: %w", err)
	}
	if fr.ID, err = result.LastInsertId(); err != nil {
		return fmt.Errorf("insert file_result: %w", err)
	}
	return nil
}

// FinishRun stores the counts, finish time and error code of a run.
func (s *SQLiteStore) FinishRun(ctx context.Context, run *model.Run) error {
	const query = `
		UPDATE runs
		SET finished_at = ?,
		    total = ?,
		    unambiguous = ?,
		    ambiguous = ?,
		    partial = ?,
		    failed = ?,
		    error_code = ?
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		formatTime(run.FinishedAt),
		run.Total,
		run.Unambiguous,
		run.Ambiguous,
		run.Partial,
		run.Failed,
		nullString(run.ErrorCode),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("finish run: %w", err)
	} else if n == 0 {
		return fmt.Errorf("finish run: run %d not found", run.ID)
	}
	return nil
}

const runColumns = `id, root, grammar, started_at, finished_at, total, unambiguous, ambiguous, partial, failed, error_code`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.Run, error) {
	var run model.Run
	var startedAt, finishedAt, errorCode sql.NullString
	if err := row.Scan(
		&run.ID, &run.Root, &run.Grammar, &startedAt, &finishedAt,
		&run.Total, &run.Unambiguous, &run.Ambiguous, &run.Partial, &run.Failed, &errorCode,
	); err != nil {
		return nil, err
	}
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseTime(finishedAt)
	run.ErrorCode = errorCode.String
	return &run, nil
}

// GetRun retrieves a Run by ID. Returns nil if there is no such run.
func (s *SQLiteStore) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*model.Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// RunResults returns the file results of a run, ordered by path.
func (s *SQLiteStore) RunResults(ctx context.Context, runID int64) ([]*model.FileResult, error) {
	const query = `
		SELECT id, run_id, path, digest, category, bytes, tokens, elapsed_ns
		FROM file_results
		WHERE run_id = ?
		ORDER BY path
	`
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query file_results: %w", err)
	}
	defer rows.Close()

	var results []*model.FileResult
	for rows.Next() {
		var fr model.FileResult
		var elapsed int64
		if err := rows.Scan(&fr.ID, &fr.RunID, &fr.Path, &fr.Digest, &fr.Category, &fr.Bytes, &fr.Tokens, &elapsed); err != nil {
			return nil, fmt.Errorf("scan file_result: %w", err)
		}
		fr.Elapsed = time.Duration(elapsed)
		results = append(results, &fr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// ChangedFiles compares two runs and returns, ordered by path, every file
// whose category differs, including files that are in only one of them.
func (s *SQLiteStore) ChangedFiles(ctx context.Context, from, to int64) ([]*model.Change, error) {
	const query = `
		SELECT p.path,
		       COALESCE(a.category, ''), COALESCE(b.category, ''),
		       COALESCE(a.digest, ''), COALESCE(b.digest, '')
		FROM (
			SELECT path FROM file_results WHERE run_id = ?
			UNION
			SELECT path FROM file_results WHERE run_id = ?
		) AS p
		LEFT JOIN file_results a ON a.run_id = ? AND a.path = p.path
		LEFT JOIN file_results b ON b.run_id = ? AND b.path = p.path
		WHERE COALESCE(a.category, '') <> COALESCE(b.category, '')
		ORDER BY p.path
	`
	rows, err := s.db.QueryContext(ctx, query, from, to, from, to)
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()

	var changes []*model.Change
	for rows.Next() {
		var c model.Change
		var fromDigest, toDigest string
		if err := rows.Scan(&c.Path, &c.From, &c.To, &fromDigest, &toDigest); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		c.Modified = fromDigest != "" && toDigest != "" && fromDigest != toDigest
		changes = append(changes, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}
