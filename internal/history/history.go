// Package history keeps a SQLite record of past runs so reports can show
// a trend. The store is optional; callers log its errors and carry on.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dkoosis/testrules/internal/summary"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// timeLayout has fixed width so started_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("history store closed")

// Run is one stored run.
type Run struct {
	ID          string
	Selector    string
	StartedAt   time.Time
	Total       int
	Passed      int
	Failed      int // failed plus errored, as in summary.RunSummary
	Errored     int
	SuccessRate float64
	Duration    time.Duration
	Coverage    float64 // line coverage percent, -1 when not collected
}

// RunRecord is what Record stores: the run header plus its outcomes.
type RunRecord struct {
	ID        string
	Selector  string
	StartedAt time.Time
	Summary   summary.RunSummary
	Coverage  float64 // -1 when not collected
}

// Store is a run history database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores a run and its method outcomes in one transaction.
func (s *Store) Record(ctx context.Context, rec RunRecord) (err error) {
	if s.db == nil {
		return ErrClosed
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	sum := rec.Summary
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, selector, started_at, total, passed, failed, errored,
			success_rate, duration_ms, coverage_percent
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.Selector,
		rec.StartedAt.UTC().Format(timeLayout),
		sum.Total,
		sum.Passed,
		sum.Failed,
		sum.Errored,
		sum.SuccessRate,
		sum.Duration.Milliseconds(),
		nullPercent(rec.Coverage),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rec.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO method_results (run_id, position, method, status, duration_ms, summary)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rec.ID, err)
	}
	defer stmt.Close()
	for i, o := range sum.Outcomes {
		if _, err = stmt.ExecContext(ctx, rec.ID, i, o.Method.FullName(), string(o.Status), o.Duration.Milliseconds(), o.Summary); err != nil {
			return fmt.Errorf("record method %s: %w", o.Method.FullName(), err)
		}
	}
	return tx.Commit()
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Run, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, selector, started_at, total, passed, failed, errored,
		       success_rate, duration_ms, coverage_percent
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var durationMS int64
		var cov sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.Selector, &started, &r.Total, &r.Passed, &r.Failed, &r.Errored,
			&r.SuccessRate, &durationMS, &cov); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.Coverage = -1
		if cov.Valid {
			r.Coverage = cov.Float64
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// MethodStatuses returns the stored status of every method of a run, in
// execution order.
func (s *Store) MethodStatuses(ctx context.Context, runID string) (map[string]summary.Status, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT method, status FROM method_results WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query methods: %w", err)
	}
	defer rows.Close()

	out := map[string]summary.Status{}
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			return nil, fmt.Errorf("scan methods: %w", err)
		}
		out[name] = summary.Status(status)
	}
	return out, rows.Err()
}

// Close closes the database. It is safe to call more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func nullPercent(p float64) any {
	if p < 0 {
		return nil
	}
	return p
}
