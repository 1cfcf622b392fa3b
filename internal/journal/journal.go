// Package journal keeps an optional local SQLite record of completed runs.
// It is strictly best-effort: journal failures never change a job's status
// or exit code.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pagelift-ai/pagelift/internal/job"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	job_id        TEXT NOT NULL,
	status        TEXT NOT NULL,
	error_code    TEXT,
	output_dir    TEXT NOT NULL,
	backend       TEXT NOT NULL,
	method        TEXT NOT NULL,
	artifact_count INTEGER NOT NULL,
	started_at    TEXT NOT NULL,
	ended_at      TEXT NOT NULL,
	duration_ms   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Entry is one journaled run.
type Entry struct {
	ID            string
	JobID         string
	Status        job.Status
	ErrorCode     *job.Code
	OutputDir     string
	Backend       string
	Method        string
	ArtifactCount int
	StartedAt     string
	EndedAt       string
	DurationMs    int64
}

// Store is a run journal backed by a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record inserts one completed run.
func (s *Store) Record(ctx context.Context, jobID string, result *job.Result) error {
	var errorCode *string
	if result.ErrorCode != nil {
		code := string(*result.ErrorCode)
		errorCode = &code
	}

	query := `
		INSERT INTO runs (id, job_id, status, error_code, output_dir, backend,
			method, artifact_count, started_at, ended_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New().String(), jobID, string(result.Status), errorCode,
		result.OutputDir, result.Backend, result.Method,
		result.Artifacts.Total(), result.Timings.StartedAt,
		result.Timings.EndedAt, result.Timings.DurationMs,
	)
	return err
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, job_id, status, error_code, output_dir, backend, method,
			artifact_count, started_at, ended_at, duration_ms
		FROM runs ORDER BY started_at DESC LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status string
		var errorCode sql.NullString
		if err := rows.Scan(&e.ID, &e.JobID, &status, &errorCode, &e.OutputDir,
			&e.Backend, &e.Method, &e.ArtifactCount, &e.StartedAt, &e.EndedAt,
			&e.DurationMs); err != nil {
			return nil, err
		}
		e.Status = job.Status(status)
		if errorCode.Valid {
			code := job.Code(errorCode.String)
			e.ErrorCode = &code
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
