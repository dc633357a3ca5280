// Package history records backup runs in a local SQLite database so
// `gitsnap history` can list them. History is bookkeeping: a failure here
// must never undo an archive that already exists.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gitsnap/internal/history/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Run is one recorded backup invocation.
type Run struct {
	ID             int64
	RunID          string
	Source         string
	Destination    string
	ArchivePath    string
	ModifiedCount  int
	UntrackedCount int
	StagedCount    int
	FileCount      int
	Status         string // "running", "success", "empty", or "error"
	StartedAt      time.Time
	FinishedAt     sql.NullTime
}

// Store persists runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path and brings
// its schema up to date. path may be ":memory:" in tests.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	// SQLite handles one writer at a time; a larger pool just produces
	// SQLITE_BUSY under contention.
	db.SetMaxOpenConns(1)

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating history database: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// RecordStart inserts a new run with status "running" and fills in its
// database ID.
func (s *Store) RecordStart(run *Run) error {
	res, err := s.db.Exec(`
		INSERT INTO runs (run_id, source, destination, status, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.Source, run.Destination, "running", run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("recording run start: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}
	run.ID = id
	run.Status = "running"
	return nil
}

// RecordFinish finalizes a run with its outcome and counters.
func (s *Store) RecordFinish(run *Run, finishedAt time.Time) error {
	_, err := s.db.Exec(`
		UPDATE runs
		SET archive_path = ?, modified_count = ?, untracked_count = ?,
		    staged_count = ?, file_count = ?, status = ?, finished_at = ?
		WHERE id = ?`,
		run.ArchivePath, run.ModifiedCount, run.UntrackedCount,
		run.StagedCount, run.FileCount, run.Status, finishedAt, run.ID,
	)
	if err != nil {
		return fmt.Errorf("recording run finish: %w", err)
	}
	run.FinishedAt = sql.NullTime{Time: finishedAt, Valid: true}
	return nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(limit int) ([]*Run, error) {
	rows, err := s.db.Query(`
		SELECT id, run_id, source, destination, archive_path,
		       modified_count, untracked_count, staged_count, file_count,
		       status, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var r Run
		err := rows.Scan(
			&r.ID, &r.RunID, &r.Source, &r.Destination, &r.ArchivePath,
			&r.ModifiedCount, &r.UntrackedCount, &r.StagedCount, &r.FileCount,
			&r.Status, &r.StartedAt, &r.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
