// Package runstate persists harvest run progress so an interrupted run
// can resume at bean granularity without duplicating or losing work.
package runstate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DBFileName is the state database file inside the output directory.
// One state record exists per output directory.
const DBFileName = "harvest-state.db"

// RunState is the persisted progress record. Stages A-D and F are not
// individually checkpointed; resume is defined only at bean granularity.
type RunState struct {
	RunID              string
	RepoLocator        string
	LastCompletedStage string
	BeanCountWritten   int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Store manages run-state persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the state database under outputDir.
func Open(outputDir string) (*Store, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure output directory: %w", err)
	}

	dbPath := filepath.Join(outputDir, DBFileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the state database location.
func (s *Store) Path() string { return s.path }

// Begin resets the state record for a fresh run.
func (s *Store) Begin(ctx context.Context, runID, repoLocator string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM written_beans`); err != nil {
		return fmt.Errorf("clear bean checkpoints: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_state`); err != nil {
		return fmt.Errorf("clear run state: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO run_state (id, run_id, repo_locator, last_completed_stage, bean_count_written, created_at, updated_at)
         VALUES (1, ?, ?, '', 0, ?, ?)`,
		runID, repoLocator, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert run state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run state: %w", err)
	}
	return nil
}

// Load reads the persisted state. Returns nil when no run has been
// recorded for this output directory.
func (s *Store) Load(ctx context.Context) (*RunState, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, repo_locator, last_completed_stage, bean_count_written, created_at, updated_at
         FROM run_state WHERE id = 1`)

	var (
		state      RunState
		createdRaw string
		updatedRaw string
	)
	err := row.Scan(&state.RunID, &state.RepoLocator, &state.LastCompletedStage,
		&state.BeanCountWritten, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load run state: %w", err)
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		state.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		state.UpdatedAt = updated
	}
	return &state, nil
}

// RecordStage checkpoints the last completed stage letter.
func (s *Store) RecordStage(ctx context.Context, stage string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`UPDATE run_state SET last_completed_stage = ?, updated_at = ? WHERE id = 1`,
		stage, now,
	)
	if err != nil {
		return fmt.Errorf("record stage: %w", err)
	}
	return nil
}

// RecordBean checkpoints one written bean. bean_count_written only moves
// forward, so repeated calls with monotonically increasing numbers are
// safe. One durable write per call.
func (s *Store) RecordBean(ctx context.Context, beanNumber int, beanID, path string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bean tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO written_beans (bean_number, bean_id, path, written_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(bean_number) DO UPDATE SET bean_id = excluded.bean_id, path = excluded.path, written_at = excluded.written_at`,
		beanNumber, beanID, path, now,
	)
	if err != nil {
		return fmt.Errorf("record bean checkpoint: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE run_state SET bean_count_written = MAX(bean_count_written, ?), updated_at = ? WHERE id = 1`,
		beanNumber, now,
	)
	if err != nil {
		return fmt.Errorf("advance bean count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bean checkpoint: %w", err)
	}
	return nil
}
