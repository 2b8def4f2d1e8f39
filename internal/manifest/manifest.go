// Package manifest records run metadata, per-record completion, and
// worker heartbeats into a SQLite database alongside a run's image
// outputs, following the embedded-migrations convention used by this
// codebase's other SQLite-backed stores.
package manifest

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a manifest database for one run directory.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the manifest database at path and
// applies any pending migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("manifest: failed to set WAL mode: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("manifest: failed to set busy_timeout: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.migrateUp(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *DB) migrateUp() error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("manifest: failed to open embedded migrations: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("manifest: failed to create migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("manifest: failed to create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("manifest: failed to construct migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("manifest: migration failed: %w", err)
	}
	return nil
}

// StartRun records the start of a new run, stamping the binary version
// that produced it alongside the resolved configuration.
func (db *DB) StartRun(runID, configJSON, groundtruthVersion string) error {
	_, err := db.Exec(
		`INSERT INTO run (run_id, config_json, started_at, status, groundtruth_version) VALUES (?, ?, ?, 'running', ?)`,
		runID, configJSON, time.Now().UTC().Format(time.RFC3339Nano), groundtruthVersion,
	)
	return err
}

// FinishRun marks a run complete, recording runErr (if any) as the
// terminal status.
func (db *DB) FinishRun(runID string, runErr error) error {
	status := "completed"
	var errText any
	if runErr != nil {
		status = "failed"
		errText = runErr.Error()
	}
	_, err := db.Exec(
		`UPDATE run SET finished_at = ?, status = ?, error = ? WHERE run_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), status, errText, runID,
	)
	return err
}

// RecordRayCastDone marks one record's ray-casting stage complete.
func (db *DB) RecordRayCastDone(runID, recordID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.Exec(
		`INSERT INTO record (run_id, record_id, ray_cast_done_at) VALUES (?, ?, ?)
		 ON CONFLICT(run_id, record_id) DO UPDATE SET ray_cast_done_at = excluded.ray_cast_done_at`,
		runID, recordID, now,
	)
	return err
}

// RecordGenerateDone marks one record's generation stage complete.
func (db *DB) RecordGenerateDone(runID, recordID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := db.Exec(
		`INSERT INTO record (run_id, record_id, generate_done_at) VALUES (?, ?, ?)
		 ON CONFLICT(run_id, record_id) DO UPDATE SET generate_done_at = excluded.generate_done_at`,
		runID, recordID, now,
	)
	return err
}

// RecordError records a fatal per-record failure.
func (db *DB) RecordError(runID, recordID string, recordErr error) error {
	_, err := db.Exec(
		`INSERT INTO record (run_id, record_id, error) VALUES (?, ?, ?)
		 ON CONFLICT(run_id, record_id) DO UPDATE SET error = excluded.error`,
		runID, recordID, recordErr.Error(),
	)
	return err
}

// Heartbeat upserts the last-seen timestamp for one worker. It serves as
// the pipeline.Heartbeat callback, called after each unit of work, so the
// on-disk manifest records the same heartbeats the supervisor's watchdog
// tracks in memory; the watchdog itself does not read the manifest.
func (db *DB) Heartbeat(runID, workerKind string, workerIndex int) error {
	_, err := db.Exec(
		`INSERT INTO heartbeat (run_id, worker_kind, worker_index, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id, worker_kind, worker_index) DO UPDATE SET updated_at = excluded.updated_at`,
		runID, workerKind, workerIndex, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// CompletedRecordCount returns the number of records whose generation
// stage has finished, for the record-count-preserving invariant in
// spec.md §8.
func (db *DB) CompletedRecordCount(runID string) (int, error) {
	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM record WHERE run_id = ? AND generate_done_at IS NOT NULL`, runID,
	).Scan(&n)
	return n, err
}
