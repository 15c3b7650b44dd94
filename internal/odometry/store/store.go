// Package store persists the accumulated global pose of each finished
// sweep to SQLite: a thin wrapper around *sql.DB with schema managed by
// migration files rather than an inline CREATE TABLE string.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/lidar-odometry/internal/odometry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Store records and retrieves the trajectory of accumulated sweep poses.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// migrates its schema to the latest version.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	if err := migrateSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func migrateSchema(db *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("store: load migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("store: sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("store: init migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("store: apply migrations: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordSweep persists the accumulated global pose for a finished sweep,
// identified by sweepID and the time it was recorded.
func (s *Store) RecordSweep(ctx context.Context, sweepID uuid.UUID, recordedAt time.Time, pose odometry.Pose6) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sweeps (sweep_id, recorded_at, rx, ry, rz, tx, ty, tz)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sweepID.String(), recordedAt.UTC(), pose.Rx, pose.Ry, pose.Rz, pose.Tx, pose.Ty, pose.Tz)
	if err != nil {
		return fmt.Errorf("store: record sweep %s: %w", sweepID, err)
	}
	return nil
}

// SweepRecord is one row of the recorded trajectory.
type SweepRecord struct {
	SweepID    uuid.UUID
	RecordedAt time.Time
	Pose       odometry.Pose6
}

// Trajectory returns every recorded sweep pose in recording order.
func (s *Store) Trajectory(ctx context.Context) ([]SweepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT sweep_id, recorded_at, rx, ry, rz, tx, ty, tz
		FROM sweeps ORDER BY recorded_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: query trajectory: %w", err)
	}
	defer rows.Close()

	var out []SweepRecord
	for rows.Next() {
		var idStr string
		var rec SweepRecord
		if err := rows.Scan(&idStr, &rec.RecordedAt,
			&rec.Pose.Rx, &rec.Pose.Ry, &rec.Pose.Rz,
			&rec.Pose.Tx, &rec.Pose.Ty, &rec.Pose.Tz); err != nil {
			return nil, fmt.Errorf("store: scan trajectory row: %w", err)
		}
		rec.SweepID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("store: parse sweep id %q: %w", idStr, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate trajectory: %w", err)
	}
	return out, nil
}
