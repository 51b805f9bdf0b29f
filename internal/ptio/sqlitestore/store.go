// Package sqlitestore is a SQLite-backed ptio.Writer: an alternative to the
// native binary container for persisting matched tracks as queryable
// tabular records.
//
// Migrations are embedded SQL files applied through golang-migrate/migrate/v4
// with an iofs source driver over an embed.FS, modernc.org/sqlite as the
// driver, persisting reconstructed straight-line tracks and their per-sensor
// local states.
package sqlitestore

import (
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	migsqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/proteus-tel/proteus/internal/ptcore"
	"github.com/proteus-tel/proteus/internal/ptevent"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a ptio.Writer persisting tracks into a SQLite database, tagged
// by a run id so several alignment iterations can share one file.
type Store struct {
	db *sql.DB
	runID string
}

// Open opens (creating if absent) a SQLite database at path and migrates it
// to the latest schema.
func Open(path, runID string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, ptcore.IOf("sqlitestore", "open %q: %v", path, err)
	}
	s := &Store{db: db, runID: runID}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return ptcore.IOf("sqlitestore", "migration source: %v", err)
	}
	driver, err := migsqlite.WithInstance(s.db, &migsqlite.Config{})
	if err != nil {
		return ptcore.IOf("sqlitestore", "migration driver: %v", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return ptcore.IOf("sqlitestore", "migration instance: %v", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return ptcore.IOf("sqlitestore", "migrate up: %v", err)
	}
	return nil
}

// Append persists one event's tracks and per-sensor local states as
// queryable tabular records.
func (s *Store) Append(ev *ptevent.Event) error {
	tx, err := s.db.Begin()
	if err != nil {
		return ptcore.IOf("sqlitestore", "begin tx: %v", err)
	}
	for ti, t := range ev.Tracks {
		if _, err := tx.Exec(
			`INSERT INTO tracks (run_id, frame, track_idx, chi2, dof, slope_x, slope_y) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.runID, ev.Frame, ti, t.Fit.Chi2, t.Fit.Dof, t.Global.Params[2], t.Global.Params[3],
		); err != nil {
			tx.Rollback()
			return ptcore.IOf("sqlitestore", "insert track: %v", err)
		}
		for sensorID := range t.Clusters {
			se := ev.Sensor(sensorID)
			if se == nil {
				continue
			}
			for _, ls := range se.LocalStates {
				if ls.Track != ti {
					continue
				}
				if _, err := tx.Exec(
					`INSERT INTO local_states (run_id, frame, track_idx, sensor_id, u, v, du, dv) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
					s.runID, ev.Frame, ti, sensorID, ls.Params[0], ls.Params[1], ls.Params[2], ls.Params[3],
				); err != nil {
					tx.Rollback()
					return ptcore.IOf("sqlitestore", "insert local state: %v", err)
				}
				break
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return ptcore.IOf("sqlitestore", "commit tx: %v", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
