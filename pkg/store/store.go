// Package store keeps a snapshot of the last loaded plume dataset in SQLite, so
// the server can start and answer searches without the original sources.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bastiangx/plumeserve/pkg/plume"
	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS plume_records (
	id                TEXT PRIMARY KEY,
	seq               INTEGER NOT NULL DEFAULT 0,
	plume_id          TEXT NOT NULL DEFAULT '',
	location          TEXT NOT NULL DEFAULT '',
	lat               REAL NOT NULL DEFAULT 0,
	lon               REAL NOT NULL DEFAULT 0,
	max_lat           REAL NOT NULL DEFAULT 0,
	max_lon           REAL NOT NULL DEFAULT 0,
	time_observed     TEXT NOT NULL DEFAULT '',
	orbit             INTEGER NOT NULL DEFAULT 0,
	max_concentration REAL NOT NULL DEFAULT 0,
	tiff_url          TEXT NOT NULL DEFAULT ''
);`

// Store is a SQLite-backed record snapshot.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db %s: %w", path, err)
	}
	// one writer keeps sqlite from returning SQLITE_BUSY on concurrent saves
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations on %s: %w", path, err)
	}
	log.Debugf("Opened record store at %s", path)
	return &Store{db: db, path: path}, nil
}

// addedColumns were introduced after the first schema and are added to older
// snapshots on open.
var addedColumns = []struct{ name, def string }{
	{"seq", "INTEGER NOT NULL DEFAULT 0"},
	{"max_lat", "REAL NOT NULL DEFAULT 0"},
	{"max_lon", "REAL NOT NULL DEFAULT 0"},
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	for _, col := range addedColumns {
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('plume_records') WHERE name = ?`, col.name).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf("ALTER TABLE plume_records ADD COLUMN %s %s", col.name, col.def)); err != nil {
			return err
		}
		log.Debugf("Added column %s to plume_records", col.name)
	}
	return nil
}

// ReplaceRecords swaps the stored snapshot for records in one transaction.
// Input order is kept and a repeated id keeps its first record, so reading the
// snapshot back yields the same dataset a Catalog would build from records.
func (s *Store) ReplaceRecords(ctx context.Context, records []plume.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM plume_records"); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO plume_records
		(id, seq, plume_id, location, lat, lon, max_lat, max_lon, time_observed, orbit, max_concentration, tiff_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for seq, r := range records {
		observed := ""
		if !r.TimeObserved.IsZero() {
			observed = r.TimeObserved.UTC().Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, seq, r.PlumeID, r.Location, r.Lat, r.Lon,
			r.MaxLat, r.MaxLon, observed, r.Orbit, r.MaxConcentration, r.TiffURL); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	log.Debugf("Stored %d plume records in %s", len(records), s.path)
	return nil
}

// Records returns the stored snapshot in its original input order.
func (s *Store) Records(ctx context.Context) ([]plume.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		id, plume_id, location, lat, lon, max_lat, max_lon, time_observed, orbit, max_concentration, tiff_url
		FROM plume_records ORDER BY seq, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []plume.Record
	for rows.Next() {
		var r plume.Record
		var observed string
		if err := rows.Scan(&r.ID, &r.PlumeID, &r.Location, &r.Lat, &r.Lon,
			&r.MaxLat, &r.MaxLon, &observed, &r.Orbit, &r.MaxConcentration, &r.TiffURL); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if observed != "" {
			if t, err := time.Parse(time.RFC3339, observed); err == nil {
				r.TimeObserved = t
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM plume_records").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
