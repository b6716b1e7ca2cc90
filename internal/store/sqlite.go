package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/geodata/internal/geo"
	"github.com/sells-group/geodata/internal/products"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id                 TEXT PRIMARY KEY,
	built_at           DATETIME NOT NULL,
	spread_factor_bits INTEGER NOT NULL,
	year_built_missing TEXT NOT NULL DEFAULT '[]',
	unscorable         TEXT NOT NULL DEFAULT '[]',
	profiles           INTEGER NOT NULL,
	vectors            INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS geographies (
	snapshot_id      TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	ord              INTEGER NOT NULL,
	sumlevel         TEXT NOT NULL,
	name             TEXT NOT NULL,
	geoid            TEXT NOT NULL,
	state            TEXT NOT NULL,
	counties         TEXT NOT NULL DEFAULT '[]',
	counties_display TEXT NOT NULL DEFAULT '[]',
	point            BLOB,
	has_vector       INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (snapshot_id, ord)
);

CREATE TABLE IF NOT EXISTS attribute_values (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	ord         INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	attribute   TEXT NOT NULL,
	bits        INTEGER NOT NULL,
	PRIMARY KEY (snapshot_id, ord, kind, attribute)
);

CREATE TABLE IF NOT EXISTS attribute_stats (
	snapshot_id  TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	code         TEXT NOT NULL,
	median_bits  INTEGER NOT NULL,
	std_dev_bits INTEGER NOT NULL,
	n            INTEGER NOT NULL,
	PRIMARY KEY (snapshot_id, code)
);

CREATE TABLE IF NOT EXISTS counties (
	geoid TEXT PRIMARY KEY,
	name  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS place_counties (
	place_geoid  TEXT NOT NULL,
	county_geoid TEXT NOT NULL,
	PRIMARY KEY (place_geoid, county_geoid)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_built_at ON snapshots(built_at);
CREATE INDEX IF NOT EXISTS idx_geographies_name ON geographies(name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveProducts(ctx context.Context, set *products.Set) error {
	rec, err := encode(set)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := insertRows(ctx, tx, "INSERT INTO snapshots", snapshotColumns, [][]any{rec.snapshot.args()}); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, "INSERT INTO geographies", geographyColumns, rec.geographyArgs()); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, "INSERT INTO attribute_values", valueColumns, rec.valueArgs()); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, "INSERT INTO attribute_stats", statColumns, rec.statArgs()); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, "INSERT INTO counties", countyColumns, rec.counties,
		"ON CONFLICT(geoid) DO UPDATE SET name = excluded.name"); err != nil {
		return err
	}
	if err := insertRows(ctx, tx, "INSERT OR IGNORE INTO place_counties", placeCountyColumns, rec.placeCounties); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit snapshot")
}

// insertRows runs one prepared INSERT per row. prefix is the statement up
// to the column list; suffix is appended after VALUES.
func insertRows(ctx context.Context, tx *sql.Tx, prefix string, columns []string, rows [][]any, suffix ...string) error {
	if len(rows) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("%s (%s) VALUES (%s) %s", prefix, strings.Join(columns, ", "), placeholders, strings.Join(suffix, " "))

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare %s", prefix)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrapf(err, "sqlite: %s", prefix)
		}
	}
	return nil
}

const snapshotSelect = `SELECT id, built_at, spread_factor_bits, year_built_missing, unscorable, profiles, vectors FROM snapshots`

func (s *SQLiteStore) snapshotRow(ctx context.Context, id uuid.UUID) (snapshotRow, error) {
	var row *sql.Row
	if id == uuid.Nil {
		row = s.db.QueryRowContext(ctx, snapshotSelect+` ORDER BY built_at DESC, rowid DESC LIMIT 1`)
	} else {
		row = s.db.QueryRowContext(ctx, snapshotSelect+` WHERE id = ?`, id.String())
	}
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		if id == uuid.Nil {
			return snapshotRow{}, ErrNoSnapshots
		}
		return snapshotRow{}, eris.Wrapf(ErrSnapshotNotFound, "%s", id)
	}
	return snap, eris.Wrap(err, "sqlite: get snapshot")
}

func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	row, err := s.snapshotRow(ctx, uuid.Nil)
	if err != nil {
		return Snapshot{}, err
	}
	return row.snapshot()
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, snapshotSelect+` ORDER BY built_at DESC, rowid DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		r, err := scanSnapshot(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		snap, err := r.snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list snapshots iterate")
}

func (s *SQLiteStore) LoadProducts(ctx context.Context, id uuid.UUID) (*products.Set, error) {
	snap, err := s.snapshotRow(ctx, id)
	if err != nil {
		return nil, err
	}

	geographies, err := collect(ctx, s.db,
		`SELECT ord, sumlevel, name, geoid, state, counties, counties_display, point, has_vector
		 FROM geographies WHERE snapshot_id = ? ORDER BY ord`,
		scanGeography, snap.ID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load geographies")
	}
	values, err := collect(ctx, s.db,
		`SELECT ord, kind, attribute, bits FROM attribute_values WHERE snapshot_id = ?`,
		scanValue, snap.ID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load attribute values")
	}
	statRows, err := collect(ctx, s.db,
		`SELECT code, median_bits, std_dev_bits, n FROM attribute_stats WHERE snapshot_id = ?`,
		scanStat, snap.ID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load attribute stats")
	}
	lk, err := s.lookup(ctx)
	if err != nil {
		return nil, err
	}
	return decode(snap, geographies, values, statRows, lk)
}

func (s *SQLiteStore) lookup(ctx context.Context) (*geo.Lookup, error) {
	counties, err := collect(ctx, s.db, `SELECT geoid, name FROM counties ORDER BY geoid`, scanCounty)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load counties")
	}
	pairs, err := collect(ctx, s.db,
		`SELECT place_geoid, county_geoid FROM place_counties ORDER BY place_geoid, county_geoid`, scanPair)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load place counties")
	}
	return newLookup(counties, pairs), nil
}

// collect runs query and scans every row with scan.
func collect[T any](ctx context.Context, db *sql.DB, query string, scan func(scannable) (T, error), args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
