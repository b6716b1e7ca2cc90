package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/geodata/internal/db"
	"github.com/sells-group/geodata/internal/products"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists the snapshot load queries, prepared on each new
// connection.
var preparedStatements = map[string]string{
	"select_geographies": selectGeographies,
	"select_values":      selectValues,
	"select_stats":       selectStats,
}

const (
	pgSnapshotSelect  = `SELECT id, built_at, spread_factor_bits, year_built_missing, unscorable, profiles, vectors FROM snapshots`
	selectGeographies = `SELECT ord, sumlevel, name, geoid, state, counties, counties_display, point, has_vector FROM geographies WHERE snapshot_id = $1 ORDER BY ord`
	selectValues      = `SELECT ord, kind, attribute, bits FROM attribute_values WHERE snapshot_id = $1`
	selectStats       = `SELECT code, median_bits, std_dev_bits, n FROM attribute_stats WHERE snapshot_id = $1`
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id                 TEXT PRIMARY KEY,
	built_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	spread_factor_bits BIGINT NOT NULL,
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
	point            BYTEA,
	has_vector       BOOLEAN NOT NULL DEFAULT false,
	PRIMARY KEY (snapshot_id, ord)
);

CREATE TABLE IF NOT EXISTS attribute_values (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	ord         INTEGER NOT NULL,
	kind        TEXT NOT NULL,
	attribute   TEXT NOT NULL,
	bits        BIGINT NOT NULL,
	PRIMARY KEY (snapshot_id, ord, kind, attribute)
);

CREATE TABLE IF NOT EXISTS attribute_stats (
	snapshot_id  TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	code         TEXT NOT NULL,
	median_bits  BIGINT NOT NULL,
	std_dev_bits BIGINT NOT NULL,
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

CREATE INDEX IF NOT EXISTS idx_snapshots_built_at ON snapshots(built_at DESC);
CREATE INDEX IF NOT EXISTS idx_geographies_name ON geographies(name);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveProducts(ctx context.Context, set *products.Set) error {
	rec, err := encode(set)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	placeholders := make([]string, len(snapshotColumns))
	for i := range placeholders {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	insertSnapshot := fmt.Sprintf("INSERT INTO snapshots (%s) VALUES (%s)",
		strings.Join(snapshotColumns, ", "), strings.Join(placeholders, ", "))
	if _, err := tx.Exec(ctx, insertSnapshot, rec.snapshot.args()...); err != nil {
		return eris.Wrap(err, "postgres: insert snapshot")
	}

	if _, err := db.CopyFrom(ctx, tx, "geographies", geographyColumns, rec.geographyArgs()); err != nil {
		return err
	}
	if _, err := db.CopyFrom(ctx, tx, "attribute_values", valueColumns, rec.valueArgs()); err != nil {
		return err
	}
	if _, err := db.CopyFrom(ctx, tx, "attribute_stats", statColumns, rec.statArgs()); err != nil {
		return err
	}

	if _, err := db.BulkUpsert(ctx, tx, db.UpsertConfig{
		Table:        "counties",
		Columns:      countyColumns,
		ConflictKeys: []string{"geoid"},
	}, rec.counties); err != nil {
		return err
	}
	if _, err := db.BulkUpsert(ctx, tx, db.UpsertConfig{
		Table:        "place_counties",
		Columns:      placeCountyColumns,
		ConflictKeys: placeCountyColumns,
	}, rec.placeCounties); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit snapshot")
}

func (s *PostgresStore) snapshotRow(ctx context.Context, id uuid.UUID) (snapshotRow, error) {
	var row pgx.Row
	if id == uuid.Nil {
		row = s.pool.QueryRow(ctx, pgSnapshotSelect+` ORDER BY built_at DESC LIMIT 1`)
	} else {
		row = s.pool.QueryRow(ctx, pgSnapshotSelect+` WHERE id = $1`, id.String())
	}
	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if id == uuid.Nil {
			return snapshotRow{}, ErrNoSnapshots
		}
		return snapshotRow{}, eris.Wrapf(ErrSnapshotNotFound, "%s", id)
	}
	return snap, eris.Wrap(err, "postgres: get snapshot")
}

func (s *PostgresStore) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	row, err := s.snapshotRow(ctx, uuid.Nil)
	if err != nil {
		return Snapshot{}, err
	}
	return row.snapshot()
}

func (s *PostgresStore) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := queryAll(ctx, s.pool, pgSnapshotSelect+` ORDER BY built_at DESC`, scanSnapshot)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	out := make([]Snapshot, 0, len(rows))
	for _, r := range rows {
		snap, err := r.snapshot()
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *PostgresStore) LoadProducts(ctx context.Context, id uuid.UUID) (*products.Set, error) {
	snap, err := s.snapshotRow(ctx, id)
	if err != nil {
		return nil, err
	}

	geographies, err := queryAll(ctx, s.pool, selectGeographies, scanGeography, snap.ID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load geographies")
	}
	values, err := queryAll(ctx, s.pool, selectValues, scanValue, snap.ID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load attribute values")
	}
	statRows, err := queryAll(ctx, s.pool, selectStats, scanStat, snap.ID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load attribute stats")
	}

	counties, err := queryAll(ctx, s.pool, `SELECT geoid, name FROM counties ORDER BY geoid`, scanCounty)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load counties")
	}
	pairs, err := queryAll(ctx, s.pool,
		`SELECT place_geoid, county_geoid FROM place_counties ORDER BY place_geoid, county_geoid`, scanPair)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load place counties")
	}

	return decode(snap, geographies, values, statRows, newLookup(counties, pairs))
}

func queryAll[T any](ctx context.Context, pool db.Pool, query string, scan func(scannable) (T, error), args ...any) ([]T, error) {
	rows, err := pool.Query(ctx, query, args...)
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
