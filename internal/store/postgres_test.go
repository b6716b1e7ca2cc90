package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/geodata/internal/products"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

// testSetNoLookup returns a product set whose lookup is empty, so saving it
// skips the county upserts.
func testSetNoLookup(t *testing.T) *products.Set {
	t.Helper()
	set := testSet(t)
	set.Lookup = nil
	return set
}

func snapshotMockRows(rows ...snapshotRow) *pgxmock.Rows {
	out := pgxmock.NewRows(snapshotColumns)
	for _, r := range rows {
		out.AddRow(r.args()...)
	}
	return out
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS snapshots`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MigrateError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(errors.New("permission denied"))

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: migrate")
}

func TestPostgresStore_SaveProducts(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	set := testSetNoLookup(t)
	rec, err := encode(set)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO snapshots \(id, built_at, spread_factor_bits, year_built_missing, unscorable, profiles, vectors\) VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7\)`).
		WithArgs(rec.snapshot.args()...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"geographies"}, geographyColumns).
		WillReturnResult(int64(len(rec.geographies)))
	mock.ExpectCopyFrom(pgx.Identifier{"attribute_values"}, valueColumns).
		WillReturnResult(int64(len(rec.values)))
	mock.ExpectCopyFrom(pgx.Identifier{"attribute_stats"}, statColumns).
		WillReturnResult(int64(len(rec.stats)))
	mock.ExpectCommit()

	require.NoError(t, s.SaveProducts(context.Background(), set))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveProductsCopyError(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	set := testSetNoLookup(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO snapshots`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"geographies"}, geographyColumns).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := s.SaveProducts(context.Background(), set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO geographies")
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveProductsBeginError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := s.SaveProducts(context.Background(), testSetNoLookup(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestPostgresStore_LatestSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	rec, err := encode(testSetNoLookup(t))
	require.NoError(t, err)

	mock.ExpectQuery(`FROM snapshots ORDER BY built_at DESC LIMIT 1`).
		WillReturnRows(snapshotMockRows(rec.snapshot))

	snap, err := s.LatestSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rec.snapshot.ID, snap.ID.String())
	assert.Equal(t, rec.snapshot.Profiles, snap.Profiles)
	assert.Equal(t, rec.snapshot.Vectors, snap.Vectors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestSnapshotEmpty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM snapshots ORDER BY built_at DESC LIMIT 1`).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.LatestSnapshot(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshots)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadProductsNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	id := uuid.New()

	mock.ExpectQuery(`FROM snapshots WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.LoadProducts(context.Background(), id)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListSnapshots(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	a, err := encode(testSetNoLookup(t))
	require.NoError(t, err)
	b, err := encode(testSetNoLookup(t))
	require.NoError(t, err)

	mock.ExpectQuery(`FROM snapshots ORDER BY built_at DESC`).
		WillReturnRows(snapshotMockRows(b.snapshot, a.snapshot))

	snaps, err := s.ListSnapshots(context.Background())
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, b.snapshot.ID, snaps[0].ID.String())
	assert.Equal(t, a.snapshot.ID, snaps[1].ID.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadProducts(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	set := testSet(t)
	rec, err := encode(set)
	require.NoError(t, err)

	geographies := pgxmock.NewRows([]string{"ord", "sumlevel", "name", "geoid", "state", "counties", "counties_display", "point", "has_vector"})
	for _, g := range rec.geographies {
		point := g.Point
		if point == nil {
			point = []byte{}
		}
		geographies.AddRow(g.Ord, g.SumLevel, g.Name, g.GeoID, g.State, g.Counties, g.CountiesDisplay, point, g.HasVector)
	}
	values := pgxmock.NewRows([]string{"ord", "kind", "attribute", "bits"})
	for _, v := range rec.values {
		values.AddRow(v.Ord, v.Kind, v.Attribute, v.Bits)
	}
	statRows := pgxmock.NewRows([]string{"code", "median_bits", "std_dev_bits", "n"})
	for _, st := range rec.stats {
		statRows.AddRow(st.Code, st.MedianBits, st.StdDevBits, st.N)
	}
	counties := pgxmock.NewRows(countyColumns)
	for _, c := range rec.counties {
		counties.AddRow(c...)
	}
	pairs := pgxmock.NewRows(placeCountyColumns)
	for _, p := range rec.placeCounties {
		pairs.AddRow(p...)
	}

	mock.ExpectQuery(`FROM snapshots WHERE id = \$1`).
		WithArgs(set.ID.String()).
		WillReturnRows(snapshotMockRows(rec.snapshot))
	mock.ExpectQuery(`FROM geographies WHERE snapshot_id = \$1 ORDER BY ord`).
		WithArgs(rec.snapshot.ID).
		WillReturnRows(geographies)
	mock.ExpectQuery(`FROM attribute_values WHERE snapshot_id = \$1`).
		WithArgs(rec.snapshot.ID).
		WillReturnRows(values)
	mock.ExpectQuery(`FROM attribute_stats WHERE snapshot_id = \$1`).
		WithArgs(rec.snapshot.ID).
		WillReturnRows(statRows)
	mock.ExpectQuery(`SELECT geoid, name FROM counties`).WillReturnRows(counties)
	mock.ExpectQuery(`SELECT place_geoid, county_geoid FROM place_counties`).WillReturnRows(pairs)

	got, err := s.LoadProducts(context.Background(), set.ID)
	require.NoError(t, err)
	assertSameSet(t, set, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadProductsQueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	rec, err := encode(testSetNoLookup(t))
	require.NoError(t, err)

	mock.ExpectQuery(`FROM snapshots ORDER BY built_at DESC LIMIT 1`).
		WillReturnRows(snapshotMockRows(rec.snapshot))
	mock.ExpectQuery(`FROM geographies`).
		WithArgs(rec.snapshot.ID).
		WillReturnError(errors.New("relation does not exist"))

	_, err = s.LoadProducts(context.Background(), uuid.Nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: load geographies")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close(t *testing.T) {
	closed := false
	s := &PostgresStore{closeFn: func() { closed = true }}
	require.NoError(t, s.Close())
	assert.True(t, closed)

	assert.NoError(t, (&PostgresStore{}).Close())
}
