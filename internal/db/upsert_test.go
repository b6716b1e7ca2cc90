package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "counties",
		Columns:      []string{"geoid", "name"},
		ConflictKeys: []string{"geoid"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "counties",
		ConflictKeys: []string{"geoid"},
	}, [][]any{{"06037", "Los Angeles County, California"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:   "counties",
		Columns: []string{"geoid", "name"},
	}, [][]any{{"06037", "Los Angeles County, California"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE IF NOT EXISTS "_tmp_upsert_counties"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_counties"}, []string{"geoid", "name"}).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "counties"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectExec(`DROP TABLE "_tmp_upsert_counties"`).
		WillReturnResult(pgxmock.NewResult("DROP", 0))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "counties",
		Columns:      []string{"geoid", "name"},
		ConflictKeys: []string{"geoid"},
	}, [][]any{{"06037", "Los Angeles County, California"}, {"48201", "Harris County, Texas"}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_counties"}, []string{"geoid", "name"}).
		WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "counties",
		Columns:      []string{"geoid", "name"},
		ConflictKeys: []string{"geoid"},
	}, [][]any{{"06037", "Los Angeles County, California"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into temp table for counties")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSQL(t *testing.T) {
	tests := []struct {
		name string
		cfg  UpsertConfig
		want string
	}{
		{
			name: "update non-key columns",
			cfg:  UpsertConfig{Table: "counties", Columns: []string{"geoid", "name"}, ConflictKeys: []string{"geoid"}},
			want: `INSERT INTO "counties" ("geoid", "name") SELECT "geoid", "name" FROM "_tmp" ON CONFLICT ("geoid") DO UPDATE SET "name" = EXCLUDED."name"`,
		},
		{
			name: "all columns are keys",
			cfg: UpsertConfig{
				Table:        "geodata.place_counties",
				Columns:      []string{"place_geoid", "county_geoid"},
				ConflictKeys: []string{"place_geoid", "county_geoid"},
			},
			want: `INSERT INTO "geodata"."place_counties" ("place_geoid", "county_geoid") SELECT "place_geoid", "county_geoid" FROM "_tmp" ON CONFLICT ("place_geoid", "county_geoid") DO NOTHING`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, upsertSQL(tt.cfg, "_tmp"))
		})
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"geodata.counties", `"geodata"."counties"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, identifier(tt.input).Sanitize())
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	result := quoteAndJoin([]string{"id", "name", "value"})
	assert.Equal(t, `"id", "name", "value"`, result)
}
