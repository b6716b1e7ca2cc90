package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/geodata/internal/config"
	"github.com/sells-group/geodata/internal/store"
)

const cliRows = `NAME,SUMLEVEL,GEOID,STUSAB,ALAND_SQMI,INTPTLAT,INTPTLONG,B01003_1,B02001_2,B02001_3,B02001_5,B03002_3,B03002_12,B04004_51,B15003_1,B15003_22,B15003_23,B15003_24,B15003_25,B19301_1,B19013_1,B25035_1,B25018_1,B25077_1,B25058_1
"Alpha city, California",160,16000US0601000,CA,10,34.05,-118.24,10000,5000,1000,1500,4000,3000,200,7000,1500,500,100,50,30000,60000,1960,4.5,500000,1500
"Beta city, California",160,16000US0602000,CA,20,37.77,-122.42,50000,20000,3000,12000,15000,10000,800,35000,9000,4000,900,600,45000,90000,1975,5.1,900000,2200
"Gamma city, Texas",160,16000US4803000,TX,30,29.76,-95.37,99999,60000,20000,5000,30000,40000,300,65000,8000,2500,400,300,28000,52000,1985,5.5,250000,1100
`

// execute runs the root command with args. Cobra keeps parsed flag values
// between runs, so every flag is reset afterwards.
func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	resetFlags(t, rootCmd)
	return err
}

func resetFlags(t *testing.T, cmd *cobra.Command) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		if !f.Changed {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			require.NoError(t, sv.Replace(nil))
		} else {
			require.NoError(t, f.Value.Set(f.DefValue))
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(t, c)
	}
}

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "geodata.db")
	t.Setenv("GEODATA_STORE_DRIVER", "sqlite")
	t.Setenv("GEODATA_STORE_DATABASE_URL", dbPath)
	t.Setenv("GEODATA_LOG_LEVEL", "error")

	rows := filepath.Join(dir, "rows.csv")
	require.NoError(t, os.WriteFile(rows, []byte(cliRows), 0o644))
	require.NoError(t, execute(t, "createdb", "--rows", rows))
	return dir
}

func TestExecuteResetsFlags(t *testing.T) {
	t.Setenv("GEODATA_LOG_LEVEL", "error")
	missing := filepath.Join(t.TempDir(), "missing.csv")

	require.Error(t, execute(t, "createdb", "--rows", missing, "--concurrency", "2", "--snapshot", uuid.NewString()))

	rows := createdbCmd.Flags().Lookup("rows")
	assert.False(t, rows.Changed)
	assert.Equal(t, "[]", rows.Value.String())
	assert.Equal(t, "0", createdbCmd.Flags().Lookup("concurrency").Value.String())
	assert.Empty(t, rootCmd.PersistentFlags().Lookup("snapshot").Value.String())
}

func TestCLI_CreatedbAndExport(t *testing.T) {
	dir := setupCLI(t)

	st, err := store.Open(context.Background(), config.StoreConfig{
		Driver:      "sqlite",
		DatabaseURL: filepath.Join(dir, "geodata.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck

	snap, err := st.LatestSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Profiles)
	assert.Equal(t, 3, snap.Vectors)

	out := filepath.Join(dir, "rows.xlsx")
	require.NoError(t, execute(t, "tocsv", "rows", "population", ":income", "-c", "p+ca", "--xlsx", out))

	f, err := xlsx.OpenFile(out)
	require.NoError(t, err)
	sheet := f.Sheet["rows"]
	require.NotNil(t, sheet)
	require.Len(t, sheet.Rows, 3, "header plus two California places")
	assert.Equal(t, "Total population", sheet.Rows[0].Cells[2].String())
	assert.Equal(t, "Alpha city, California", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "$45,000", sheet.Rows[2].Cells[3].String())

	dp := filepath.Join(dir, "dp.xlsx")
	require.NoError(t, execute(t, "tocsv", "dp", "--snapshot", snap.ID.String(), "--xlsx", dp, "Gamma city, Texas"))
	_, err = os.Stat(dp)
	require.NoError(t, err)
}

func TestCLI_Queries(t *testing.T) {
	setupCLI(t)

	tests := []struct {
		name string
		args []string
		err  string
	}{
		{name: "profile", args: []string{"view", "dp", "Beta city, California"}},
		{name: "distance", args: []string{"view", "d", "Alpha city, California", "Beta city, California", "-k"}},
		{name: "similar", args: []string{"view", "gv", "Alpha city, California"}},
		{name: "similar appearance", args: []string{"view", "gva", "Gamma city, Texas"}},
		{name: "closest", args: []string{"view", "cg", "Alpha city, California"}},
		{name: "highest", args: []string{"view", "hv", "population", "-n", "2"}},
		{name: "search", args: []string{"search", "gamma"}},
		{name: "snapshots", args: []string{"snapshots"}},
		{name: "unknown geography", args: []string{"view", "dp", "Omega city, California"}, err: "geodata search"},
		{name: "unknown attribute", args: []string{"view", "lv", "elevation"}, err: "unknown attribute"},
		{name: "bad snapshot", args: []string{"view", "dp", "--snapshot", "nope", "Beta city, California"}, err: "invalid snapshot ID"},
		{name: "missing snapshot", args: []string{"view", "dp", "--snapshot", uuid.NewString(), "Beta city, California"}, err: "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, tt.args...)
			if tt.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
