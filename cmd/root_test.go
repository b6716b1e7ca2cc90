package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"createdb", "view", "search", "tocsv", "snapshots", "config"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "geodata", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("snapshot"))
}

func TestViewCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range viewCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"dp", "gv", "gva", "hv", "lv", "cg", "d"} {
		assert.True(t, names[name], "view should have subcommand %q", name)
	}
}

func TestTocsvCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range tocsvCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["rows"])
	assert.True(t, names["dp"])
}

func TestCreatedbCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"rows", "counties", "place-counties", "gazetteer", "shapefile", "encoding", "concurrency"} {
		assert.NotNil(t, createdbCmd.Flags().Lookup(flagName), "createdb should have --%s flag", flagName)
	}
}

func TestQueryCommand_Flags(t *testing.T) {
	tests := []struct {
		name      string
		flags     []string
		noFilters bool
	}{
		{name: "gv", flags: []string{"context", "n"}, noFilters: true},
		{name: "gva", flags: []string{"context", "n"}, noFilters: true},
		{name: "hv", flags: []string{"context", "filter", "n", "kind"}},
		{name: "lv", flags: []string{"context", "filter", "n", "kind"}},
		{name: "cg", flags: []string{"context", "filter", "n", "kilometers"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, err := viewCmd.Find([]string{tt.name})
			require.NoError(t, err)
			for _, f := range tt.flags {
				assert.NotNil(t, cmd.Flags().Lookup(f), "--%s", f)
			}
			if tt.noFilters {
				assert.Nil(t, cmd.Flags().Lookup("filter"))
			}
		})
	}

	flag := viewDCmd.Flags().ShorthandLookup("k")
	require.NotNil(t, flag)
	assert.Equal(t, "kilometers", flag.Name)
}
