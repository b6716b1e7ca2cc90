package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/geodata/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to a YAML file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, _ := cmd.Flags().GetString("path")
		force, _ := cmd.Flags().GetBool("force")
		return writeConfig(cfg, path, force)
	},
}

// writeConfig saves c to path, refusing to overwrite unless force is set.
func writeConfig(c *config.Config, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return eris.Errorf("config init: %s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(c, path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func init() {
	configInitCmd.Flags().String("path", "config.yaml", "file to write")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
