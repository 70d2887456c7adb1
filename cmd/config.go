package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/intothedarkness/ScrCpyHelper/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		path := configPath
		if path == "" {
			path = config.ConfigPath()
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config file: %s\n\n", path)
		fmt.Fprint(out, string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
