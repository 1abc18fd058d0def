package main

import (
	"github.com/spf13/cobra"

	"github.com/alorle/censo-escolar/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Print the configuration after the file and environment overrides, with secrets masked.`,
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg.Print()
		return nil
	},
}
