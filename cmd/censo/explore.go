package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/alorle/censo-escolar/client"
	"github.com/alorle/censo-escolar/internal/tui"
)

var exploreAPI string

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Browse and edit records from the terminal",
	Long: `Open the terminal explorer against a running censo server: pick a state,
filter its institutions by year or name, and add, edit or delete records.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return tui.Run(cmd.Context(), client.New(exploreAPI))
	},
}

func init() {
	defaultAPI := os.Getenv("CENSO_API_URL")
	if defaultAPI == "" {
		defaultAPI = client.DefaultBaseURL
	}
	exploreCmd.Flags().StringVar(&exploreAPI, "api", defaultAPI, "Base URL of the censo server (or set CENSO_API_URL)")
}
