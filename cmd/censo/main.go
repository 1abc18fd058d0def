// Command censo serves the school census explorer API, loads INEP census
// files and IBGE localities into its store, and runs the terminal explorer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "censo",
	Short: "Brazilian school census explorer",
	Long: `censo stores the INEP school census microdata per institution and year
and serves it over a REST API, together with the IBGE territorial tables
and the states GeoJSON used by the map.

Commands:
  serve            - Run the HTTP API and the front-end
  load-census      - Import census CSV files into the store
  sync-localities  - Refresh the IBGE territorial tables
  explore          - Browse and edit records from the terminal
  config           - Print the effective configuration`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $CONFIG_FILE or config.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(loadCensusCmd)
	rootCmd.AddCommand(syncLocalitiesCmd)
	rootCmd.AddCommand(exploreCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
