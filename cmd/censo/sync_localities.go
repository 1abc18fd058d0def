package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var syncLocalitiesCmd = &cobra.Command{
	Use:   "sync-localities",
	Short: "Refresh the IBGE territorial tables",
	Long: `Fetch states, mesoregions, microregions and municipalities from the IBGE
localidades API and replace the stored tables. A failing dataset keeps its
previous contents and does not stop the others.`,
	Args: cobra.NoArgs,
	RunE: runSyncLocalities,
}

func runSyncLocalities(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := a.localityService().Sync(cmd.Context())

	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(out, "%s: erro: %v\n", r.Dataset, r.Err)
			continue
		}
		fmt.Fprintf(out, "%s: %d registros\n", r.Dataset, r.Records)
	}
	return err
}
