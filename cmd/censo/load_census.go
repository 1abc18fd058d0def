package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alorle/censo-escolar/internal/adapter/driven"
	"github.com/alorle/censo-escolar/internal/application"
)

var (
	loadReset     bool
	loadBatchSize int
)

var loadCensusCmd = &cobra.Command{
	Use:   "load-census [--reset] FILE...",
	Short: "Import census CSV files into the store",
	Long: `Import INEP "microdados_ed_basica_YYYY.csv" files. The census year is
taken from the file name; files without one, or that do not exist, are
skipped with a warning. A file that cannot be read is reported and the
remaining files are still loaded. Rows already stored for the same
institution and year are replaced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoadCensus,
}

func init() {
	loadCensusCmd.Flags().BoolVar(&loadReset, "reset", false, "Delete every stored institution before loading")
	loadCensusCmd.Flags().IntVar(&loadBatchSize, "batch-size", application.DefaultImportBatchSize, "Rows written per transaction")
}

func runLoadCensus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	a.openListCache(ctx)

	service := application.NewCensusImportService(driven.NewCensusCSVReader(), a.institutions, a.listCache, a.logger)
	report, err := service.Import(ctx, args, application.ImportOptions{
		Reset:     loadReset,
		BatchSize: loadBatchSize,
	})

	out := cmd.OutOrStdout()
	for _, f := range report.Files {
		switch f.Status {
		case application.FileImported:
			fmt.Fprintf(out, "%s: %d linhas (ano %d)\n", f.Path, f.Rows, f.Year)
		case application.FileSkippedNoYr:
			fmt.Fprintf(out, "%s: ignorado, ano não encontrado no nome do arquivo\n", f.Path)
		case application.FileMissing:
			fmt.Fprintf(out, "%s: ignorado, arquivo não encontrado\n", f.Path)
		case application.FileFailed:
			fmt.Fprintf(out, "%s: ERRO após %d linhas: %v\n", f.Path, f.Rows, f.Err)
		}
	}
	fmt.Fprintf(out, "Total: %d linhas\n", report.Rows)

	return err
}
