package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vk/forecastgrid/internal/mockdb"
)

func newSeedDBCmd(g *globalFlags, outW io.Writer) *cobra.Command {
	var (
		csvPath string
		dbPath  string
		opts    = mockdb.DefaultSeedOptions()
	)

	cmd := &cobra.Command{
		Use:   "seed-db",
		Short: "Load a transactions CSV into the mocked SQLite database",
		Long: `Loads an online-retail transactions export into SQLite as a raw table, a
table of cancellations and a processed table without cancellations or the
sales they cancel. The processed table is what ingest_data reads by default.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(outW, g.config())
			if err != nil {
				return err
			}
			stats, err := a.SeedDatabase(cmd.Context(), csvPath, dbPath, opts)
			if err != nil {
				return failure(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: %s=%d %s=%d %s=%d\n", dbPath,
				opts.RawTable, stats.Raw, opts.CancelledTable, stats.Cancelled, opts.ProcessedTable, stats.Processed)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&csvPath, "csv", "", "Transactions CSV export to load.")
	flags.StringVar(&dbPath, "db", "", "SQLite database file to create or replace tables in.")
	flags.StringVar(&opts.RawTable, "raw-table", opts.RawTable, "Table receiving every transaction.")
	flags.StringVar(&opts.CancelledTable, "cancelled-table", opts.CancelledTable, "Table receiving cancellations.")
	flags.StringVar(&opts.ProcessedTable, "processed-table", opts.ProcessedTable, "Table receiving transactions without cancellations.")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("db")
	return cmd
}
