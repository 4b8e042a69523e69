package main

import (
	"fmt"

	"github.com/miv/backend/internal/infrastructure/catalog"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
)

func newIRISCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iris",
		Short: "Manage the IRIS+ reference catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import",
		Short: "Upsert the embedded IRIS+ catalog by metric code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := openDatabase(cfg, log)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := catalog.Import(cmd.Context(), persistence.NewGormIRISMetricRepository(db.DB), log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d IRIS+ metrics\n", n)
			return nil
		},
	})
	return cmd
}
