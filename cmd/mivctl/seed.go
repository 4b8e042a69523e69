package main

import (
	"fmt"

	"github.com/miv/backend/internal/infrastructure/catalog"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/miv/backend/internal/infrastructure/seed"
	"github.com/spf13/cobra"
)

func newSeedCommand(opts *globalOptions) *cobra.Command {
	var seedOpts seed.Options
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with generated demo data",
		Long: `seed imports the IRIS+ catalog and writes an admin account, a few staff
users, ventures with GEDSI metrics and one sample workflow. Re-running it
adds more ventures; the admin account is only created once.`,
		Args: cobra.NoArgs,
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

			ctx := cmd.Context()
			irisRepo := persistence.NewGormIRISMetricRepository(db.DB)
			if _, err := catalog.Import(ctx, irisRepo, log); err != nil {
				return err
			}

			seeder := seed.New(seed.Repositories{
				Users:      persistence.NewGormUserRepository(db.DB),
				Ventures:   persistence.NewGormVentureRepository(db.DB),
				Metrics:    persistence.NewGormGEDSIMetricRepository(db.DB),
				IRIS:       irisRepo,
				Activities: persistence.NewGormActivityRepository(db.DB),
				Workflows:  persistence.NewGormWorkflowRepository(db.DB),
			}, seedOpts.Seed, log)
			res, err := seeder.Run(ctx, seedOpts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "users=%d ventures=%d metrics=%d activities=%d workflows=%d\n",
				res.Users, res.Ventures, res.Metrics, res.Activities, res.Workflows)
			return nil
		},
	}
	cmd.Flags().IntVar(&seedOpts.Ventures, "ventures", 20, "number of ventures to generate")
	cmd.Flags().StringVar(&seedOpts.AdminEmail, "admin-email", "admin@miv.local", "email of the admin account")
	cmd.Flags().StringVar(&seedOpts.AdminPassword, "admin-password", "changeme123", "password of the admin account")
	cmd.Flags().Uint64Var(&seedOpts.Seed, "seed", 0, "random seed for reproducible data (0 picks one)")
	return cmd
}
