package main

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/miv/backend/internal/infrastructure/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "github.com/lib/pq"
)

// errSQLiteMigrations is returned for migrate subcommands on the sqlite driver
var errSQLiteMigrations = errors.New("sqlite schemas are managed by gorm AutoMigrate; migrations target postgres")

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the SQL schema migrations",
	}

	var dir string
	create := &cobra.Command{
		Use:   "create NAME",
		Short: "Write the next empty up/down migration pair",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mf, err := migration.CreateMigration(dir, args[0], time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mf.UpPath)
			fmt.Fprintln(cmd.OutOrStdout(), mf.DownPath)
			return nil
		},
	}
	create.Flags().StringVar(&dir, "dir", "migrations", "migrations directory")

	cmd.AddCommand(
		migrateAction(opts, "up", "Apply all pending migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() }),
		migrateAction(opts, "down", "Roll back every migration", cobra.NoArgs,
			func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() }),
		migrateAction(opts, "steps N", "Apply N migrations, or roll back when N is negative", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string, _ *zap.Logger) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		migrateAction(opts, "version", "Print the applied schema version", cobra.NoArgs,
			func(m *migration.Migrator, _ []string, log *zap.Logger) error {
				version, dirty, err := m.Version()
				if err != nil {
					return err
				}
				log.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
				return nil
			}),
		migrateAction(opts, "force V", "Set the schema version without running migrations", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string, _ *zap.Logger) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		create,
	)
	return cmd
}

// migrateAction builds a subcommand that runs fn on a connected Migrator
func migrateAction(
	opts *globalOptions,
	use, short string,
	args cobra.PositionalArgs,
	fn func(m *migration.Migrator, args []string, log *zap.Logger) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if cfg.Database.IsSQLite() {
				return errSQLiteMigrations
			}

			db, err := sql.Open("postgres", cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()
			if err := db.PingContext(cmd.Context()); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}

			m, err := migration.New(db, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := m.Close(); err != nil {
					log.Warn("Failed to close migrator", zap.Error(err))
				}
			}()
			return fn(m, args, log)
		},
	}
}
