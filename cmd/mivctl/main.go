// Command mivctl is the operator CLI: schema migrations, demo data and the
// IRIS+ reference catalog.
package main

import (
	"fmt"
	"os"

	"github.com/miv/backend/internal/infrastructure/config"
	"github.com/miv/backend/internal/infrastructure/logger"
	"github.com/miv/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	logLevel string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "mivctl",
		Short: "Operator tooling for the MIV Platform backend",
		Long: `mivctl manages the MIV Platform database.

Configuration is read the same way as the server: config.toml overridden by
MIV_ environment variables (e.g. MIV_DATABASE_HOST).`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		newMigrateCommand(opts),
		newSeedCommand(opts),
		newIRISCommand(opts),
	)
	return root
}

// setup loads the configuration and builds a console logger
func (o *globalOptions) setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}
	log, err := logger.New(&logger.Config{
		Level:      o.logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}

// openDatabase connects through gorm. sqlite databases are auto-migrated on
// open, so seeding works without running the SQL migrations first.
func openDatabase(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	db, err := persistence.NewDatabase(&cfg.Database, log.Named("gorm"))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}
