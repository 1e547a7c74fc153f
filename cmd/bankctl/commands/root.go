package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/ledgerbank/backend/internal/config"
	"github.com/ledgerbank/backend/internal/database"
	"github.com/ledgerbank/backend/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "bankctl",
	Short: "Operator tooling for the LedgerBank backend",
	Long: `bankctl runs administrative tasks against the configured PostgreSQL database.

Configuration is read the same way as the server: an optional .env file,
then environment variables (DATABASE_HOST, DATABASE_NAME, JWT_SECRET_KEY, ...).`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// env holds what every command needs once configuration is resolved.
type env struct {
	cfg *config.Config
	log zerolog.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	} else {
		cfg.Log.Level = "warn"
	}
	cfg.Log.Format = "console"
	return &env{cfg: cfg, log: logger.New(cfg.Log)}, nil
}

func (e *env) openDB(ctx context.Context) (*sql.DB, error) {
	if e.cfg.Storage.Driver != config.DriverPostgres {
		return nil, fmt.Errorf("bankctl needs STORAGE_DRIVER=%s, got %q", config.DriverPostgres, e.cfg.Storage.Driver)
	}
	return database.InitDB(ctx, e.cfg.Database, e.log)
}
