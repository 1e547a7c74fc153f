package commands

import (
	"fmt"

	"github.com/ledgerbank/backend/internal/database"
	"github.com/spf13/cobra"
)

var printSchema bool

// migrateCmd applies the embedded schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Long: `Apply the embedded schema to the configured database. Every statement is
idempotent, so running migrate against an up-to-date database is a no-op.

Examples:
  bankctl migrate            # Apply the schema
  bankctl migrate --print    # Print the DDL without connecting`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if printSchema {
			_, err := fmt.Fprint(cmd.OutOrStdout(), database.Schema())
			return err
		}

		e, err := loadEnv()
		if err != nil {
			return err
		}
		db, err := e.openDB(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := database.Migrate(cmd.Context(), db); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&printSchema, "print", false, "Print the schema instead of applying it")
}
