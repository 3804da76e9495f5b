package cli

import (
	"fmt"

	"github.com/senyabanana/funding-service/internal/db"
	"github.com/senyabanana/funding-service/internal/router/config"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// MigrateCmd возвращает команду применения миграций базы данных.
func MigrateCmd() *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply (or roll back) database migrations",
		Long: `Apply the SQL migrations from MIGRATION_URL to the Postgres database.
SQLite applies its schema when the database is opened; the memory store has no schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch cfg.StoreDriver {
			case config.StorePostgres:
			case config.StoreSqlite:
				conn, err := db.OpenSqlite(cmd.Context(), cfg.SqlitePath)
				if err != nil {
					return err
				}
				_ = conn.Close()
				fmt.Fprintf(out, "%s sqlite schema applied to %s\n", color.New(color.FgGreen).Sprint("OK"), cfg.SqlitePath)
				return nil
			default:
				fmt.Fprintf(out, "%s store %q has no migrations\n", color.New(color.FgYellow).Sprint("SKIP"), cfg.StoreDriver)
				return nil
			}

			if down {
				if err := db.RollbackMigrations(cfg.MigrationURL, db.ConnString(cfg)); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s migrations rolled back\n", color.New(color.FgGreen).Sprint("OK"))
				return nil
			}

			changed, err := db.RunMigrations(cfg.MigrationURL, db.ConnString(cfg))
			if err != nil {
				return err
			}
			if !changed {
				fmt.Fprintf(out, "%s no change\n", color.New(color.FgYellow).Sprint("OK"))
				return nil
			}
			fmt.Fprintf(out, "%s db migrated successfully\n", color.New(color.FgGreen).Sprint("OK"))
			return nil
		},
	}

	addConfigFlag(cmd)
	cmd.Flags().BoolVar(&down, "down", false, "roll back all migrations")
	return cmd
}
