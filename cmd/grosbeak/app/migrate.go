package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/citruscircuits/grosbeak/database"
	"github.com/citruscircuits/grosbeak/internal/config"
	"github.com/citruscircuits/grosbeak/internal/sources"
)

// errMigrationCancelled is returned when the user declines a destructive migration
var errMigrationCancelled = errors.New("migration cancelled by user")

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Database migration tool for managing schema versions. Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	cmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	cmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate down (0 = all)")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := cmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply all pending database migrations to bring the schema up to date.
The database is read from the storage section of the config file.`,
		RunE: runMigrateUp,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Migrate the database schema down by reverting migrations.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  grosbeak migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way (WARNING: destroys all data)
  grosbeak migrate down --config config.yaml --yes`,
		RunE: runMigrateDown,
	})
	return cmd
}

// migrator applies schema changes to one configured database
type migrator struct {
	database.Migrator
	close func()
}

func newMigrator(cmd *cobra.Command, cfg *config.Config) (*migrator, error) {
	switch cfg.GetStorageType() {
	case config.StorageTypePostgres:
		if cfg.Storage.Database == nil {
			return nil, fmt.Errorf("storage.database is required for postgres storage")
		}
		connString, err := cfg.Storage.Database.GetConnectionString()
		if err != nil {
			return nil, fmt.Errorf("failed to build connection string: %w", err)
		}
		m, err := database.NewFromConnectionString(connString)
		if err != nil {
			return nil, err
		}
		return &migrator{
			Migrator: m,
			close: func() {
				if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
					slog.Error("Error closing migrator", "error", errors.Join(srcErr, dbErr))
				}
			},
		}, nil
	case config.StorageTypeSQLite:
		// opening applies pending migrations already
		store, err := sources.OpenSQLite(commandContext(cmd), cfg.Storage.SQLite.Path, cfg.Storage.SQLite.GetBusyTimeout())
		if err != nil {
			return nil, err
		}
		// closing the store closes the handle the migrator runs on
		m, err := database.NewSQLite(store.DB())
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		return &migrator{
			Migrator: m,
			close: func() {
				if err := store.Close(); err != nil {
					slog.Error("Error closing database", "error", err)
				}
			},
		}, nil
	default:
		return nil, fmt.Errorf("storage type %s has no schema to migrate", cfg.GetStorageType())
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := newMigrator(cmd, cfg)
	if err != nil {
		return err
	}
	defer m.close()

	slog.Info("Applying database migrations", "storage", cfg.GetStorageType())
	if err := database.MigrateUp(m); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	reportVersion(cmd, m)
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}
	if err := confirmMigrateDown(cmd, numSteps); err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := newMigrator(cmd, cfg)
	if err != nil {
		return err
	}
	defer m.close()

	if numSteps == 0 {
		slog.Warn("Migrating down all steps - this will remove all schema!")
	} else {
		slog.Info("Migrating down", "steps", numSteps)
	}
	if err := database.MigrateDown(m, int(numSteps)); err != nil { //nolint:gosec // step counts are tiny
		return fmt.Errorf("migration failed: %w", err)
	}
	reportVersion(cmd, m)
	return nil
}

func reportVersion(cmd *cobra.Command, m *migrator) {
	version, err := database.CurrentVersion(m)
	if err != nil {
		slog.Warn("Unable to get migration version", "error", err)
		return
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
}

func confirmMigrateDown(cmd *cobra.Command, numSteps uint) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	if yes {
		return nil
	}

	prompt := "WARNING: This will migrate down ALL steps and may result in complete data loss. Continue?"
	if numSteps > 0 {
		prompt = fmt.Sprintf("WARNING: This will migrate down %d step(s) and may result in data loss. Continue?", numSteps)
	}
	if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
		return errMigrationCancelled
	}
	return nil
}

// confirm asks a yes/no question on in and out
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprintf(out, "%s (yes/no): ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}
