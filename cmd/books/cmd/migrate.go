package cmd

import (
	"fmt"
	"log/slog"

	"github.com/SscSPs/org_books/internal/platform/config"
	"github.com/SscSPs/org_books/pkg/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Long: `Apply every pending "up" migration from MIGRATIONS_PATH.

Example:
  books migrate`,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg.LogLevel)

	logger.Info("Running database migrations...", slog.String("source", cfg.MigrationsPath))
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}
	return nil
}
