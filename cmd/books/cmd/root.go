// Package cmd provides the commands of the books CLI.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	portssvc "github.com/SscSPs/org_books/internal/core/ports/services"
	"github.com/SscSPs/org_books/internal/core/services"
	"github.com/SscSPs/org_books/internal/middleware"
	"github.com/SscSPs/org_books/internal/platform/config"
	"github.com/SscSPs/org_books/internal/repositories/database/pgsql"
	"github.com/SscSPs/org_books/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var debug bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "books",
	Short: "Generate and audit the organization's journal",
	Long: `books builds the double-entry journal from the organization's sales,
invoices, expense claims and expense transactions, and reports on its health.

Configuration is read from the environment and an optional .env file.

Example:
  books migrate
  books seed-accounts
  books regenerate --dry-run
  books unbalanced
  books serve`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
// Interrupts cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedAccountsCmd)
	rootCmd.AddCommand(regenerateCmd)
	rootCmd.AddCommand(dbcheckCmd)
	rootCmd.AddCommand(unbalancedCmd)
	rootCmd.AddCommand(serveCmd)
}

// app holds what every database-backed command needs.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	services *portssvc.ServiceContainer
}

// newLogger builds the process logger writing JSON to stderr.
func newLogger(level slog.Level) *slog.Logger {
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// loadApp reads the configuration and connects to the database. The caller
// must call close.
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg.LogLevel)

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		return nil, err
	}

	repos := pgsql.NewRepositoryProvider(pool)
	return &app{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		services: services.NewServiceContainer(cfg, repos),
	}, nil
}

func (a *app) close() {
	database.ClosePgxPool(a.pool, a.logger)
}

// context returns ctx carrying the application logger for the services.
func (a *app) context(ctx context.Context) context.Context {
	return middleware.WithLogger(ctx, a.logger)
}

// printJSON writes v to w as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
