package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/org_books/internal/handlers"
	"github.com/SscSPs/org_books/internal/middleware"
	"github.com/SscSPs/org_books/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the journal reporting API",
	Long: `Apply pending migrations and serve the journal reporting API on PORT.

Example:
  books serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	logger.Info("Running database migrations...")
	if err := database.RunMigrations(a.cfg.DatabaseURL, a.cfg.MigrationsPath, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		return err
	}

	if a.cfg.EnableDBCheck {
		report, err := a.services.Journal.DBCheck(a.context(ctx))
		if err != nil {
			logger.Error("Startup database check failed", slog.String("error", err.Error()))
			return err
		}
		for _, f := range report.Findings {
			logger.Warn("Database check finding",
				slog.String("kind", f.Kind),
				slog.String("reference", f.Reference),
				slog.String("problem", f.Problem))
		}
		logger.Info("Startup database check finished",
			slog.Int("entries", report.CheckedEntries),
			slog.Int("roots", report.CheckedRoots),
			slog.Int("records", report.CheckedRecords),
			slog.Int("findings", len(report.Findings)))
	}

	if a.cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		return err
	}

	if err := handlers.RegisterRoutes(r, a.cfg, a.services); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		return err
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", a.cfg.Port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}
