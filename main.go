// This is the main entry point of the notebook service.
// It loads configuration, wires the stores and services, and either serves
// the HTTP API or runs schema migrations.
//
// @title Notebook API
// @version 1.0
// @description Personal notes with per-user ownership, behind bearer-token authentication.
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/user/notebook-go/config"
	"github.com/user/notebook-go/db"
	"github.com/user/notebook-go/logging"
	"github.com/user/notebook-go/server"
)

func main() {
	// Load .env files. Missing files are fine: production sets the
	// environment directly.
	for _, f := range []string{".env", ".env.local"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			logrus.WithError(err).Warnf("failed to load %s", f)
		}
	}

	app := &cli.App{
		Name:  "notebook",
		Usage: "multi-user notes API",
		// Running without a command serves the API.
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back database migrations",
				Subcommands: []*cli.Command{
					{
						Name:   db.MigrateUp,
						Usage:  "apply all pending migrations",
						Action: migrate(db.MigrateUp),
					},
					{
						Name:   db.MigrateDown,
						Usage:  "roll back all migrations",
						Action: migrate(db.MigrateDown),
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("notebook exited with an error")
	}
}

// setup loads configuration and builds the process logger.
func setup() (*config.AppConfig, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Log, nil)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func migrate(direction string) cli.ActionFunc {
	return func(*cli.Context) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		if cfg.DB == nil {
			return fmt.Errorf("migrations need STORE_BACKEND=%s", config.StoreBackendPostgres)
		}
		if err := db.RunMigrations(cfg.DB, direction); err != nil {
			return err
		}
		logger.WithField("direction", direction).Info("migrations complete")
		return nil
	}
}

func serve(c *cli.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := server.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      application.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
