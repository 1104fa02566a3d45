package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/deppfellow/go-items/internal/config"
	"github.com/deppfellow/go-items/internal/database"
	"github.com/deppfellow/go-items/internal/handler"
	"github.com/deppfellow/go-items/internal/logger"
	"github.com/deppfellow/go-items/internal/repository"
	"github.com/deppfellow/go-items/internal/router"
	"github.com/deppfellow/go-items/internal/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var (
	version  = "dev"
	revision = "none"
)

func main() {
	c := &cobra.Command{
		Use:           "items",
		Short:         "Items CRUD service backed by PostgreSQL",
		Version:       fmt.Sprintf("%s - build %.7s - %s", version, revision, runtime.Version()),
		Args:          cobra.ExactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.AddCommand(serveCmd)
	c.AddCommand(seedCmd)

	if err := c.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return errors.Wrap(err, "could not load config")
			}

			loggerService := logger.NewLoggerService(cfg.Observability)
			log := logger.NewLoggerWithService(cfg.Observability, loggerService)

			srv, err := server.New(cfg, &log, loggerService)
			if err != nil {
				loggerService.Shutdown()
				return errors.Wrap(err, "could not initialize server")
			}

			repos := repository.NewRepositories(srv)
			handlers := handler.NewHandlers(srv, repos.Items, srv.DB)
			srv.SetupHTTPServer(router.NewRouter(srv, handlers))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			serveErr := make(chan error, 1)
			go func() {
				serveErr <- srv.Start()
			}()

			select {
			case err := <-serveErr:
				// The listener failed before any shutdown was requested.
				_ = srv.Shutdown(context.Background())
				return errors.Wrap(err, "could not run server")
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errors.Wrap(err, "could not shut down cleanly")
			}

			log.Info().Msg("server exited properly")
			return nil
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create the database and table if missing, then upsert the initial items",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return errors.Wrap(err, "could not load config")
			}

			log := logger.NewLogger(cfg.Observability)

			if err := database.Bootstrap(cmd.Context(), &log, cfg); err != nil {
				log.Error().Err(err).Msg("database initialization failed")
				return err
			}

			log.Info().Msg("database initialization completed")
			return nil
		},
	}
)
