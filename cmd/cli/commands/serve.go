package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/services"
	"github.com/jakechorley/residency-scheduler/pkg/db"
	"github.com/jakechorley/residency-scheduler/pkg/engine"
	"github.com/jakechorley/residency-scheduler/pkg/postgres"
	"github.com/jakechorley/residency-scheduler/pkg/server"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd creates the serve command
func ServeCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the schedule service API",
		Long:  `Runs the /v1 schedule service API. Data is kept in PostgreSQL when server.databaseURL is set, otherwise in memory.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openStore(ctx, app)
			if err != nil {
				return err
			}
			defer closeStore()

			complianceCfg, err := services.BuildComplianceConfig(app.Cfg.Compliance, app.Logger)
			if err != nil {
				return err
			}

			eng := engine.New(store, app.Logger, engine.Options{Compliance: complianceCfg})

			handler, err := server.New(server.Config{
				Engine:    eng,
				JWTSecret: app.Cfg.Server.JWTSecret,
				Logger:    app.Logger,
			})
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			srv := &http.Server{
				Addr:              app.Cfg.ListenAddr(),
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("Schedule service listening", zap.String("addr", srv.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server stopped: %w", err)
			case <-ctx.Done():
			}

			app.Logger.Info("Shutting down schedule service")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		},
	}
}

// openStore connects the configured store and loads the seed file into it
func openStore(ctx context.Context, app *AppContext) (db.Store, func(), error) {
	var seed *db.Seed
	if app.Cfg.Server.SeedFile != "" {
		var err error
		seed, err = db.LoadSeed(app.Cfg.Server.SeedFile)
		if err != nil {
			return nil, nil, err
		}
	}

	if app.Cfg.Server.DatabaseURL == "" {
		app.Logger.Info("Using in-memory store")
		store := db.NewMemoryStore()
		if seed != nil {
			if err := store.Load(ctx, seed); err != nil {
				return nil, nil, fmt.Errorf("failed to load seed: %w", err)
			}
		}
		return store, func() {}, nil
	}

	app.Logger.Info("Connecting to database")
	pg, err := postgres.NewDB(ctx, app.Cfg.Server.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	if err := pg.RunMigrations(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}

	if seed != nil {
		app.Logger.Info("Loading seed", zap.String("file", app.Cfg.Server.SeedFile))
		if err := pg.LoadSeed(ctx, seed); err != nil {
			pg.Close()
			return nil, nil, err
		}
	}

	return pg, pg.Close, nil
}
