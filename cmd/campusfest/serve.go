package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pwannenmacher/campus-fest/internal/handlers"
	"github.com/pwannenmacher/campus-fest/internal/metrics"
	"github.com/pwannenmacher/campus-fest/internal/middleware"
	"github.com/pwannenmacher/campus-fest/internal/scheduler"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the API server. Configuration is read from the environment and an
optional .env file. Pending migrations are applied before the server listens.`,
		RunE: runServe,
	}
	cmd.Flags().String("address", "", "Address to listen on (overrides SERVER_HOST and SERVER_PORT)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatcher, err := newDispatcher(cfg)
	if err != nil {
		return err
	}
	app, err := newApplication(ctx, cfg, dispatcher)
	if err != nil {
		_ = dispatcher.Stop(context.Background())
		return err
	}

	shutdownCtx := func() (context.Context, context.CancelFunc) {
		return context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	}
	defer func() {
		sctx, cancel := shutdownCtx()
		defer cancel()
		app.close(sctx)
	}()

	if err := app.seedAdmin(ctx); err != nil {
		return err
	}

	routerCfg := handlers.RouterConfig{
		Services:    app.services,
		Tokens:      app.tokens,
		CORS:        &cfg.CORS,
		HealthCheck: app.healthCheck,
	}
	if cfg.Metrics.Enabled {
		reg, err := metrics.NewRegistry()
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		routerCfg.Metrics = metrics.Handler(reg)
		routerCfg.MetricsPath = cfg.Metrics.Path
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(&cfg.RateLimit)
		defer limiter.Stop()
		routerCfg.RateLimiter = limiter
	}

	sched := scheduler.NewScheduler(&cfg.Scheduler, app.services.Reminders)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	addr := cfg.Server.Addr()
	if flagAddr, _ := cmd.Flags().GetString("address"); flagAddr != "" {
		addr = flagAddr
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.NewRouter(routerCfg),
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "address", addr, "env", cfg.App.Env, "version", cfg.App.Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Server shutting down")
	sctx, cancel := shutdownCtx()
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}
