package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/pwannenmacher/campus-fest/internal/auth"
	"github.com/pwannenmacher/campus-fest/internal/config"
	"github.com/pwannenmacher/campus-fest/internal/database"
	"github.com/pwannenmacher/campus-fest/internal/handlers"
	"github.com/pwannenmacher/campus-fest/internal/notify"
	"github.com/pwannenmacher/campus-fest/internal/ranking"
	"github.com/pwannenmacher/campus-fest/internal/repository"
	"github.com/pwannenmacher/campus-fest/internal/repository/memory"
	"github.com/pwannenmacher/campus-fest/internal/service"
	"github.com/pwannenmacher/campus-fest/migrations"
)

// application holds the wired object graph shared by the subcommands
type application struct {
	cfg        *config.Config
	db         *database.Database // nil with the memory driver
	repos      *repository.Repositories
	tokens     *auth.Service
	dispatcher *notify.Dispatcher // nil for one-shot commands
	services   handlers.Services
}

// openStore connects to the configured backing store
func openStore(ctx context.Context, cfg *config.Config) (*database.Database, *repository.Repositories, error) {
	if cfg.Database.Driver == "memory" {
		slog.Warn("Using in-memory store; data is lost on restart")
		return nil, memory.New(), nil
	}

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("Database connection established", "host", cfg.Database.Host, "name", cfg.Database.Name)
	return db, repository.NewPostgres(db.DB), nil
}

// migrationFS returns the configured migrations directory or the embedded files
func migrationFS(cfg *config.DatabaseConfig) fs.FS {
	if cfg.MigrationsPath != "" {
		return os.DirFS(cfg.MigrationsPath)
	}
	return migrations.FS
}

func runMigrations(ctx context.Context, db *database.Database, cfg *config.DatabaseConfig) error {
	applied, err := database.NewMigrationExecutor(db.DB).Run(ctx, migrationFS(cfg))
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed", "applied", applied)
	return nil
}

// newApplication opens the store, applies migrations and builds the services.
// A nil dispatcher disables notifications.
func newApplication(ctx context.Context, cfg *config.Config, dispatcher *notify.Dispatcher) (*application, error) {
	db, repos, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		if err := runMigrations(ctx, db, &cfg.Database); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	points, err := ranking.NewPointTable(cfg.Points.Group, cfg.Points.Single, cfg.Points.Student)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("invalid point table: %w", err)
	}

	app := &application{
		cfg:        cfg,
		db:         db,
		repos:      repos,
		tokens:     auth.NewService(&cfg.JWT),
		dispatcher: dispatcher,
	}

	var notifier notify.Notifier = notify.Nop{}
	if dispatcher != nil {
		notifier = dispatcher
	}

	scores := service.NewScoreService(repos)
	app.services = handlers.Services{
		Catalog:  service.NewCatalogService(repos),
		Programs: service.NewProgramService(repos, scores, notifier),
		Registrations: service.NewRegistrationService(repos, scores, notifier, service.RegistrationOptions{
			ChestNumberStrategy: cfg.Registration.ChestNumberStrategy,
			ChestNumberPrefix:   cfg.Registration.ChestNumberPrefix,
		}),
		Scores:      scores,
		Leaderboard: service.NewLeaderboardService(repos, points),
		Reminders:   service.NewReminderService(repos, notifier),
		Public:      service.NewPublicService(repos),
		Auth:        service.NewAuthService(repos.Users, app.tokens),
	}

	return app, nil
}

// newDispatcher builds the configured senders and starts the delivery workers
func newDispatcher(cfg *config.Config) (*notify.Dispatcher, error) {
	var senders []notify.Sender
	for _, channel := range cfg.Notifier.Channels {
		switch channel {
		case "log":
			senders = append(senders, notify.LogSender{})
		case "email":
			senders = append(senders, notify.NewEmailSender(&cfg.Email))
		case "telegram":
			tg, err := notify.NewTelegramSender(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
			if err != nil {
				return nil, fmt.Errorf("failed to set up telegram notifications: %w", err)
			}
			senders = append(senders, tg)
		}
	}

	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		QueueSize:   cfg.Notifier.QueueSize,
		Workers:     cfg.Notifier.Workers,
		MaxAttempts: cfg.Notifier.MaxAttempts,
	}, senders...)
	dispatcher.Start()

	slog.Info("Notifications enabled", "channels", cfg.Notifier.Channels)
	return dispatcher, nil
}

// seedAdmin creates the configured super admin on first start
func (a *application) seedAdmin(ctx context.Context) error {
	admin := a.cfg.Admin
	if admin.Email == "" || admin.Password == "" {
		return nil
	}
	created, err := a.services.Auth.SeedAdmin(ctx, admin.Email, admin.Password, admin.Name)
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if created {
		slog.Info("Super admin created", "email", admin.Email)
	}
	return nil
}

func (a *application) healthCheck(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.HealthCheck(ctx)
}

// close stops the notifier and releases the database
func (a *application) close(ctx context.Context) {
	if a.dispatcher != nil {
		if err := a.dispatcher.Stop(ctx); err != nil {
			slog.Error("Failed to drain notifications", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}
}
