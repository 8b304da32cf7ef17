package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/pwannenmacher/campus-fest/internal/auth"
	"github.com/pwannenmacher/campus-fest/internal/config"
	"github.com/pwannenmacher/campus-fest/internal/middleware"
	"github.com/pwannenmacher/campus-fest/internal/models"
	"github.com/pwannenmacher/campus-fest/internal/service"
)

// Services bundles the domain services exposed over HTTP
type Services struct {
	Catalog       *service.CatalogService
	Programs      *service.ProgramService
	Registrations *service.RegistrationService
	Scores        *service.ScoreService
	Leaderboard   *service.LeaderboardService
	Reminders     *service.ReminderService
	Public        *service.PublicService
	Auth          *service.AuthService
}

// RouterConfig holds everything NewRouter wires together
type RouterConfig struct {
	Services    Services
	Tokens      *auth.Service
	CORS        *config.CORSConfig
	RateLimiter *middleware.RateLimiter

	// Metrics is mounted at MetricsPath when set
	Metrics     http.Handler
	MetricsPath string

	// HealthCheck reports backing store health; nil means always healthy
	HealthCheck func(ctx context.Context) error
}

// NewRouter builds the HTTP API
func NewRouter(cfg RouterConfig) *chi.Mux {
	svc := cfg.Services
	programs := NewProgramHandler(svc.Programs, svc.Registrations, svc.Scores)
	registrations := NewRegistrationHandler(svc.Registrations)
	scores := NewScoreHandler(svc.Scores)
	catalog := NewCatalogHandler(svc.Catalog, svc.Programs)
	public := NewPublicHandler(svc.Public, svc.Leaderboard)
	reminders := NewReminderHandler(svc.Reminders)
	authHandler := NewAuthHandler(svc.Auth)
	users := NewUserHandler(svc.Auth)
	authMw := middleware.NewAuthMiddleware(cfg.Tokens)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	if cfg.CORS != nil {
		r.Use(middleware.NewCORSMiddleware(cfg.CORS).Handler)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", healthHandler(cfg.HealthCheck))
	if cfg.Metrics != nil && cfg.MetricsPath != "" {
		r.Handle(cfg.MetricsPath, cfg.Metrics)
	}

	r.Route(APIBasePath, func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", authHandler.Login)
		r.Get("/events", catalog.ListEvents)
		r.Get("/events/{id}", catalog.GetEvent)
		r.Get("/events/{id}/programs", catalog.ListEventPrograms)
		r.Get("/programs", programs.ListPrograms)
		r.Get("/programs/{id}", programs.GetProgram)
		r.Route("/public", func(r chi.Router) {
			r.Get("/schedule", public.Schedule)
			r.Get("/stats", public.Stats)
			r.Get("/leaderboard/colleges", public.CollegeLeaderboard)
			r.Get("/leaderboard/students", public.StudentLeaderboard)
			r.Get("/programs/{id}/results", public.ProgramResults)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMw.Authenticate)

			r.Get("/auth/me", authHandler.Me)
			r.Get("/colleges", catalog.ListColleges)
			r.Get("/colleges/{id}", catalog.GetCollege)
			r.Get("/programs/{id}/registrations", programs.ListRegistrations)
			r.Get("/registrations/{id}", registrations.GetRegistration)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleEventAdmin))
				r.Post("/events", catalog.CreateEvent)
				r.Put("/events/{id}", catalog.UpdateEvent)
				r.Post("/colleges", catalog.CreateCollege)
				r.Post("/programs", programs.CreateProgram)
				r.Patch("/programs/{id}", programs.UpdateProgram)
				r.Post("/programs/{id}/cancel", programs.CancelProgram)
				r.Post("/programs/{id}/publish", programs.PublishResults)
				r.Post("/programs/{id}/recompute", programs.Recompute)
				r.Post("/programs/{id}/reminders", reminders.TriggerProgram)
				r.Post("/reminders", reminders.TriggerAll)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleEventAdmin, models.RoleCoordinator, models.RoleRegistration))
				r.Get("/colleges/{id}/programs", catalog.CollegePrograms)
				r.Get("/students", catalog.ListStudents)
				r.Post("/students", catalog.CreateStudent)
				r.Get("/students/{id}", catalog.GetStudent)
				r.Get("/students/{id}/registrations", registrations.ListByStudent)
				r.Post("/registrations", registrations.Register)
				r.Post("/registrations/{id}/cancel", registrations.CancelRegistration)
				r.Put("/registrations/{id}/participants", registrations.UpdateParticipants)
				r.Delete("/registrations/{id}", registrations.DeleteRegistration)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleEventAdmin, models.RoleCoordinator, models.RoleRegistration, models.RoleProgramReporting))
				r.Patch("/registrations/{id}/status", registrations.UpdateStatus)
				r.Post("/registrations/{id}/report", registrations.Report)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleEventAdmin, models.RoleScoring))
				r.Post("/programs/{id}/scores", scores.SubmitScore)
				r.Get("/registrations/{id}/scores", scores.ListScores)
			})

			// super admins only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole())
				r.Get("/users", users.ListUsers)
				r.Post("/users", users.CreateUser)
				r.Get("/users/{id}", users.GetUser)
			})
		})
	})

	return r
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				slog.Error("Health check failed", "error", err)
				JSONResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
				return
			}
		}
		JSONResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}
