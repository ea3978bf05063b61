package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/meetupbot/meetupbot/internal/auth"
	"github.com/meetupbot/meetupbot/internal/handler"
	"github.com/meetupbot/meetupbot/internal/middleware"
)

// RouterConfig carries everything the HTTP routes are built from.
type RouterConfig struct {
	Logger *slog.Logger

	Root    *handler.Handler
	Health  *handler.HealthHandler
	Meetups *handler.MeetupHandler
	Metrics *handler.MetricsHandler
	// Webhook is optional; the GitHub route is only mounted when set.
	Webhook *handler.WebhookHandler

	Auth      middleware.AuthConfig
	RateLimit middleware.RateLimitConfig
	// RobotEnvs restricts which robot key environments may submit.
	// Empty accepts every environment.
	RobotEnvs []string

	Development        bool
	CORSAllowedOrigins []string
	MaxRequestBodySize int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger, cfg.Development))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.Development}))
	if len(cfg.CORSAllowedOrigins) > 0 {
		corsCfg := middleware.DefaultCORSConfig()
		corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
		r.Use(middleware.CORS(corsCfg))
	}
	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	}

	// Health endpoints
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}

	r.Get("/", cfg.Root.Hello)

	robotOnly := []func(http.Handler) http.Handler{middleware.Auth(cfg.Auth)}
	if len(cfg.RobotEnvs) > 0 {
		robotOnly = append(robotOnly, middleware.RequireRobotEnv(cfg.RobotEnvs...))
	}
	robotOnly = append(robotOnly, middleware.RateLimitRobot(cfg.RateLimit))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/meetups", func(r chi.Router) {
			r.With(middleware.RateLimitIP(cfg.RateLimit)).Post("/", cfg.Meetups.Submit)
			r.With(robotOnly...).Post("/robot", cfg.Meetups.SubmitRobot)
			r.Post("/parse", cfg.Meetups.Parse)
			r.Post("/render", cfg.Meetups.Render)
		})

		r.Route("/issues/{number}", func(r chi.Router) {
			r.Get("/meetup", cfg.Meetups.IssueMeetup)
			r.Get("/pull-request", cfg.Meetups.PullRequest)
			r.Get("/calendar.ics", cfg.Meetups.Calendar)
		})

		r.With(robotOnly...).Get("/submissions", cfg.Meetups.ListSubmissions)
	})

	if cfg.Webhook != nil {
		r.Post("/webhooks/github", cfg.Webhook.GitHub)
	}

	r.NotFound(cfg.Root.NotFound)
	r.MethodNotAllowed(cfg.Root.MethodNotAllowed)

	return r
}

// ProductionRobotEnvs lists the key environments accepted in production.
var ProductionRobotEnvs = []string{auth.EnvLive}
