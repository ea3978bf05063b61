// Package main is the entrypoint for the meetupbot API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/meetupbot/meetupbot/internal/auth"
	"github.com/meetupbot/meetupbot/internal/cache"
	"github.com/meetupbot/meetupbot/internal/config"
	"github.com/meetupbot/meetupbot/internal/handler"
	"github.com/meetupbot/meetupbot/internal/metrics"
	"github.com/meetupbot/meetupbot/internal/middleware"
	"github.com/meetupbot/meetupbot/internal/repository"
	"github.com/meetupbot/meetupbot/internal/server"
	"github.com/meetupbot/meetupbot/internal/service"
	"github.com/meetupbot/meetupbot/internal/tracker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server_error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	owner, repoName, err := cfg.RepositoryOwnerAndName()
	if err != nil {
		return err
	}
	hashes, err := cfg.RobotKeyHashes()
	if err != nil {
		return err
	}
	keyring, err := auth.NewKeyring(hashes)
	if err != nil {
		return err
	}
	if keyring.Len() == 0 {
		logger.Warn("robot_keys_missing", slog.String("hint", "robot submissions will be rejected"))
	}

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database_connect_failed",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		return errConnect("postgres")
	}
	logger.Info("database_connected")

	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		repo.Close()
		logger.Error("redis_connect_failed",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		return errConnect("redis")
	}
	logger.Info("redis_connected")

	metricsRecorder := metrics.NewInMemory()

	issues := tracker.NewClient(tracker.Config{
		BaseURL: cfg.GitHubAPIURL,
		Token:   cfg.GitHubToken,
		Owner:   owner,
		Repo:    repoName,
		Timeout: cfg.TrackerTimeout,
		Logger:  logger,
	})

	meetupService := service.NewMeetupService(service.MeetupServiceConfig{
		Tracker:    issues,
		Store:      repo,
		Cache:      cacheClient,
		Metrics:    metricsRecorder,
		Logger:     logger,
		Location:   loc,
		Labels:     cfg.IssueLabels,
		Repository: issues.Repository(),
		CacheTTL:   cfg.MeetupCacheTTL,
		Duration:   cfg.MeetupDuration,
	})

	health := handler.NewHealthHandler(logger,
		handler.HealthCheck{Name: "postgres", Checker: repo},
		handler.HealthCheck{Name: "redis", Checker: cacheClient},
	)

	routerCfg := server.RouterConfig{
		Logger:  logger,
		Root:    handler.New(issues.Repository(), cfg.MeetupTimezone),
		Health:  health,
		Meetups: handler.NewMeetupHandler(meetupService, logger),
		Metrics: handler.NewMetricsHandler(metricsRecorder),
		Auth: middleware.AuthConfig{
			Logger:  logger,
			Keyring: keyring,
			Cache:   cacheClient,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:         logger,
			Limiter:        cacheClient,
			RobotPerMinute: cfg.RateLimitRobotPerMin,
			RobotBurst:     cfg.RateLimitRobotBurst,
			IPEnabled:      cfg.RateLimitSubmitEnabled,
			IPRPS:          cfg.RateLimitSubmitRPS,
			IPBurst:        cfg.RateLimitSubmitBurst,
		},
		Development:        cfg.IsDevelopment(),
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}
	if cfg.IsProduction() {
		routerCfg.RobotEnvs = server.ProductionRobotEnvs
	}
	if cfg.GitHubWebhookSecret != "" {
		routerCfg.Webhook = handler.NewWebhookHandler(meetupService, cacheClient, cfg.GitHubWebhookSecret, metricsRecorder, logger)
	} else {
		logger.Warn("webhook_disabled", slog.String("hint", "set GITHUB_WEBHOOK_SECRET to receive issue events"))
	}

	srv := server.New(
		server.NewRouter(routerCfg),
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("postgres", func(context.Context) error {
		repo.Close()
		return nil
	})
	srv.OnShutdown("redis", func(context.Context) error {
		return cacheClient.Close()
	})

	logger.Info("server_configured",
		slog.Int("port", cfg.AppPort),
		slog.String("env", cfg.AppEnv),
		slog.String("repository", issues.Repository()),
		slog.String("timezone", loc.String()),
		slog.Int("robot_keys", keyring.Len()),
	)

	return srv.Run()
}

type errConnect string

func (e errConnect) Error() string {
	return "failed to connect to " + string(e)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With(slog.String("service", "meetupbot"))
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
