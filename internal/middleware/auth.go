package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/meetupbot/meetupbot/internal/auth"
	"github.com/meetupbot/meetupbot/internal/model"
)

const (
	// minAuthDuration is the minimum time to spend on auth to prevent timing attacks.
	minAuthDuration = 200 * time.Millisecond
)

// RobotCache caches successful robot key verifications.
type RobotCache interface {
	GetRobot(ctx context.Context, cacheKey string) (*model.Robot, error)
	SetRobot(ctx context.Context, cacheKey string, robot *model.Robot) error
}

// KeyVerifier authenticates plaintext robot keys.
type KeyVerifier interface {
	Verify(key string) (*model.Robot, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Keyring KeyVerifier
	Cache   RobotCache
	// MinDuration overrides minAuthDuration. Zero keeps the default.
	MinDuration time.Duration
}

// Auth returns a middleware that authenticates robot requests.
// It extracts the robot key from the Authorization header,
// verifies it, and injects the robot into the request context.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	minDuration := cfg.MinDuration
	if minDuration <= 0 {
		minDuration = minAuthDuration
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()

			// Ensure consistent timing regardless of outcome
			defer func() {
				elapsed := time.Since(startTime)
				if elapsed < minDuration {
					time.Sleep(minDuration - elapsed)
				}
			}()

			key := extractRobotKey(r)
			if key == "" {
				logAuthFailure(cfg.Logger, r, "missing_key")
				writeAuthError(w)
				return
			}

			if !auth.ValidateKeyFormat(key) {
				logAuthFailure(cfg.Logger, r, "invalid_format")
				writeAuthError(w)
				return
			}

			cacheKey := auth.QuickHash(key)
			if cfg.Cache != nil {
				if robot, _ := cfg.Cache.GetRobot(r.Context(), cacheKey); robot != nil {
					logAuthSuccess(cfg.Logger, r, robot, true)
					next.ServeHTTP(w, r.WithContext(auth.ContextWithRobot(r.Context(), robot)))
					return
				}
			}

			robot, err := cfg.Keyring.Verify(key)
			if err != nil {
				logAuthFailure(cfg.Logger, r, "invalid_key")
				writeAuthError(w)
				return
			}

			if cfg.Cache != nil {
				if err := cfg.Cache.SetRobot(r.Context(), cacheKey, robot); err != nil {
					cfg.Logger.Warn("robot_cache_set_failed",
						slog.String("key_prefix", robot.KeyPrefix),
						slog.String("error", err.Error()),
					)
				}
			}

			logAuthSuccess(cfg.Logger, r, robot, false)
			next.ServeHTTP(w, r.WithContext(auth.ContextWithRobot(r.Context(), robot)))
		})
	}
}

// RequireRobotEnv rejects robots whose key was issued for another
// environment. Must be applied after Auth middleware.
func RequireRobotEnv(envs ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			robot := auth.RobotFromContext(r.Context())
			if robot == nil {
				writeAuthError(w)
				return
			}

			for _, env := range envs {
				if robot.Env == env {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"Robot key not accepted in this environment","code":"FORBIDDEN"}`))
		})
	}
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication_failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

func logAuthSuccess(logger *slog.Logger, r *http.Request, robot *model.Robot, cacheHit bool) {
	logger.Info("authentication_successful",
		slog.String("key_prefix", robot.KeyPrefix),
		slog.String("key_env", robot.Env),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.Bool("cache_hit", cacheHit),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// extractRobotKey extracts the robot key from the request.
// Supports both "Authorization: Bearer <key>" and "X-API-Key: <key>" headers.
func extractRobotKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return r.Header.Get("X-API-Key")
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Invalid or missing robot key","code":"UNAUTHORIZED"}`))
}
