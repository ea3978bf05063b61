// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL) for the submission log
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Issue tracker (GitHub)
	GitHubAPIURL        string        `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	GitHubToken         string        `env:"GITHUB_TOKEN,required"`
	GitHubRepository    string        `env:"GITHUB_REPOSITORY,required"` // owner/name
	GitHubWebhookSecret string        `env:"GITHUB_WEBHOOK_SECRET"`
	IssueLabels         []string      `env:"ISSUE_LABELS" envDefault:"meetup" envSeparator:","`
	TrackerTimeout      time.Duration `env:"TRACKER_TIMEOUT" envDefault:"15s"`

	// Meetup handling
	// Timezone human-entered dates and times are read in (IANA name).
	MeetupTimezone string        `env:"MEETUP_TIMEZONE" envDefault:"UTC"`
	MeetupDuration time.Duration `env:"MEETUP_DURATION" envDefault:"2h"`
	MeetupCacheTTL time.Duration `env:"MEETUP_CACHE_TTL" envDefault:"1h"`

	// Robot submitters: semicolon-separated "prefix:argon2id-hash" entries.
	RobotAPIKeys []string `env:"ROBOT_API_KEYS" envSeparator:";"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitSubmitEnabled bool `env:"RATE_LIMIT_SUBMIT_ENABLED" envDefault:"true"`
	RateLimitSubmitRPS     int  `env:"RATE_LIMIT_SUBMIT_RPS" envDefault:"1"`
	RateLimitSubmitBurst   int  `env:"RATE_LIMIT_SUBMIT_BURST" envDefault:"5"`
	RateLimitRobotPerMin   int  `env:"RATE_LIMIT_ROBOT_PER_MINUTE" envDefault:"60"`
	RateLimitRobotBurst    int  `env:"RATE_LIMIT_ROBOT_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 256KB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"262144"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Location resolves MeetupTimezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.MeetupTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid MEETUP_TIMEZONE %q: %w", c.MeetupTimezone, err)
	}
	return loc, nil
}

// RepositoryOwnerAndName splits GitHubRepository into its two parts.
func (c *Config) RepositoryOwnerAndName() (string, string, error) {
	owner, name, ok := strings.Cut(c.GitHubRepository, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid GITHUB_REPOSITORY %q: want owner/name", c.GitHubRepository)
	}
	return owner, name, nil
}

// RobotKeyHashes groups the configured robot key hashes by key prefix.
func (c *Config) RobotKeyHashes() (map[string][]string, error) {
	out := make(map[string][]string, len(c.RobotAPIKeys))
	for _, entry := range c.RobotAPIKeys {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		prefix, hash, ok := strings.Cut(entry, ":")
		if !ok || prefix == "" || hash == "" {
			return nil, fmt.Errorf("invalid ROBOT_API_KEYS entry: want prefix:hash")
		}
		out[prefix] = append(out[prefix], hash)
	}
	return out, nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if _, _, err := cfg.RepositoryOwnerAndName(); err != nil {
		return nil, err
	}
	return cfg, nil
}
