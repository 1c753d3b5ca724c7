// Package config provides configuration loading and validation for the
// analytics services. It uses koanf to merge environment variables with
// optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server and feed worker.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis (rate limiting)
	RedisAddr string `koanf:"redis_addr"`

	// JWT Authentication. JWTSecretPrevious is set only while a secret
	// rotation is in flight; tokens signed with it still validate.
	JWTSecret         string `koanf:"jwt_secret"`
	JWTSecretPrevious string `koanf:"jwt_secret_previous"`

	// Change feed (document-change WebSocket endpoint)
	FeedURL string `koanf:"feed_url"`

	// Background work
	SweepInterval   time.Duration `koanf:"sweep_interval"`
	DedupRetention  time.Duration `koanf:"dedup_retention"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// Tracing
	TracingEnabled  bool   `koanf:"tracing_enabled"`
	TracingEndpoint string `koanf:"tracing_endpoint"`
	TracingProtocol string `koanf:"tracing_protocol"` // "grpc" or "http"

	// Rate limiting
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// CORS. Empty list disables cross-origin handling.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required")
	ErrMissingFeedURL     = errors.New("FEED_URL is required")
	ErrInvalidPort        = errors.New("PORT must be a valid integer")
	ErrInvalidDuration    = errors.New("duration values must be positive")
	ErrInvalidProtocol    = errors.New("TRACING_PROTOCOL must be grpc or http")
)

// Default values for non-secret configuration.
const (
	DefaultPort               = 8080
	DefaultEnv                = "development"
	DefaultSweepInterval      = 5 * time.Minute
	DefaultDedupRetention     = 24 * time.Hour
	DefaultCleanupInterval    = time.Hour
	DefaultTracingProtocol    = "grpc"
	DefaultRateLimitPerMinute = 120
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Try PULSE_PORT first, then PORT for platform compatibility
	port, portErr := getEnvIntOrDefaultMulti([]string{"PULSE_PORT", "PORT"}, k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	sweepInterval, err := getEnvDurationOrDefault("SWEEP_INTERVAL", k.Duration("sweep_interval"), DefaultSweepInterval)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	dedupRetention, err := getEnvDurationOrDefault("DEDUP_RETENTION", k.Duration("dedup_retention"), DefaultDedupRetention)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}
	cleanupInterval, err := getEnvDurationOrDefault("CLEANUP_INTERVAL", k.Duration("cleanup_interval"), DefaultCleanupInterval)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	rateLimit, err := getEnvIntOrDefault("RATE_LIMIT_PER_MINUTE", k.Int("rate_limit_per_minute"), DefaultRateLimitPerMinute)
	if err != nil {
		loadErrs = append(loadErrs, err)
	}

	tracingEnabled := k.Bool("tracing_enabled")
	if val := os.Getenv("TRACING_ENABLED"); val != "" {
		// Env var takes precedence over file config
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			tracingEnabled = true
		case "false", "0", "no", "off":
			tracingEnabled = false
		}
	}

	cfg := &Config{
		Port:               port,
		Env:                getEnvOrDefaultMulti([]string{"PULSE_ENV", "ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:        getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisAddr:          getEnvOrKoanf("REDIS_ADDR", k, "redis_addr"),
		JWTSecret:          getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		JWTSecretPrevious:  getEnvOrKoanf("JWT_SECRET_PREVIOUS", k, "jwt_secret_previous"),
		FeedURL:            getEnvOrKoanf("FEED_URL", k, "feed_url"),
		SweepInterval:      sweepInterval,
		DedupRetention:     dedupRetention,
		CleanupInterval:    cleanupInterval,
		TracingEnabled:     tracingEnabled,
		TracingEndpoint:    getEnvOrKoanf("TRACING_ENDPOINT", k, "tracing_endpoint"),
		TracingProtocol:    getEnvOrDefault("TRACING_PROTOCOL", k.String("tracing_protocol"), DefaultTracingProtocol),
		RateLimitPerMinute: rateLimit,
		CORSAllowedOrigins: getEnvListOrKoanf("CORS_ALLOWED_ORIGINS", k, "cors_allowed_origins"),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvListOrKoanf returns the environment variable parsed as a comma-separated
// list if set, otherwise the koanf string slice.
func getEnvListOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) []string {
	if val := os.Getenv(envKey); val != "" {
		var out []string
		for _, item := range strings.Split(val, ",") {
			item = strings.TrimSpace(item)
			if item != "" {
				out = append(out, item)
			}
		}
		return out
	}
	return k.Strings(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidPort)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvIntOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first valid integer value found, otherwise the koanf value, or default.
// Returns an error if any environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefaultMulti(envKeys []string, koanfVal int, defaultVal int) (int, error) {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			i, err := strconv.Atoi(val)
			if err != nil {
				return 0, fmt.Errorf("%s must be a valid integer: %w", key, ErrInvalidPort)
			}
			return i, nil
		}
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvDurationOrDefault returns the environment variable as a duration if set,
// otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed.
func getEnvDurationOrDefault(envKey string, koanfVal time.Duration, defaultVal time.Duration) (time.Duration, error) {
	if val := os.Getenv(envKey); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid duration: %w", envKey, err)
		}
		return d, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}
	if c.FeedURL == "" {
		errs = append(errs, ErrMissingFeedURL)
	}
	if c.SweepInterval <= 0 || c.DedupRetention <= 0 || c.CleanupInterval <= 0 {
		errs = append(errs, ErrInvalidDuration)
	}
	if c.TracingProtocol != "grpc" && c.TracingProtocol != "http" {
		errs = append(errs, ErrInvalidProtocol)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                  fmt.Sprintf("%d", c.Port),
		"env":                   c.Env,
		"database_url":          maskDatabaseURL(c.DatabaseURL),
		"redis_addr":            c.RedisAddr,
		"jwt_secret":            maskSecret(c.JWTSecret),
		"jwt_secret_previous":   maskSecret(c.JWTSecretPrevious),
		"feed_url":              c.FeedURL,
		"sweep_interval":        c.SweepInterval.String(),
		"dedup_retention":       c.DedupRetention.String(),
		"cleanup_interval":      c.CleanupInterval.String(),
		"tracing_enabled":       fmt.Sprintf("%t", c.TracingEnabled),
		"tracing_endpoint":      c.TracingEndpoint,
		"tracing_protocol":      c.TracingProtocol,
		"rate_limit_per_minute": fmt.Sprintf("%d", c.RateLimitPerMinute),
		"cors_allowed_origins":  strings.Join(c.CORSAllowedOrigins, ","),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a database URL.
// Supports both postgres:// and postgresql:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
