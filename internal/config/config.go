// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	apperrors "github.com/olgasafonova/oblique-strategies-mcp-server/internal/errors"
)

const (
	// EnvFileVar names an env file to read before the process environment.
	EnvFileVar = "OBLIQUE_ENV_FILE"

	// DefaultEnvFile is read when present and EnvFileVar is unset.
	DefaultEnvFile = ".env"

	DefaultRateLimit   = 60      // requests per minute per client IP
	DefaultMaxBodySize = 1 << 20 // 1MB
)

// Config holds server settings
type Config struct {
	// StrategiesDir replaces the embedded corpus with a directory on disk (optional)
	StrategiesDir string

	// HTTPAddr serves MCP over streamable HTTP instead of stdio when set (e.g. ":8080")
	HTTPAddr string

	// RateLimit is the per-IP request budget per minute in HTTP mode; 0 disables it
	RateLimit int

	// MaxBodySize caps HTTP request bodies in bytes
	MaxBodySize int64

	// LogLevel is the minimum slog level written to stderr
	LogLevel slog.Level

	// EnvFile is the env file that was read, empty if none
	EnvFile string
}

// Load reads configuration from the process environment. Variables found in
// the env file fill in anything the process environment does not set.
func Load() (*Config, error) {
	fileVars, envFile, err := readEnvFile()
	if err != nil {
		return nil, err
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return strings.TrimSpace(v)
		}
		return strings.TrimSpace(fileVars[key])
	}

	cfg := &Config{
		StrategiesDir: lookup("STRATEGIES_DIR"),
		HTTPAddr:      lookup("MCP_HTTP_ADDR"),
		RateLimit:     DefaultRateLimit,
		MaxBodySize:   DefaultMaxBodySize,
		LogLevel:      slog.LevelInfo,
		EnvFile:       envFile,
	}

	if v := lookup("MCP_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, apperrors.NewValidationError("MCP_RATE_LIMIT", v, "must be a non-negative integer")
		}
		cfg.RateLimit = n
	}

	if v := lookup("MCP_MAX_BODY_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, apperrors.NewValidationError("MCP_MAX_BODY_SIZE", v, "must be a positive integer")
		}
		cfg.MaxBodySize = n
	}

	if v := lookup("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, apperrors.NewValidationError("LOG_LEVEL", v, "must be debug, info, warn or error")
		}
	}

	return cfg, nil
}

// readEnvFile returns the variables of the configured env file. A missing
// default file is not an error; a missing file named by EnvFileVar is.
func readEnvFile() (map[string]string, string, error) {
	path, explicit := os.LookupEnv(EnvFileVar)
	if !explicit || path == "" {
		path, explicit = DefaultEnvFile, false
	}

	vars, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read env file %s: %w", path, err)
	}
	return vars, path, nil
}

// HTTPEnabled returns true if the server should listen on HTTP instead of stdio
func (c *Config) HTTPEnabled() bool {
	return c.HTTPAddr != ""
}
