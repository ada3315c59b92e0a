package app

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GridPath    string // grid files
	ModulesPath string // plugin manifests

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int

	// Sets overrides instance inputs, each in the form "inst.plug=EXPR".
	Sets []string
	// Requests adds plug addresses to the grid's own requests.
	Requests []string
}

// NewConfig validates cfg and returns a copy of it. Empty log settings fall
// back to "info" and "text".
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" && cfg.ModulesPath == "" {
		return nil, errors.New("at least one of GridPath or ModulesPath must be set")
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q: must be one of %s", cfg.LogLevel, strings.Join(logLevels, ", "))
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d is out of range", cfg.HealthcheckPort)
	}
	for _, s := range cfg.Sets {
		if _, _, ok := strings.Cut(s, "="); !ok {
			return nil, fmt.Errorf("invalid set %q: expected inst.plug=EXPR", s)
		}
	}

	return &cfg, nil
}
