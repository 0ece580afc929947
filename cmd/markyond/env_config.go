package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/raphigaziano/markyond/internal/config"
)

// envPrefix starts every variable read by markyond.
const envPrefix = "MARKYOND_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath   string        // MARKYOND_CONFIG: config file name or path
	OutputDir    string        // MARKYOND_OUTPUT_DIR: artifact directory
	OutputFormat string        // MARKYOND_OUTPUT_FMT: png, svg or pdf
	BaseURL      string        // MARKYOND_BASE_URL: reference URL prefix
	CacheDir     string        // MARKYOND_CACHE_DIR: cache directory
	LilyPond     string        // MARKYOND_LILYPOND: renderer executable
	Timeout      time.Duration // MARKYOND_TIMEOUT: renderer time limit
	Workers      int           // MARKYOND_WORKERS: parallel workers
}

// knownEnvVars lists valid MARKYOND_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MARKYOND_CONFIG":     true,
	"MARKYOND_OUTPUT_DIR": true,
	"MARKYOND_OUTPUT_FMT": true,
	"MARKYOND_BASE_URL":   true,
	"MARKYOND_CACHE_DIR":  true,
	"MARKYOND_LILYPOND":   true,
	"MARKYOND_TIMEOUT":    true,
	"MARKYOND_WORKERS":    true,
	"MARKYOND_CONTAINER":  true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Malformed durations and counts are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:   getenv("MARKYOND_CONFIG"),
		OutputDir:    getenv("MARKYOND_OUTPUT_DIR"),
		OutputFormat: getenv("MARKYOND_OUTPUT_FMT"),
		BaseURL:      getenv("MARKYOND_BASE_URL"),
		CacheDir:     getenv("MARKYOND_CACHE_DIR"),
		LilyPond:     getenv("MARKYOND_LILYPOND"),
	}

	if timeout := getenv("MARKYOND_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := getenv("MARKYOND_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars writes a warning for each unrecognized MARKYOND_*
// variable in environ. Helps catch typos like MARKYOND_OUTPUTDIR.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig applies environment variable values to cfg. A set
// variable wins over the config file; flags are merged afterwards and win
// over both.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" {
		cfg.OutputDir = env.OutputDir
	}
	if env.OutputFormat != "" {
		cfg.OutputFormat = env.OutputFormat
	}
	if env.BaseURL != "" {
		cfg.BaseURL = env.BaseURL
	}
	if env.CacheDir != "" {
		cfg.CacheDir = env.CacheDir
	}
	if env.LilyPond != "" {
		cfg.LilyPond.Bin = env.LilyPond
	}
	if env.Timeout > 0 {
		cfg.LilyPond.Timeout = env.Timeout.String()
	}
}
