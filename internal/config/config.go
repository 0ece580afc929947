// Package config loads the markyond YAML configuration file.
//
// Every key is optional. Empty values mean "use the default" and are filled
// in by the caller, which also layers environment variables, flags and
// per-block attributes on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/raphigaziano/markyond/internal/fileutil"
	"github.com/raphigaziano/markyond/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// DirName is the directory searched under the user config directory.
const DirName = "markyond"

// Config holds the file configuration.
type Config struct {
	Keyword      string         `yaml:"keyword,omitempty" validate:"omitempty,max=64,keyword"`
	OutputDir    string         `yaml:"output_dir,omitempty" validate:"max=4096"`
	OutputFormat string         `yaml:"output_fmt,omitempty" validate:"omitempty,oneof=png svg pdf"`
	BaseURL      string         `yaml:"base_url,omitempty" validate:"max=2048"`
	CacheDir     string         `yaml:"cache_dir,omitempty" validate:"max=4096"`
	Resolution   int            `yaml:"resolution,omitempty" validate:"gte=0,lte=4800"`
	LilyPond     LilyPondConfig `yaml:"lilypond,omitempty"`
	HTML         HTMLConfig     `yaml:"html,omitempty"`
}

// LilyPondConfig defines how the renderer is invoked.
type LilyPondConfig struct {
	Bin      string `yaml:"bin,omitempty" validate:"max=4096"`
	Timeout  string `yaml:"timeout,omitempty" validate:"omitempty,duration"` // Go duration, e.g. "90s"
	LogLevel string `yaml:"loglevel,omitempty" validate:"omitempty,oneof=NONE ERROR WARN BASIC PROGRESS INFO DEBUG"`
}

// HTMLConfig defines the page produced by --to html and --to pdf.
type HTMLConfig struct {
	Title     string `yaml:"title,omitempty" validate:"max=200"`
	Highlight string `yaml:"highlight,omitempty" validate:"max=50"`    // chroma style, "none" disables
	Style     string `yaml:"style,omitempty" validate:"max=4096"`      // style name, CSS file path or CSS
	AssetPath string `yaml:"asset_path,omitempty" validate:"max=4096"` // searched for styles/<name>.css
}

// TimeoutDuration returns the parsed renderer timeout, zero when unset.
// Validate guarantees the value parses.
func (c LilyPondConfig) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

var keywordPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("keyword", func(fl validator.FieldLevel) bool {
			return keywordPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
			d, err := time.ParseDuration(fl.Field().String())
			return err == nil && d > 0
		})
		validate = v
	})
	return validate
}

// Validate checks value sets and field lengths. Called by LoadConfig, and
// available for callers who build a Config by hand.
func (c *Config) Validate() error {
	err := structValidator().Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return describe(verrs[0])
}

// describe turns the first validation failure into a sentinel-wrapped error
// naming the YAML key.
func describe(fe validator.FieldError) error {
	field := yamlPath(fe.Namespace())
	switch fe.Tag() {
	case "max":
		return fmt.Errorf("%w: %s (%d chars, max %s)", ErrFieldTooLong, field, len(fmt.Sprint(fe.Value())), fe.Param())
	case "oneof":
		return fmt.Errorf("%w: %s: %q (must be one of %s)", ErrInvalidValue, field, fe.Value(), fe.Param())
	case "keyword":
		return fmt.Errorf("%w: %s: %q (letters, digits, '_' and '-' only)", ErrInvalidValue, field, fe.Value())
	case "duration":
		return fmt.Errorf("%w: %s: %q (positive duration such as 90s or 2m)", ErrInvalidValue, field, fe.Value())
	default:
		return fmt.Errorf("%w: %s: failed %s=%s", ErrInvalidValue, field, fe.Tag(), fe.Param())
	}
}

// yamlPath drops the root struct name from a validator namespace:
// "Config.lilypond.timeout" becomes "lilypond.timeout".
func yamlPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// DefaultConfig returns an empty configuration: every value defaulted by the caller.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's searched as <name>.yaml or <name>.yml in the current
// directory, then in the user config directory under markyond/.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		if configPath, err = ResolveConfigPath(nameOrPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		if errors.Is(err, yamlutil.ErrNilData) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrConfigParse, configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return &cfg, nil
}

// SearchPaths lists the candidate files for a config name, in lookup order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, DirName, name+ext))
		}
	}
	return paths
}

// ResolveConfigPath returns the first existing candidate from SearchPaths.
func ResolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
