package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/raphigaziano/markyond"
	"github.com/raphigaziano/markyond/internal/config"
	"github.com/raphigaziano/markyond/internal/render"
)

// ErrInvalidTimeout is returned for a malformed duration flag.
var ErrInvalidTimeout = errors.New("invalid timeout")

// settings is the configuration of one command run: defaults, config
// file, environment and flags, in increasing precedence.
type settings struct {
	cfg        *config.Config
	configName string // as given by --config or MARKYOND_CONFIG
	envWorkers int
}

// loadSettings loads the config file named by --config (or MARKYOND_CONFIG)
// and applies MARKYOND_* variables over it.
func loadSettings(common commonFlags, env *Environment) (*settings, error) {
	ec := loadEnvConfig(env.getenv)
	if !common.quiet {
		warnUnknownEnvVars(env.Stderr, env.environ())
	}

	s := &settings{
		cfg:        config.DefaultConfig(),
		configName: configNameFor(common, env),
		envWorkers: ec.Workers,
	}
	if s.configName != "" {
		cfg, err := config.LoadConfig(s.configName)
		if err != nil {
			return s, fmt.Errorf("loading config: %w", err)
		}
		s.cfg = cfg
	}

	applyEnvConfig(ec, s.cfg)
	return s, nil
}

// configNameFor returns the config name a command was given, for hints.
func configNameFor(common commonFlags, env *Environment) string {
	if common.config != "" {
		return common.config
	}
	return loadEnvConfig(env.getenv).ConfigPath
}

// mergeBlockFlags copies the block flags that were set into cfg.
func mergeBlockFlags(f blockFlags, cfg *config.Config) {
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	if f.outputFmt != "" {
		cfg.OutputFormat = f.outputFmt
	}
	if f.baseURL != "" {
		cfg.BaseURL = f.baseURL
	}
	if f.cacheDir != "" {
		cfg.CacheDir = f.cacheDir
	}
	if f.keyword != "" {
		cfg.Keyword = f.keyword
	}
	if f.resolution != 0 {
		cfg.Resolution = f.resolution
	}
}

// mergeRendererFlags copies the renderer flags that were set into cfg.
func mergeRendererFlags(f rendererFlags, cfg *config.Config) error {
	if f.lilypond != "" {
		cfg.LilyPond.Bin = f.lilypond
	}
	if f.timeout != "" {
		d, err := parseTimeout(f.timeout)
		if err != nil {
			return err
		}
		cfg.LilyPond.Timeout = d.String()
	}
	return nil
}

// mergePageFlags copies the page flags that were set into cfg.
func mergePageFlags(f pageFlags, cfg *config.Config) {
	if f.title != "" {
		cfg.HTML.Title = f.title
	}
	if f.style != "" {
		cfg.HTML.Style = f.style
	}
	if f.assetPath != "" {
		cfg.HTML.AssetPath = f.assetPath
	}
	if f.highlight != "" {
		cfg.HTML.Highlight = f.highlight
	}
}

// parseTimeout parses a positive Go duration.
func parseTimeout(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q (use a duration such as 30s or 2m)", ErrInvalidTimeout, s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %q (must be positive)", ErrInvalidTimeout, s)
	}
	return d, nil
}

// newLogger returns the slog logger handed to the processor. Block events
// are debug and info records, so they only show with -v.
func newLogger(common commonFlags, w io.Writer) *slog.Logger {
	level := slog.LevelError
	if common.verbose && !common.quiet {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// processorConfig maps the file configuration onto the library one.
func processorConfig(cfg *config.Config) markyond.Config {
	return markyond.Config{
		OutputDir:    cfg.OutputDir,
		OutputFormat: cfg.OutputFormat,
		BaseURL:      cfg.BaseURL,
		CacheDir:     cfg.CacheDir,
		Resolution:   cfg.Resolution,
	}
}

// newRenderer returns env.Renderer, or a LilyPond renderer configured by cfg.
func newRenderer(cfg *config.Config, env *Environment) markyond.Renderer {
	if env.Renderer != nil {
		return env.Renderer
	}
	lp := markyond.NewLilyPondRenderer(cfg.LilyPond.Bin, cfg.LilyPond.TimeoutDuration())
	lp.LogLevel = cfg.LilyPond.LogLevel
	return lp
}

// newProcessor validates cfg and builds the block processor.
func newProcessor(cfg *config.Config, common commonFlags, env *Environment) (*markyond.Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []markyond.ProcessorOption{
		markyond.WithLogger(newLogger(common, env.Stderr)),
		markyond.WithRenderer(newRenderer(cfg, env)),
	}
	if cfg.Keyword != "" {
		opts = append(opts, markyond.WithKeyword(cfg.Keyword))
	}
	return markyond.NewProcessor(processorConfig(cfg), opts...)
}

// converterOptions returns the options shared by every converter of a run.
func converterOptions(cfg *config.Config, proc *markyond.Processor, pdfTimeout time.Duration) []markyond.Option {
	opts := []markyond.Option{
		markyond.WithProcessor(proc),
		markyond.WithTitle(cfg.HTML.Title),
		markyond.WithStyle(cfg.HTML.Style),
		markyond.WithAssetPath(cfg.HTML.AssetPath),
		markyond.WithTimeout(pdfTimeout),
	}
	if cfg.HTML.Highlight != "" {
		opts = append(opts, markyond.WithHighlightStyle(cfg.HTML.Highlight))
	}
	return opts
}

// effectiveConfig returns a copy of cfg with every default spelled out.
func effectiveConfig(cfg *config.Config) *config.Config {
	out := *cfg
	d := markyond.DefaultConfig()
	if out.Keyword == "" {
		out.Keyword = markyond.DefaultKeyword
	}
	if out.OutputDir == "" {
		out.OutputDir = d.OutputDir
	}
	if out.OutputFormat == "" {
		out.OutputFormat = d.OutputFormat
	}
	if out.CacheDir == "" {
		out.CacheDir = d.CacheDir
	}
	if out.LilyPond.Bin == "" {
		out.LilyPond.Bin = render.DefaultBinary
	}
	if out.LilyPond.Timeout == "" {
		out.LilyPond.Timeout = render.DefaultTimeout.String()
	}
	if out.LilyPond.LogLevel == "" {
		out.LilyPond.LogLevel = render.DefaultLogLevel
	}
	if out.HTML.Style == "" {
		out.HTML.Style = markyond.DefaultStyle
	}
	if out.HTML.Highlight == "" {
		out.HTML.Highlight = markyond.DefaultHighlightStyle
	}
	return &out
}

// cacheDir returns the effective document-wide cache directory.
func cacheDir(cfg *config.Config) string {
	if cfg.CacheDir != "" {
		return cfg.CacheDir
	}
	return markyond.DefaultCacheDir
}
