package markyond

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/raphigaziano/markyond/internal/block"
	"github.com/raphigaziano/markyond/internal/materialize"
)

// Output formats the renderer can produce.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
	FormatPDF = materialize.FormatPDF
)

// Defaults for Config.
const (
	DefaultKeyword   = "markyond"
	DefaultOutputDir = "."
	DefaultFormat    = FormatPNG
	DefaultBaseURL   = ""
	DefaultCacheDir  = ".markyond_cache"
)

// Block attribute names. Every Config key can be overridden per block.
const (
	AttrOutputFile = "output_file"
	AttrOutputDir  = "output_dir"
	AttrOutputFmt  = "output_fmt"
	AttrBaseURL    = "base_url"
	AttrCacheDir   = "cache_dir"
	AttrLinkName   = "link_name"
	AttrResolution = "resolution"
)

// renderKeys are the attributes that change the rendered artifact and
// therefore take part in the cache fingerprint.
var renderKeys = []string{AttrOutputFmt, AttrResolution}

// maxResolution bounds the raster resolution accepted from a document.
const maxResolution = 4800

// Config holds the document-wide settings. Block attributes override them.
type Config struct {
	OutputDir    string // where artifacts are published
	OutputFormat string // png, svg or pdf
	BaseURL      string // prefix of the reference URL, concatenated as is
	CacheDir     string // where rendered artifacts are kept between runs
	Resolution   int    // raster resolution in DPI, 0 for the renderer default
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		OutputDir:    DefaultOutputDir,
		OutputFormat: DefaultFormat,
		BaseURL:      DefaultBaseURL,
		CacheDir:     DefaultCacheDir,
	}
}

// withDefaults fills empty fields from DefaultConfig. BaseURL is left
// alone: empty is its default.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.OutputFormat == "" {
		c.OutputFormat = d.OutputFormat
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	return c
}

// Validate checks the configuration once defaults are applied.
func (c Config) Validate() error {
	c = c.withDefaults()
	if _, err := normalizeFormat(c.OutputFormat); err != nil {
		return err
	}
	if c.Resolution < 0 || c.Resolution > maxResolution {
		return fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidResolution, c.Resolution, maxResolution)
	}
	return nil
}

// normalizeFormat lower-cases format and checks it is supported.
func normalizeFormat(format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	switch f {
	case FormatPNG, FormatSVG, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q (must be png, svg or pdf)", ErrUnsupportedFormat, format)
}

// Settings are the effective values for one block: block attributes over
// the document configuration. Built once per block and never mutated.
type Settings struct {
	OutputFile string
	OutputDir  string
	Format     string
	BaseURL    string
	CacheDir   string
	LinkName   string
	Resolution int
}

// resolveSettings layers attrs over cfg and validates the result.
func resolveSettings(cfg Config, attrs block.Attributes) (Settings, error) {
	s := Settings{
		OutputDir:  cfg.OutputDir,
		Format:     cfg.OutputFormat,
		BaseURL:    cfg.BaseURL,
		CacheDir:   cfg.CacheDir,
		Resolution: cfg.Resolution,
	}
	if v, ok := attrs.Get(AttrOutputDir); ok {
		s.OutputDir = v
	}
	if v, ok := attrs.Get(AttrOutputFmt); ok {
		s.Format = v
	}
	if v, ok := attrs.Get(AttrBaseURL); ok {
		s.BaseURL = v
	}
	if v, ok := attrs.Get(AttrCacheDir); ok {
		s.CacheDir = v
	}
	s.OutputFile, _ = attrs.Get(AttrOutputFile)
	s.LinkName, _ = attrs.Get(AttrLinkName)

	if v, ok := attrs.Get(AttrResolution); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 || n > maxResolution {
			return s, fmt.Errorf("%w: %q (whole number of DPI up to %d)", ErrInvalidResolution, v, maxResolution)
		}
		s.Resolution = n
	}

	format, err := normalizeFormat(s.Format)
	if err != nil {
		return s, err
	}
	s.Format = format

	if s.OutputFile == "" {
		return s, ErrMissingOutputFile
	}
	if s.OutputDir == "" {
		s.OutputDir = DefaultOutputDir
	}
	if s.CacheDir == "" {
		return s, fmt.Errorf("%w: %s", ErrEmptyDirectory, AttrCacheDir)
	}
	return s, nil
}

// fingerprintAttrs returns the rendering-affecting values for the cache key.
func (s Settings) fingerprintAttrs() map[string]string {
	attrs := map[string]string{AttrOutputFmt: s.Format}
	if s.Resolution > 0 {
		attrs[AttrResolution] = strconv.Itoa(s.Resolution)
	}
	return attrs
}

func (s Settings) target() materialize.Target {
	return materialize.Target{
		OutputDir:  s.OutputDir,
		OutputFile: s.OutputFile,
		Format:     s.Format,
		BaseURL:    s.BaseURL,
		LinkName:   s.LinkName,
	}
}

// Destination returns where the block's artifact is published.
func (s Settings) Destination() string {
	return s.target().Destination()
}
