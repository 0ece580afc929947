package markyond

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/raphigaziano/markyond/internal/assets"
	"github.com/raphigaziano/markyond/internal/fileutil"
	"github.com/raphigaziano/markyond/internal/pipeline"
)

// Conversion targets.
const (
	ToMarkdown = "markdown"
	ToHTML     = "html"
	ToPDF      = "pdf"
)

// Page styling defaults.
const (
	HighlightNone         = "none" // disables syntax highlighting of fenced code
	DefaultHighlightStyle = pipeline.DefaultHighlightStyle
	DefaultStyle          = assets.DefaultStyleName
)

var (
	_ pipeline.HTMLConverter = (*pipeline.GoldmarkConverter)(nil)
	_ pipeline.CSSInjector   = (*pipeline.CSSInjection)(nil)
	_ assets.StyleLoader     = (*assets.Resolver)(nil)
)

// Input is one document to convert.
type Input struct {
	Markdown  string
	To        string // markdown (default), html or pdf
	SourceDir string // directory of the document, for relative references in PDF output
	Title     string // page title, overrides WithTitle
}

// ConvertResult holds the outputs of a conversion. HTML is set for the html
// and pdf targets, PDF for the pdf target only.
type ConvertResult struct {
	Text   string // the document with every block substituted
	HTML   []byte
	PDF    []byte
	Blocks []BlockResult
}

// Err joins the errors of all failed blocks.
func (r *ConvertResult) Err() error {
	return (&Result{Blocks: r.Blocks}).Err()
}

// Failed returns the number of blocks that failed.
func (r *ConvertResult) Failed() int {
	return (&Result{Blocks: r.Blocks}).Failed()
}

type converterConfig struct {
	timeout        time.Duration
	title          string
	styleInput     string
	assetPath      string
	highlightStyle string
	resolvedStyle  string
}

// Option configures a Converter.
type Option func(*Converter)

// WithProcessor sets the block processor. The default renders with
// LilyPond using DefaultConfig.
func WithProcessor(p *Processor) Option {
	return func(c *Converter) {
		c.processor = p
	}
}

// WithTitle sets the default page title.
func WithTitle(title string) Option {
	return func(c *Converter) {
		c.cfg.title = title
	}
}

// WithStyle sets the page stylesheet: a built-in style name, a path to a
// CSS file, or CSS content.
func WithStyle(style string) Option {
	return func(c *Converter) {
		c.cfg.styleInput = style
	}
}

// WithAssetPath adds a directory searched for styles/{name}.css before the
// built-in styles.
func WithAssetPath(dir string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = dir
	}
}

// WithHighlightStyle sets the chroma style of fenced code, or HighlightNone.
func WithHighlightStyle(style string) Option {
	return func(c *Converter) {
		c.cfg.highlightStyle = style
	}
}

// WithTimeout bounds page loading and printing for the pdf target.
func WithTimeout(d time.Duration) Option {
	return func(c *Converter) {
		if d > 0 {
			c.cfg.timeout = d
		}
	}
}

// Converter runs the block processor over a Markdown document and, for the
// html and pdf targets, the Markdown to HTML to PDF pipeline around it.
// Create with NewConverter, and Close when done.
type Converter struct {
	cfg           converterConfig
	processor     *Processor
	styleLoader   assets.StyleLoader
	htmlConverter pipeline.HTMLConverter
	cssInjector   pipeline.CSSInjector
	pdfConverter  pdfConverter
}

// NewConverter creates a Converter. The browser is only started by the
// first pdf conversion.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg: converterConfig{
			timeout:        defaultPDFTimeout,
			highlightStyle: pipeline.DefaultHighlightStyle,
		},
		cssInjector: &pipeline.CSSInjection{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.processor == nil {
		p, err := NewProcessor(DefaultConfig())
		if err != nil {
			return nil, err
		}
		c.processor = p
	}

	resolver, err := assets.NewResolver(c.cfg.assetPath)
	if err != nil {
		return nil, err
	}
	c.styleLoader = resolver

	if err := c.resolveStyle(); err != nil {
		return nil, err
	}

	highlight := c.cfg.highlightStyle != HighlightNone
	if highlight {
		css, err := pipeline.HighlightCSS(c.cfg.highlightStyle)
		if err != nil {
			return nil, err
		}
		c.cfg.resolvedStyle = css + "\n" + c.cfg.resolvedStyle
	}

	if c.htmlConverter == nil {
		c.htmlConverter = pipeline.NewGoldmarkConverter(highlight)
	}
	if c.pdfConverter == nil {
		c.pdfConverter = newRodConverter(c.cfg.timeout)
	}
	return c, nil
}

// Processor returns the block processor used by the converter.
func (c *Converter) Processor() *Processor {
	return c.processor
}

// Convert processes the blocks of input.Markdown and produces the requested
// target. Block failures are reported in the result, not as an error.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (result *ConvertResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	to, err := normalizeTarget(input.To)
	if err != nil {
		return nil, err
	}

	if to == ToMarkdown {
		res, err := c.processor.Process(ctx, input.Markdown)
		if err != nil {
			return nil, err
		}
		return &ConvertResult{Text: res.Text, Blocks: res.Blocks}, nil
	}

	// Blocks become placeholders so goldmark never sees raw HTML.
	var markups []string
	res, err := c.processor.run(ctx, input.Markdown, func(i int, br BlockResult) string {
		markups = append(markups, br.Markup)
		return pipeline.BlockPlaceholder(i)
	})
	if err != nil {
		return nil, err
	}
	result = &ConvertResult{
		Text:   pipeline.ExpandBlockPlaceholders(res.Text, markups),
		Blocks: res.Blocks,
	}

	fragment, err := c.htmlConverter.ToHTML(ctx, pipeline.PrepareMarkdown(res.Text))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	fragment = pipeline.ConvertMarkPlaceholders(fragment)

	if to == ToPDF {
		// The page is printed from a temporary file: every local reference
		// must become an absolute file URL first.
		fragment, err = pipeline.RewriteArtifactURLs(fragment, "", input.SourceDir)
		if err != nil {
			return nil, fmt.Errorf("rewriting document paths: %w", err)
		}
		for i, br := range res.Blocks {
			if br.Err != nil {
				continue
			}
			s := br.Settings()
			markups[i], err = pipeline.RewriteArtifactURLs(markups[i], s.BaseURL, s.OutputDir)
			if err != nil {
				return nil, fmt.Errorf("rewriting block paths: %w", err)
			}
		}
	}
	fragment = pipeline.ExpandBlockPlaceholders(fragment, markups)

	title := input.Title
	if title == "" {
		title = c.cfg.title
	}
	page, err := pipeline.RenderPage(pipeline.PageData{Title: title, Body: fragment})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	page = c.cssInjector.InjectCSS(ctx, page, c.cfg.resolvedStyle)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result.HTML = []byte(page)

	if to != ToPDF {
		return result, nil
	}

	pdfBytes, err := c.pdfConverter.ToPDF(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("converting to PDF: %w", err)
	}
	result.PDF = pdfBytes
	return result, nil
}

// Close releases resources (headless Chrome browser).
func (c *Converter) Close() error {
	if c.pdfConverter != nil {
		return c.pdfConverter.Close()
	}
	return nil
}

// resolveStyle resolves the style input (name, path, or CSS content) to CSS.
func (c *Converter) resolveStyle() error {
	input := c.cfg.styleInput
	if input == "" {
		input = assets.DefaultStyleName
	}

	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("loading style file %q: %w", input, err)
		}
		c.cfg.resolvedStyle = string(content)
		return nil
	}

	if fileutil.IsCSS(input) {
		c.cfg.resolvedStyle = input
		return nil
	}

	css, err := c.styleLoader.LoadStyle(input)
	if err != nil {
		return fmt.Errorf("loading style %q: %w", input, err)
	}
	c.cfg.resolvedStyle = css
	return nil
}

func normalizeTarget(to string) (string, error) {
	switch t := strings.ToLower(strings.TrimSpace(to)); t {
	case "", ToMarkdown, "md":
		return ToMarkdown, nil
	case ToHTML, ToPDF:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q (must be markdown, html or pdf)", ErrUnsupportedTarget, to)
}
