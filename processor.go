package markyond

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"time"

	"github.com/raphigaziano/markyond/internal/block"
	"github.com/raphigaziano/markyond/internal/cache"
	"github.com/raphigaziano/markyond/internal/materialize"
	"github.com/raphigaziano/markyond/internal/render"
)

// Renderer compiles one block body. The default is LilyPond; inject another
// with WithRenderer.
type Renderer = render.Renderer

// RenderRequest describes one compilation.
type RenderRequest = render.Request

// NewLilyPondRenderer returns the default renderer. An empty binary selects
// "lilypond" from PATH, a zero timeout two minutes.
func NewLilyPondRenderer(binary string, timeout time.Duration) *render.LilyPond {
	return render.NewLilyPond(binary, timeout)
}

// ErrorClass is the class attribute of the marker that replaces a failed block.
const ErrorClass = "markyond-error"

// BlockResult reports what happened to one block.
type BlockResult struct {
	Line        int    // 1-based line of the opening delimiter
	OutputFile  string // as written in the block, empty when it could not be read
	Format      string
	Fingerprint string
	CacheHit    bool
	Markup      string // what replaced the block: the reference element or an error marker
	Err         error

	settings Settings
}

// Result is the outcome of processing one document.
type Result struct {
	Text   string
	Blocks []BlockResult
}

// Err joins the errors of all failed blocks, nil when every block succeeded.
func (r *Result) Err() error {
	var errs []error
	for _, b := range r.Blocks {
		if b.Err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", b.Line, b.Err))
		}
	}
	return errors.Join(errs...)
}

// Failed returns the number of blocks that failed.
func (r *Result) Failed() int {
	n := 0
	for _, b := range r.Blocks {
		if b.Err != nil {
			n++
		}
	}
	return n
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithLogger sets the logger for per-block events. The default discards.
func WithLogger(l *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithRenderer replaces the LilyPond renderer.
func WithRenderer(r Renderer) ProcessorOption {
	return func(p *Processor) {
		if r != nil {
			p.renderer = r
		}
	}
}

// WithKeyword sets the keyword that names blocks, "markyond" by default.
func WithKeyword(keyword string) ProcessorOption {
	return func(p *Processor) {
		p.keyword = keyword
	}
}

// Processor replaces delimited LilyPond blocks in a document with references
// to rendered artifacts. It holds no per-document state and is safe for
// concurrent use; processors may share a cache directory.
type Processor struct {
	cfg      Config
	keyword  string
	scanner  *block.Scanner
	renderer Renderer
	logger   *slog.Logger
}

// NewProcessor creates a Processor. Empty Config fields take their defaults.
func NewProcessor(cfg Config, opts ...ProcessorOption) (*Processor, error) {
	p := &Processor{
		cfg:     cfg.withDefaults(),
		keyword: DefaultKeyword,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}
	if !validKeyword(p.keyword) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKeyword, p.keyword)
	}
	if p.renderer == nil {
		p.renderer = render.NewLilyPond("", 0)
	}
	p.scanner = block.NewScanner(p.keyword)
	return p, nil
}

// Config returns the document-wide configuration, defaults applied.
func (p *Processor) Config() Config {
	return p.cfg
}

// Keyword returns the block keyword.
func (p *Processor) Keyword() string {
	return p.keyword
}

// Process replaces every block of doc, in document order. A block that
// fails is replaced by an error marker and reported in Result.Blocks; the
// returned error is only set when ctx is done before the end.
func (p *Processor) Process(ctx context.Context, doc string) (*Result, error) {
	return p.run(ctx, doc, func(_ int, br BlockResult) string { return br.Markup })
}

// run drives Process; substitute decides what text replaces the i-th block.
func (p *Processor) run(ctx context.Context, doc string, substitute func(i int, br BlockResult) string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{}
	var ctxErr error
	text := p.scanner.Replace(doc, func(b block.Block) string {
		if ctxErr != nil {
			return doc[b.Start:b.End]
		}
		br := p.processBlock(ctx, b)
		if err := ctx.Err(); err != nil {
			ctxErr = err
			return doc[b.Start:b.End]
		}
		res.Blocks = append(res.Blocks, br)
		return substitute(len(res.Blocks)-1, br)
	})
	if ctxErr != nil {
		return nil, ctxErr
	}

	res.Text = text
	return res, nil
}

// processBlock runs one block through parse, resolve, cache, render and
// publish. Every error ends up in the result, never in a panic or return.
func (p *Processor) processBlock(ctx context.Context, b block.Block) BlockResult {
	br := BlockResult{Line: b.Line}
	fail := func(err error) BlockResult {
		br.Err = err
		br.Markup = errorMarker(b.Line, err)
		p.logger.Warn("block failed",
			slog.Int("line", b.Line),
			slog.String("output_file", br.OutputFile),
			slog.String("fingerprint", br.Fingerprint),
			slog.Any("error", err),
		)
		return br
	}

	attrs, err := block.ParseAttributes(b.RawTag, p.keyword)
	if err != nil {
		return fail(err)
	}
	br.OutputFile, _ = attrs.Get(AttrOutputFile)

	s, err := resolveSettings(p.cfg, attrs)
	if err != nil {
		return fail(err)
	}
	br.settings = s
	br.Format = s.Format
	br.Fingerprint = cache.Fingerprint(b.Body, s.fingerprintAttrs(), renderKeys)

	store, artifact, hit, err := lookupEntry(s, br.Fingerprint)
	if err != nil {
		return fail(err)
	}
	br.CacheHit = hit

	if hit {
		p.logger.Debug("cache hit",
			slog.Int("line", b.Line),
			slog.String("fingerprint", br.Fingerprint),
			slog.String("format", s.Format),
		)
	} else {
		artifact, err = p.render(ctx, store, br.Fingerprint, b.Body, s)
		if err != nil {
			return fail(err)
		}
		p.logger.Info("block rendered",
			slog.Int("line", b.Line),
			slog.String("output_file", s.OutputFile),
			slog.String("fingerprint", br.Fingerprint),
			slog.String("format", s.Format),
		)
	}

	markup, err := materialize.Materialize(artifact, s.target())
	if err != nil {
		return fail(err)
	}
	br.Markup = markup
	return br
}

// render compiles body in a scratch directory of the store and moves the
// artifact into the store.
func (p *Processor) render(ctx context.Context, store *cache.Store, fingerprint, body string, s Settings) (string, error) {
	work, cleanup, err := store.WorkDir()
	if err != nil {
		return "", err
	}
	defer cleanup()

	artifact, err := p.renderer.Render(ctx, RenderRequest{
		Source:     body,
		Format:     s.Format,
		WorkDir:    work,
		Resolution: s.Resolution,
	})
	if err != nil {
		return "", err
	}
	return store.Put(fingerprint, s.Format, artifact)
}

// errorMarker is the visible, escaped replacement of a failed block.
func errorMarker(line int, err error) string {
	msg := fmt.Sprintf("markyond: line %d: %s", line, err)
	return `<span class="` + ErrorClass + `">` + html.EscapeString(msg) + `</span>`
}

func validKeyword(k string) bool {
	if k == "" {
		return false
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		if !(c == '_' || c == '-' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			return false
		}
	}
	return true
}

// Inspect lists the blocks of doc with their cache status without rendering
// or publishing anything. Blocks that cannot be resolved carry their error.
func (p *Processor) Inspect(doc string) []BlockResult {
	blocks := p.scanner.Scan(doc)
	out := make([]BlockResult, 0, len(blocks))
	for _, b := range blocks {
		br := BlockResult{Line: b.Line}
		attrs, err := block.ParseAttributes(b.RawTag, p.keyword)
		if err != nil {
			br.Err = err
			out = append(out, br)
			continue
		}
		br.OutputFile, _ = attrs.Get(AttrOutputFile)
		s, err := resolveSettings(p.cfg, attrs)
		if err != nil {
			br.Err = err
			out = append(out, br)
			continue
		}
		br.settings = s
		br.Format = s.Format
		br.Fingerprint = cache.Fingerprint(b.Body, s.fingerprintAttrs(), renderKeys)
		_, _, br.CacheHit, br.Err = lookupEntry(s, br.Fingerprint)
		out = append(out, br)
	}
	return out
}

// lookupEntry opens the cache the settings point at and looks up the entry
// for fingerprint.
func lookupEntry(s Settings, fingerprint string) (store *cache.Store, path string, hit bool, err error) {
	store, err = cache.New(s.CacheDir)
	if err != nil {
		return nil, "", false, err
	}
	path, hit, err = store.Lookup(fingerprint, s.Format)
	if err != nil {
		return nil, "", false, err
	}
	return store, path, hit, nil
}

// Settings returns the effective settings the block was processed with.
// The zero value is returned for blocks that failed before resolution.
func (br BlockResult) Settings() Settings {
	return br.settings
}
