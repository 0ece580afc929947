package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// blockFlags holds the document-wide block settings.
type blockFlags struct {
	outputDir  string
	outputFmt  string
	baseURL    string
	cacheDir   string
	keyword    string
	resolution int
}

// rendererFlags holds flags for the LilyPond invocation.
type rendererFlags struct {
	lilypond string
	timeout  string
}

// pageFlags holds flags for the html and pdf targets.
type pageFlags struct {
	title      string
	style      string
	assetPath  string
	highlight  string
	pdfTimeout string
}

// convertFlags holds all flags for the convert and watch commands.
type convertFlags struct {
	common   commonFlags
	blocks   blockFlags
	renderer rendererFlags
	page     pageFlags
	output   string
	to       string
	workers  int
	debounce string // watch only
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing and block events")
}

// addBlockFlags adds document-wide block settings to a FlagSet.
func addBlockFlags(fs *flag.FlagSet, f *blockFlags) {
	fs.StringVar(&f.outputDir, "output-dir", "", "directory artifacts are published to")
	fs.StringVar(&f.outputFmt, "output-fmt", "", "artifact format: png, svg, pdf")
	fs.StringVar(&f.baseURL, "base-url", "", "prefix of artifact references")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "directory rendered artifacts are cached in")
	fs.StringVar(&f.keyword, "keyword", "", "block keyword")
	fs.IntVar(&f.resolution, "resolution", 0, "raster resolution in DPI (0 = renderer default)")
}

// addRendererFlags adds LilyPond flags to a FlagSet.
func addRendererFlags(fs *flag.FlagSet, f *rendererFlags) {
	fs.StringVar(&f.lilypond, "lilypond", "", "lilypond executable")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "renderer time limit per block (e.g., 90s, 2m)")
}

// addPageFlags adds html and pdf page flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVar(&f.title, "title", "", "page title")
	fs.StringVar(&f.style, "style", "", "page style: name, CSS file path, or CSS")
	fs.StringVar(&f.assetPath, "asset-path", "", "directory searched for styles/<name>.css")
	fs.StringVar(&f.highlight, "highlight", "", "code highlight style (none to disable)")
	fs.StringVar(&f.pdfTimeout, "pdf-timeout", "", "PDF generation timeout (e.g., 30s, 2m)")
}

// newConvertFlagSet registers the convert or watch flags into f.
func newConvertFlagSet(name string, f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVar(&f.to, "to", "", "target: markdown, html, pdf")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	if name == "watch" {
		fs.StringVar(&f.debounce, "debounce", "", "delay before converting changed files")
	}

	addCommonFlags(fs, &f.common)
	addBlockFlags(fs, &f.blocks)
	addRendererFlags(fs, &f.renderer)
	addPageFlags(fs, &f.page)
	return fs
}

// parseConvertFlags parses convert or watch flags and returns positional args.
// Errors and usage are written to w.
func parseConvertFlags(name string, args []string, w io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{}
	fs := newConvertFlagSet(name, f)
	fs.SetOutput(w)
	fs.Usage = func() {
		if name == "watch" {
			printWatchUsage(w)
			return
		}
		printConvertUsage(w)
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// blocksFlags holds flags for the blocks command.
type blocksFlags struct {
	common commonFlags
	blocks blockFlags
	json   bool
}

// newBlocksFlagSet registers the blocks flags into f.
func newBlocksFlagSet(f *blocksFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("blocks", flag.ContinueOnError)
	fs.BoolVar(&f.json, "json", false, "output as JSON")
	addCommonFlags(fs, &f.common)
	addBlockFlags(fs, &f.blocks)
	return fs
}

// parseBlocksFlags parses blocks command flags.
func parseBlocksFlags(args []string, w io.Writer) (*blocksFlags, []string, error) {
	f := &blocksFlags{}
	fs := newBlocksFlagSet(f)
	fs.SetOutput(w)
	fs.Usage = func() { printBlocksUsage(w) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// toolFlags holds flags for the cache, config and doctor commands.
type toolFlags struct {
	common   commonFlags
	cacheDir string
	lilypond string
	json     bool
}

// newToolFlagSet registers the flags of a maintenance command into f.
func newToolFlagSet(name string, f *toolFlags) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	addCommonFlags(fs, &f.common)
	fs.StringVar(&f.cacheDir, "cache-dir", "", "cache directory")
	if name == "doctor" {
		fs.StringVar(&f.lilypond, "lilypond", "", "lilypond executable")
		fs.BoolVar(&f.json, "json", false, "output as JSON")
	}
	return fs
}

// parseToolFlags parses flags for a maintenance command. usage prints
// the command help.
func parseToolFlags(name string, args []string, w io.Writer, usage func(io.Writer)) (*toolFlags, []string, error) {
	f := &toolFlags{}
	fs := newToolFlagSet(name, f)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}
