package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/raphigaziano/markyond"
)

// stdinPath selects standard input as the document.
const stdinPath = "-"

// conversion is everything a convert or watch run needs once flags,
// environment and config file are merged.
type conversion struct {
	settings *settings
	params   *conversionParams
	opts     []markyond.Option
	workers  int
}

// runConvertCmd parses flags, runs the conversion and reports errors.
func runConvertCmd(ctx context.Context, args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags("convert", args, env.Stderr)
	if err != nil {
		return usageExit(err)
	}
	err = runConvert(ctx, positional, flags, env)
	return report(env, err, configNameFor(flags.common, env))
}

// prepareConversion merges flags over the environment and config file and
// builds the converter options.
func prepareConversion(flags *convertFlags, env *Environment) (*conversion, error) {
	if err := validateWorkers(flags.workers); err != nil {
		return nil, err
	}

	s, err := loadSettings(flags.common, env)
	if err != nil {
		return nil, err
	}
	mergeBlockFlags(flags.blocks, s.cfg)
	if err := mergeRendererFlags(flags.renderer, s.cfg); err != nil {
		return nil, err
	}
	mergePageFlags(flags.page, s.cfg)

	var pdfTimeout time.Duration
	if flags.page.pdfTimeout != "" {
		if pdfTimeout, err = parseTimeout(flags.page.pdfTimeout); err != nil {
			return nil, err
		}
	}

	to, err := normalizeTarget(flags.to)
	if err != nil {
		return nil, err
	}

	proc, err := newProcessor(s.cfg, flags.common, env)
	if err != nil {
		return nil, err
	}

	workers := flags.workers
	if workers == 0 {
		workers = s.envWorkers
	}

	return &conversion{
		settings: s,
		params:   &conversionParams{to: to, title: s.cfg.HTML.Title},
		opts:     converterOptions(s.cfg, proc, pdfTimeout),
		workers:  workers,
	}, nil
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positional []string, flags *convertFlags, env *Environment) error {
	conv, err := prepareConversion(flags, env)
	if err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positional)
	if err != nil {
		return err
	}
	if inputPath == stdinPath {
		return convertStream(ctx, conv, flags.output, env)
	}

	files, err := discoverFiles(inputPath, flags.output, conv.params.to)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no markdown files found in %s", ErrNoInput, inputPath)
	}

	pool := newConverterPool(conv.workers, conv.opts...)
	defer pool.Close()
	if flags.common.verbose {
		fmt.Fprintf(env.Stderr, "Pool size: %d\n", pool.Size())
	}

	results := convertBatch(ctx, pool, files, conv.params)
	summary := printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env)
	if err := ctx.Err(); err != nil {
		return err
	}
	return batchError(results, summary)
}

// convertStream converts standard input, writing to output or, when
// empty, to standard output.
func convertStream(ctx context.Context, conv *conversion, output string, env *Environment) error {
	content, err := io.ReadAll(env.Stdin)
	if err != nil {
		return fmt.Errorf("%w: stdin: %v", ErrReadMarkdown, err)
	}

	c, err := markyond.NewConverter(conv.opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	markdown := string(content)
	res, err := c.Convert(ctx, markyond.Input{
		Markdown:  markdown,
		To:        conv.params.to,
		SourceDir: ".",
		Title:     documentTitle(conv.params.title, markdown, "stdin"),
	})
	if err != nil {
		return err
	}

	data := outputBytes(res, conv.params.to)
	if output == "" {
		if _, err := env.Stdout.Write(data); err != nil {
			return fmt.Errorf("%w: stdout: %v", ErrWriteOutput, err)
		}
	} else if err := writeOutput(output, data); err != nil {
		return err
	}

	if n := res.Failed(); n > 0 {
		printBlockErrors(env.Stderr, "stdin", res.Blocks)
		return fmt.Errorf("%w: %d block(s)", ErrBlocksFailed, n)
	}
	return nil
}

// resolveInputPath returns the single positional argument.
func resolveInputPath(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", fmt.Errorf("%w: give a file, a directory, or - for stdin", ErrNoInput)
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("%w: expected one input, got %d", ErrNoInput, len(args))
	}
}

// normalizeTarget validates --to and returns the canonical target.
func normalizeTarget(to string) (string, error) {
	switch to {
	case "", markyond.ToMarkdown, "md":
		return markyond.ToMarkdown, nil
	case markyond.ToHTML, markyond.ToPDF:
		return to, nil
	}
	return "", fmt.Errorf("%w: %q (must be markdown, html or pdf)", markyond.ErrUnsupportedTarget, to)
}
