package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/raphigaziano/markyond"
	"github.com/raphigaziano/markyond/internal/fileutil"
	"github.com/raphigaziano/markyond/internal/hints"
)

// Sentinel errors for batch operations.
var (
	ErrNoInput       = errors.New("no input specified")
	ErrReadMarkdown  = errors.New("failed to read markdown file")
	ErrWriteOutput   = errors.New("failed to write output file")
	ErrConverterInit = errors.New("failed to initialize converter")
	ErrBlocksFailed  = errors.New("one or more blocks failed")
)

// conversionParams groups parameters shared across batch/file conversion.
type conversionParams struct {
	to    string
	title string // fixed page title; empty derives it from each document
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Blocks     []markyond.BlockResult
	Err        error
	Duration   time.Duration
}

// failedBlocks returns the number of blocks of r that failed.
func (r ConversionResult) failedBlocks() int {
	n := 0
	for _, b := range r.Blocks {
		if b.Err != nil {
			n++
		}
	}
	return n
}

// ResultSummary tallies a batch.
type ResultSummary struct {
	Succeeded    int
	Failed       int
	FailedBlocks int
}

// convertBatch processes files concurrently using the converter pool.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := pool.Size()
	if concurrency > len(files) {
		concurrency = len(files)
	}

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire(ctx)
			if err != nil {
				// Converter creation failed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       fmt.Errorf("%w: %w", ErrConverterInit, err),
					}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile processes a single file and returns the result. A document
// with failed blocks is still written: each failed block carries an error
// marker in the output.
func convertFile(ctx context.Context, conv CLIConverter, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %v", ErrReadMarkdown, err)
		result.Duration = time.Since(start)
		return result
	}

	markdown := string(content)
	res, err := conv.Convert(ctx, markyond.Input{
		Markdown:  markdown,
		To:        params.to,
		SourceDir: filepath.Dir(f.InputPath),
		Title:     documentTitle(params.title, markdown, f.InputPath),
	})
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Blocks = res.Blocks

	if err := writeOutput(f.OutputPath, outputBytes(res, params.to)); err != nil {
		result.Err = err
	}
	result.Duration = time.Since(start)
	return result
}

// outputBytes selects the conversion output written for target.
func outputBytes(res *markyond.ConvertResult, target string) []byte {
	switch target {
	case markyond.ToHTML:
		return res.HTML
	case markyond.ToPDF:
		return res.PDF
	default:
		return []byte(res.Text)
	}
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, fileutil.DirPermissions); err != nil {
			return fmt.Errorf("%w: %v%s", ErrWriteOutput, err, hints.ForOutputDirectory())
		}
	}
	if err := os.WriteFile(path, data, fileutil.FilePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// firstHeadingPattern matches the first # heading in markdown content.
var firstHeadingPattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// documentTitle returns fixed when set, else the first # heading of
// markdown, else the base name of path.
func documentTitle(fixed, markdown, path string) string {
	if fixed != "" {
		return fixed
	}
	if m := firstHeadingPattern.FindStringSubmatch(markdown); len(m) >= 2 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			continue
		}
		summary.Succeeded++
		summary.FailedBlocks += r.failedBlocks()
	}
	return summary
}

// printResultsWithWriter outputs conversion results using the provided writers.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, env *Environment) ResultSummary {
	summary := countResults(results)

	var firstBlockFailure string
	var rendererMissing bool
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if n := r.failedBlocks(); n > 0 {
			fmt.Fprintf(env.Stderr, "WARN %s: %d of %d block(s) failed\n", r.OutputPath, n, len(r.Blocks))
			printBlockErrors(env.Stderr, r.InputPath, r.Blocks)
			if firstBlockFailure == "" {
				firstBlockFailure = r.InputPath
			}
			rendererMissing = rendererMissing || blocksMatch(r.Blocks, markyond.ErrCompilerInvocation)
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%d block(s), %v)\n",
				r.InputPath, r.OutputPath, len(r.Blocks), r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if rendererMissing {
		fmt.Fprintln(env.Stderr, strings.TrimPrefix(hints.ForRendererNotFound(), "\n"))
	} else if firstBlockFailure != "" {
		fmt.Fprintln(env.Stderr, strings.TrimPrefix(hints.ForBlockFailures(firstBlockFailure), "\n"))
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary
}

// printBlockErrors writes one file:line line per failed block.
func printBlockErrors(w io.Writer, file string, blocks []markyond.BlockResult) {
	for _, b := range blocks {
		if b.Err != nil {
			fmt.Fprintf(w, "  %s:%d: %v\n", file, b.Line, b.Err)
		}
	}
}

// blocksMatch reports whether any block error matches target.
func blocksMatch(blocks []markyond.BlockResult, target error) bool {
	for _, b := range blocks {
		if errors.Is(b.Err, target) {
			return true
		}
	}
	return false
}

// batchError turns a summary into the command error, if any.
func batchError(results []ConversionResult, summary ResultSummary) error {
	if summary.Failed > 0 {
		for _, r := range results {
			if r.Err != nil {
				return fmt.Errorf("%d conversion(s) failed: %w", summary.Failed, r.Err)
			}
		}
	}
	if summary.FailedBlocks > 0 {
		return fmt.Errorf("%w: %d block(s)", ErrBlocksFailed, summary.FailedBlocks)
	}
	return nil
}
