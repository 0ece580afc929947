package main

// Notes:
// - convertBatch is driven through mock Pool and CLIConverter implementations;
//   the real pool is covered by TestRunConvert_*.
// - Duration values are not asserted: they depend on the machine.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/raphigaziano/markyond"
)

// mockConverter echoes the document upper-cased, with optional block results.
type mockConverter struct {
	mu     sync.Mutex
	inputs []markyond.Input
	blocks []markyond.BlockResult
	err    error
}

func (m *mockConverter) Convert(_ context.Context, in markyond.Input) (*markyond.ConvertResult, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, in)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &markyond.ConvertResult{
		Text:   strings.ToUpper(in.Markdown),
		HTML:   []byte("<p>" + in.Markdown + "</p>"),
		Blocks: m.blocks,
	}, nil
}

// mockPool hands out one converter, or fails every Acquire.
type mockPool struct {
	conv       CLIConverter
	acquireErr error
	size       int
}

func (p *mockPool) Acquire(context.Context) (CLIConverter, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	return p.conv, nil
}

func (p *mockPool) Release(CLIConverter) {}

func (p *mockPool) Size() int {
	if p.size == 0 {
		return 1
	}
	return p.size
}

func writeSources(t *testing.T, dir string, names ...string) []FileToConvert {
	t.Helper()
	files := make([]FileToConvert, 0, len(names))
	for _, n := range names {
		in := filepath.Join(dir, n)
		if err := os.WriteFile(in, []byte("# "+n+"\nbody\n"), 0o600); err != nil {
			t.Fatalf("setup: %v", err)
		}
		files = append(files, FileToConvert{
			InputPath:  in,
			OutputPath: filepath.Join(dir, "out", n),
		})
	}
	return files
}

// ---------------------------------------------------------------------------
// TestConvertBatch
// ---------------------------------------------------------------------------

func TestConvertBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := writeSources(t, dir, "a.md", "b.md", "c.md")
	conv := &mockConverter{}
	pool := &mockPool{conv: conv, size: 2}

	results := convertBatch(context.Background(), pool, files, &conversionParams{to: markyond.ToMarkdown})
	if len(results) != len(files) {
		t.Fatalf("got %d results, want %d", len(results), len(files))
	}

	for i, r := range results {
		if r.Err != nil {
			t.Errorf("results[%d].Err = %v", i, r.Err)
			continue
		}
		if r.InputPath != files[i].InputPath {
			t.Errorf("results[%d] out of order: %s", i, r.InputPath)
		}
		got := readFile(t, r.OutputPath)
		if !strings.HasPrefix(got, "# "+strings.ToUpper(filepath.Base(r.InputPath))) {
			t.Errorf("output %s = %q", r.OutputPath, got)
		}
	}

	for _, in := range conv.inputs {
		if in.SourceDir != dir {
			t.Errorf("SourceDir = %q, want %q", in.SourceDir, dir)
		}
		if !strings.HasSuffix(in.Title, ".md") {
			t.Errorf("Title = %q, want the first heading", in.Title)
		}
	}
}

func TestConvertBatch_HTMLOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	files := writeSources(t, dir, "a.md")
	pool := &mockPool{conv: &mockConverter{}}

	results := convertBatch(context.Background(), pool, files, &conversionParams{to: markyond.ToHTML, title: "Fixed"})
	if results[0].Err != nil {
		t.Fatalf("Err = %v", results[0].Err)
	}
	if got := readFile(t, files[0].OutputPath); !strings.HasPrefix(got, "<p>") {
		t.Errorf("html output = %q", got)
	}
	if conv := pool.conv.(*mockConverter); conv.inputs[0].Title != "Fixed" {
		t.Errorf("Title = %q, want Fixed", conv.inputs[0].Title)
	}
}

func TestConvertBatch_Empty(t *testing.T) {
	t.Parallel()

	if got := convertBatch(context.Background(), &mockPool{}, nil, &conversionParams{}); got != nil {
		t.Errorf("convertBatch(nil) = %v, want nil", got)
	}
}

func TestConvertBatch_AcquireError(t *testing.T) {
	t.Parallel()

	files := writeSources(t, t.TempDir(), "a.md", "b.md")
	pool := &mockPool{acquireErr: markyond.ErrStyleNotFound, size: 4}

	for _, r := range convertBatch(context.Background(), pool, files, &conversionParams{}) {
		if !errors.Is(r.Err, ErrConverterInit) || !errors.Is(r.Err, markyond.ErrStyleNotFound) {
			t.Errorf("%s: Err = %v, want converter init wrapping the cause", r.InputPath, r.Err)
		}
	}
}

func TestConvertBatch_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	missing := FileToConvert{InputPath: filepath.Join(dir, "gone.md"), OutputPath: filepath.Join(dir, "gone.out.md")}
	results := convertBatch(context.Background(), &mockPool{conv: &mockConverter{}}, []FileToConvert{missing}, &conversionParams{})
	if !errors.Is(results[0].Err, ErrReadMarkdown) {
		t.Errorf("missing input Err = %v, want %v", results[0].Err, ErrReadMarkdown)
	}

	files := writeSources(t, dir, "a.md")
	failing := &mockConverter{err: markyond.ErrBrowserConnect}
	results = convertBatch(context.Background(), &mockPool{conv: failing}, files, &conversionParams{})
	if !errors.Is(results[0].Err, markyond.ErrBrowserConnect) {
		t.Errorf("Err = %v, want %v", results[0].Err, markyond.ErrBrowserConnect)
	}
	if _, err := os.Stat(files[0].OutputPath); !os.IsNotExist(err) {
		t.Error("output written for a failed conversion")
	}
}

func TestConvertBatch_BlockFailuresStillWritten(t *testing.T) {
	t.Parallel()

	files := writeSources(t, t.TempDir(), "a.md")
	conv := &mockConverter{blocks: []markyond.BlockResult{
		{Line: 3},
		{Line: 9, Err: markyond.ErrMissingOutputFile},
	}}

	results := convertBatch(context.Background(), &mockPool{conv: conv}, files, &conversionParams{})
	if results[0].Err != nil {
		t.Fatalf("Err = %v, block failures are not conversion failures", results[0].Err)
	}
	if results[0].failedBlocks() != 1 {
		t.Errorf("failedBlocks() = %d, want 1", results[0].failedBlocks())
	}
	if _, err := os.Stat(files[0].OutputPath); err != nil {
		t.Errorf("output not written: %v", err)
	}
}

func TestConvertBatch_Cancelled(t *testing.T) {
	t.Parallel()

	files := writeSources(t, t.TempDir(), "a.md")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := convertBatch(ctx, &mockPool{conv: &mockConverter{}}, files, &conversionParams{})
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", results[0].Err)
	}
}

// ---------------------------------------------------------------------------
// TestDocumentTitle
// ---------------------------------------------------------------------------

func TestDocumentTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fixed    string
		markdown string
		path     string
		want     string
	}{
		{"fixed wins", "Book", "# Heading", "a.md", "Book"},
		{"first heading", "", "intro\n\n# Scales  \n\n# Later", "a.md", "Scales"},
		{"subheading ignored", "", "## Part", "docs/etude-1.md", "etude-1"},
		{"file name", "", "no heading", "docs/etude.markdown", "etude"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := documentTitle(tt.fixed, tt.markdown, tt.path); got != tt.want {
				t.Errorf("documentTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestPrintResults - Per-file lines, block warnings and summary
// ---------------------------------------------------------------------------

func TestPrintResults(t *testing.T) {
	t.Parallel()

	results := []ConversionResult{
		{InputPath: "a.md", OutputPath: "a.out.md", Blocks: []markyond.BlockResult{{Line: 2}}},
		{
			InputPath:  "b.md",
			OutputPath: "b.out.md",
			Blocks: []markyond.BlockResult{
				{Line: 4, Err: &markyond.CompileError{ExitCode: 1, Output: "b.ly:1:1: error: unknown escaped string"}},
				{Line: 12},
			},
		},
		{InputPath: "c.md", Err: fmt.Errorf("%w: boom", ErrReadMarkdown)},
	}

	te := newTestEnv(nil)
	summary := printResultsWithWriter(results, false, false, te.Environment)

	if summary != (ResultSummary{Succeeded: 2, Failed: 1, FailedBlocks: 1}) {
		t.Errorf("summary = %+v", summary)
	}

	stdout := te.stdout.String()
	for _, want := range []string{"Created a.out.md", "Created b.out.md", "2 succeeded, 1 failed"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	stderr := te.stderr.String()
	for _, want := range []string{
		"FAILED c.md:",
		"WARN b.out.md: 1 of 2 block(s) failed",
		"b.md:4: lilypond exited with status 1: b.ly:1:1: error: unknown escaped string",
		"hint: run `markyond blocks b.md`",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestPrintResults_QuietAndVerbose(t *testing.T) {
	t.Parallel()

	results := []ConversionResult{{InputPath: "a.md", OutputPath: "a.html"}}

	te := newTestEnv(nil)
	printResultsWithWriter(results, true, false, te.Environment)
	if te.stdout.Len() != 0 {
		t.Errorf("quiet stdout = %q", te.stdout)
	}

	te = newTestEnv(nil)
	printResultsWithWriter(results, false, true, te.Environment)
	if !strings.Contains(te.stdout.String(), "a.md -> a.html (0 block(s)") {
		t.Errorf("verbose stdout = %q", te.stdout)
	}
	if strings.Contains(te.stdout.String(), "succeeded") {
		t.Error("summary printed for a single file")
	}
}

// ---------------------------------------------------------------------------
// TestBatchError
// ---------------------------------------------------------------------------

func TestBatchError(t *testing.T) {
	t.Parallel()

	ok := ConversionResult{InputPath: "a.md"}
	blockFail := ConversionResult{InputPath: "b.md", Blocks: []markyond.BlockResult{{Err: markyond.ErrMissingOutputFile}}}
	convFail := ConversionResult{InputPath: "c.md", Err: ErrWriteOutput}

	tests := []struct {
		name    string
		results []ConversionResult
		want    error
	}{
		{"all fine", []ConversionResult{ok}, nil},
		{"block failure", []ConversionResult{ok, blockFail}, ErrBlocksFailed},
		{"conversion failure wins", []ConversionResult{blockFail, convFail}, ErrWriteOutput},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := batchError(tt.results, countResults(tt.results))
			if tt.want == nil {
				if err != nil {
					t.Errorf("batchError() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("batchError() = %v, want %v", err, tt.want)
			}
		})
	}
}
