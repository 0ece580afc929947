package main

// Notes:
// - Shared fakes and fixtures for the command tests. No production code here.
// - fakeRenderer writes an artifact named like lilypond's, so the processor
//   exercises the real cache and publish steps.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/raphigaziano/markyond"
)

// songDoc has one block, opening on line 5.
const songDoc = "# Song\n\nIntro.\n\n{{markyond output_file=\"scale.png\"}}\nc d e\n{{/markyond}}\n\nOutro.\n"

// fakeRenderer stands in for lilypond.
type fakeRenderer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRenderer) Render(_ context.Context, req markyond.RenderRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return "", f.err
	}
	path := filepath.Join(req.WorkDir, "score."+req.Format)
	if err := os.WriteFile(path, []byte("ART:"+req.Source), 0o600); err != nil {
		return "", err
	}
	return path, nil
}

func (f *fakeRenderer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// testEnv is an Environment with captured output and a fixed process
// environment.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	vars   map[string]string
}

func newTestEnv(r markyond.Renderer) *testEnv {
	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		vars:   map[string]string{},
	}
	te.Environment = &Environment{
		Now:    func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
		Stdin:  strings.NewReader(""),
		Stdout: te.stdout,
		Stderr: te.stderr,
		Getenv: func(k string) string { return te.vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(te.vars))
			for k, v := range te.vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		Renderer: r,
	}
	return te
}

// workspace is a temp directory with separate source, artifact and cache
// directories.
type workspace struct {
	root      string
	outputDir string
	cacheDir  string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	root := t.TempDir()
	return workspace{
		root:      root,
		outputDir: filepath.Join(root, "public"),
		cacheDir:  filepath.Join(root, "cache"),
	}
}

// write creates a file under the workspace root and returns its path.
func (w workspace) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(w.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return path
}

// dirFlags points artifacts and cache into the workspace.
func (w workspace) dirFlags() []string {
	return []string{"--output-dir", w.outputDir, "--cache-dir", w.cacheDir}
}

// cmdArgs builds os.Args-like arguments.
func cmdArgs(cmd string, args ...string) []string {
	return append([]string{"markyond", cmd}, args...)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
