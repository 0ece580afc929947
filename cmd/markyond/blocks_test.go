package main

// Notes:
// - blocks never renders: every test asserts the renderer was not called.

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

const twoBlocksDoc = songDoc + "\n{{markyond}}\nc\n{{/markyond}}\n"

// ---------------------------------------------------------------------------
// TestRunBlocks - Table listing
// ---------------------------------------------------------------------------

func TestRunBlocks(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	input := ws.write(t, "song.md", twoBlocksDoc)
	renderer := &fakeRenderer{}
	te := newTestEnv(renderer)

	code := run(context.Background(), cmdArgs("blocks", append([]string{input}, ws.dirFlags()...)...), te.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d; stderr: %s", code, te.stderr)
	}

	lines := strings.Split(strings.TrimSpace(te.stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header and 2 rows:\n%s", len(lines), te.stdout)
	}
	if !strings.HasPrefix(lines[0], "LINE") {
		t.Errorf("header = %q", lines[0])
	}
	first := strings.Fields(lines[1])
	if first[0] != "5" || first[1] != filepath.Join(ws.outputDir, "scale.png") || first[2] != "png" || first[4] != "pending" {
		t.Errorf("first row = %q", lines[1])
	}
	if len(first[3]) != 12 {
		t.Errorf("fingerprint column = %q, want 12 characters", first[3])
	}
	if !strings.Contains(lines[2], "error: ") || !strings.HasPrefix(lines[2], "11") {
		t.Errorf("second row = %q, want an error on line 11", lines[2])
	}
	if renderer.count() != 0 {
		t.Errorf("renderer called %d times", renderer.count())
	}
}

func TestRunBlocks_CachedAfterConvert(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	input := ws.write(t, "song.md", songDoc)
	renderer := &fakeRenderer{}

	te := newTestEnv(renderer)
	if code := run(context.Background(), cmdArgs("convert", append([]string{input, "-q"}, ws.dirFlags()...)...), te.Environment); code != ExitSuccess {
		t.Fatalf("convert exit code = %d; stderr: %s", code, te.stderr)
	}

	te = newTestEnv(renderer)
	if code := run(context.Background(), cmdArgs("blocks", append([]string{input}, ws.dirFlags()...)...), te.Environment); code != ExitSuccess {
		t.Fatalf("blocks exit code = %d; stderr: %s", code, te.stderr)
	}
	if !strings.Contains(te.stdout.String(), "cached") {
		t.Errorf("stdout = %q, want cached status", te.stdout)
	}
	if renderer.count() != 1 {
		t.Errorf("renderer calls = %d, want 1", renderer.count())
	}
}

// ---------------------------------------------------------------------------
// TestRunBlocks_JSON
// ---------------------------------------------------------------------------

func TestRunBlocks_JSON(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	te := newTestEnv(&fakeRenderer{})
	te.Stdin = strings.NewReader(twoBlocksDoc)

	code := run(context.Background(), cmdArgs("blocks", append([]string{"-", "--json"}, ws.dirFlags()...)...), te.Environment)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d; stderr: %s", code, te.stderr)
	}

	var infos []blockInfo
	if err := json.Unmarshal(te.stdout.Bytes(), &infos); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, te.stdout)
	}
	if len(infos) != 2 {
		t.Fatalf("got %d blocks, want 2", len(infos))
	}
	if infos[0].Line != 5 || infos[0].OutputFile != "scale.png" || len(infos[0].Fingerprint) != 64 || infos[0].Cached {
		t.Errorf("infos[0] = %+v", infos[0])
	}
	if infos[1].Line != 11 || infos[1].Error == "" {
		t.Errorf("infos[1] = %+v, want an error", infos[1])
	}
}

func TestRunBlocks_Empty(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	input := ws.write(t, "plain.md", "# Nothing\n")
	te := newTestEnv(nil)

	if code := run(context.Background(), cmdArgs("blocks", input, "--cache-dir", ws.cacheDir), te.Environment); code != ExitSuccess {
		t.Fatalf("exit code = %d; stderr: %s", code, te.stderr)
	}
	if strings.TrimSpace(te.stdout.String()) != "no blocks" {
		t.Errorf("stdout = %q", te.stdout)
	}
}

func TestRunBlocks_Errors(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t)
	text := ws.write(t, "notes.txt", songDoc)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no input", nil, ExitIO},
		{"wrong extension", []string{text}, ExitUsage},
		{"missing file", []string{filepath.Join(ws.root, "nope.md")}, ExitIO},
		{"bad keyword", []string{text, "--keyword", "a b"}, ExitUsage},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			te := newTestEnv(&fakeRenderer{})
			if code := run(context.Background(), cmdArgs("blocks", tt.args...), te.Environment); code != tt.want {
				t.Errorf("exit code = %d, want %d; stderr: %s", code, tt.want, te.stderr)
			}
		})
	}
}
