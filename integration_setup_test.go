//go:build integration

package markyond

// Notes:
// - Integration tests run the real lilypond binary and a real Chrome. Run
//   them with `go test -tags integration ./...`.
// - A missing tool skips its tests instead of failing them. Chrome is looked
//   up with rod's launcher so the tests never trigger rod's Chromium download.

import (
	"bytes"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/raphigaziano/markyond/internal/render"
)

// integrationTimeout bounds one real lilypond or Chrome run.
const integrationTimeout = 2 * time.Minute

// scoreSource is a one-line score every LilyPond 2.x accepts.
const scoreSource = "{ c' d' e' f' g'1 }"

func requireLilyPond(t *testing.T) string {
	t.Helper()

	path, err := exec.LookPath(render.DefaultBinary)
	if err != nil {
		t.Skip("lilypond not found in PATH; install LilyPond to run these tests")
	}
	return path
}

func requireChrome(t *testing.T) {
	t.Helper()

	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		if _, err := os.Stat(bin); err == nil {
			return
		}
	}
	if _, ok := launcher.LookPath(); ok {
		return
	}
	t.Skip("Chrome not found; install Chrome or Chromium, or set ROD_BROWSER_BIN")
}

// assertFileMagic checks that the file at path starts with one of prefixes.
func assertFileMagic(t *testing.T, path string, prefixes ...string) {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	assertMagic(t, data, prefixes...)
}

func assertMagic(t *testing.T, data []byte, prefixes ...string) {
	t.Helper()

	for _, p := range prefixes {
		if bytes.HasPrefix(data, []byte(p)) {
			return
		}
	}
	t.Errorf("unexpected content prefix %q, want one of %q", data[:min(16, len(data))], prefixes)
}
