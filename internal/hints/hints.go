// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"runtime"
	"strings"

	"github.com/raphigaziano/markyond/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// ForRendererNotFound returns hints when the lilypond executable cannot be
// started.
func ForRendererNotFound() string {
	install := "install LilyPond (https://lilypond.org/download.html)"
	switch runtime.GOOS {
	case "darwin":
		install = "install LilyPond (brew install lilypond)"
	case "linux":
		install = "install LilyPond (e.g. apt install lilypond)"
	}
	return formatHints([]string{install, "or point --lilypond / MARKYOND_LILYPOND at the binary"})
}

// ForRendererTimeout returns a hint about raising the renderer time limit.
func ForRendererTimeout() string {
	return format("for large scores, raise --timeout or lilypond.timeout")
}

// ForBrowserConnect returns hints for browser connection errors (--to pdf).
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	inCI := os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""

	if (inCI || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	return formatHints(hints)
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config and, when one was searched, the user config location.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if strings.Contains(filepathToSlash(p), "/markyond/") {
			hint += " or create " + p
			break
		}
	}
	return format(hint)
}

// ForCacheDirectory returns hints when the cache directory is not writable.
func ForCacheDirectory(dir string) string {
	return format("check " + dir + " is writable, or choose another with --cache-dir")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForHighlightStyle returns the available highlight styles.
func ForHighlightStyle(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: none, " + strings.Join(available, ", "))
}

// ForStyle returns the built-in page styles.
func ForStyle(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("built-in styles: " + strings.Join(available, ", ") + "; or pass a CSS file path")
}

// ForBlockFailures points at the command that lists every block.
func ForBlockFailures(file string) string {
	return format("run `markyond blocks " + file + "` to list blocks with their line numbers")
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
