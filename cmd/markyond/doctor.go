package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"

	"github.com/raphigaziano/markyond"
	"github.com/raphigaziano/markyond/internal/fileutil"
	"github.com/raphigaziano/markyond/internal/hints"
	"github.com/raphigaziano/markyond/internal/render"
)

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string       `json:"status"` // "ready", "warnings", "errors"
	LilyPond lilypondInfo `json:"lilypond"`
	Chrome   chromeInfo   `json:"chrome"`
	Env      envInfo      `json:"environment"`
	System   systemInfo   `json:"system"`
	Warnings []string     `json:"warnings,omitempty"`
	Errors   []string     `json:"errors,omitempty"`
}

// lilypondInfo holds renderer detection results.
type lilypondInfo struct {
	Found   bool   `json:"found"`
	Binary  string `json:"binary"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
}

// chromeInfo holds Chrome/Chromium detection results. Chrome is only
// needed by --to pdf, so its absence is a warning.
type chromeInfo struct {
	Found   bool   `json:"found"`
	Path    string `json:"path,omitempty"`
	Version string `json:"version,omitempty"`
	Sandbox bool   `json:"sandbox"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"rod_browser_bin"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable  bool   `json:"temp_writable"`
	CacheDir      string `json:"cache_dir"`
	CacheWritable bool   `json:"cache_writable"`
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(ctx context.Context, args []string, env *Environment) int {
	flags, _, err := parseToolFlags("doctor", args, env.Stderr, printDoctorUsage)
	if err != nil {
		return usageExit(err)
	}

	s, err := loadSettings(flags.common, env)
	if err != nil {
		return report(env, err, configNameFor(flags.common, env))
	}
	if flags.lilypond != "" {
		s.cfg.LilyPond.Bin = flags.lilypond
	}
	if flags.cacheDir != "" {
		s.cfg.CacheDir = flags.cacheDir
	}

	result := runDoctor(ctx, s.cfg.LilyPond.Bin, cacheDir(s.cfg), env)

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(ctx context.Context, lilypondBin, cacheDir string, env *Environment) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  env.getenv("ROD_NO_SANDBOX"),
			BrowserBin: env.getenv("ROD_BROWSER_BIN"),
		},
	}

	checkLilyPond(ctx, result, lilypondBin)
	checkChrome(result)
	checkEnvironment(result, env)
	checkSystem(result, cacheDir)

	// Determine final status
	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkLilyPond locates the renderer and asks it for its version.
func checkLilyPond(ctx context.Context, result *doctorResult, bin string) {
	if bin == "" {
		bin = render.DefaultBinary
	}
	result.LilyPond.Binary = bin

	path, err := exec.LookPath(bin)
	if err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("lilypond not found (%s). Install LilyPond or set MARKYOND_LILYPOND", bin))
		return
	}
	result.LilyPond.Found = true
	result.LilyPond.Path = path

	version, err := markyond.NewLilyPondRenderer(path, 0).Version(ctx)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get lilypond version: %v", err))
		return
	}
	result.LilyPond.Version = version
}

// checkChrome detects Chrome/Chromium installation.
func checkChrome(result *doctorResult) {
	chromePath := result.Env.BrowserBin

	if chromePath == "" {
		var found bool
		chromePath, found = launcher.LookPath()
		if !found {
			result.Warnings = append(result.Warnings,
				"Chrome/Chromium not found, --to pdf is unavailable. Install Chrome or set ROD_BROWSER_BIN")
			return
		}
	}

	if _, err := os.Stat(chromePath); err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Chrome not found at %s", chromePath))
		return
	}

	result.Chrome.Found = true
	result.Chrome.Path = chromePath

	out, err := exec.Command(chromePath, "--version").Output() // #nosec G204 -- browser path from rod or ROD_BROWSER_BIN
	if err == nil {
		result.Chrome.Version = strings.TrimSpace(string(out))
	} else {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get Chrome version: %v", err))
	}

	result.Chrome.Sandbox = result.Env.NoSandbox != "1"
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, env *Environment) {
	result.Env.Container, result.Env.ContainerHint = isContainer(env)

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if env.getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if result.Chrome.Found && (result.Env.Container || result.Env.CI) && result.Env.NoSandbox != "1" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but ROD_NO_SANDBOX not set. Set ROD_NO_SANDBOX=1 for --to pdf")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(env *Environment) (bool, string) {
	if env.getenv("MARKYOND_CONTAINER") == "1" {
		return true, "MARKYOND_CONTAINER=1"
	}
	if fileutil.FileExists("/.dockerenv") {
		return true, "/.dockerenv"
	}
	if v := env.getenv("container"); v != "" {
		return true, "container=" + v
	}
	if env.getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp and cache directories can be written.
// A missing cache directory is fine if its nearest existing parent is
// writable, since it is created on first use.
func checkSystem(result *doctorResult, cacheDir string) {
	tmpDir := os.TempDir()
	if fileutil.IsDirWritable(tmpDir) {
		result.System.TempWritable = true
	} else {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", tmpDir))
	}

	result.System.CacheDir = cacheDir
	if fileutil.IsDirWritable(nearestExistingDir(cacheDir)) {
		result.System.CacheWritable = true
	} else {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Cache directory not writable: %s", cacheDir))
	}
}

// nearestExistingDir walks up from dir to the first directory that exists.
func nearestExistingDir(dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "markyond doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "LilyPond")
	if r.LilyPond.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.LilyPond.Path)
		if r.LilyPond.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.LilyPond.Version)
		}
	} else {
		fmt.Fprintf(w, "  [ERROR] %s not found\n", r.LilyPond.Binary)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Chrome/Chromium (--to pdf)")
	if r.Chrome.Found {
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Chrome.Path)
		if r.Chrome.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Chrome.Version)
		}
		if r.Chrome.Sandbox {
			fmt.Fprintln(w, "  [OK] Sandbox: enabled")
		} else {
			fmt.Fprintln(w, "  [OK] Sandbox: disabled (ROD_NO_SANDBOX=1)")
		}
	} else {
		fmt.Fprintln(w, "  [WARN] Not found")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	if r.System.CacheWritable {
		fmt.Fprintf(w, "  [OK] Cache directory: %s\n", r.System.CacheDir)
	} else {
		fmt.Fprintf(w, "  [ERROR] Cache directory: %s not writable%s\n", r.System.CacheDir, hints.ForCacheDirectory(r.System.CacheDir))
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", err)
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
