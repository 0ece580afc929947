package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/raphigaziano/markyond/internal/fileutil"
)

// Defaults for the LilyPond renderer.
const (
	DefaultBinary   = "lilypond"
	DefaultTimeout  = 2 * time.Minute
	DefaultLogLevel = "BASIC"
)

// scoreName is the base name of the source and artifact inside the work directory.
const scoreName = "score"

// LilyPond renders requests with the lilypond command line tool.
type LilyPond struct {
	Runner   CommandRunner
	Binary   string
	Timeout  time.Duration
	LogLevel string
}

var _ Renderer = (*LilyPond)(nil)

// NewLilyPond creates a LilyPond renderer with a real command runner.
// An empty binary selects DefaultBinary, a zero timeout DefaultTimeout.
func NewLilyPond(binary string, timeout time.Duration) *LilyPond {
	return &LilyPond{
		Runner:  &ExecRunner{},
		Binary:  binary,
		Timeout: timeout,
	}
}

// Render writes req.Source to WorkDir/score.ly, compiles it and returns the
// path of WorkDir/score.<format>.
func (l *LilyPond) Render(ctx context.Context, req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", err
	}

	src := filepath.Join(req.WorkDir, scoreName+".ly")
	if err := os.WriteFile(src, []byte(req.Source), fileutil.FilePermissions); err != nil {
		return "", fmt.Errorf("writing score source: %w", err)
	}

	timeout := l.timeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	output, err := l.runner().Run(runCtx, req.WorkDir, l.binary(), l.args(req, src)...)
	if err != nil {
		return "", l.classify(ctx, runCtx, timeout, output, err)
	}

	artifact := filepath.Join(req.WorkDir, scoreName+"."+req.Format)
	if !fileutil.FileExists(artifact) {
		return "", fmt.Errorf("%w: expected %s", ErrMissingArtifact, artifact)
	}
	return artifact, nil
}

// Version returns the first line of `lilypond --version`.
func (l *LilyPond) Version(ctx context.Context) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	output, err := l.runner().Run(runCtx, "", l.binary(), "--version")
	if err != nil {
		return "", l.classify(ctx, runCtx, 10*time.Second, output, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(output), "\n")
	return strings.TrimSpace(line), nil
}

// args builds the command line:
// -f<fmt> --loglevel=L -dno-point-and-click [-dresolution=N] -o WorkDir/score WorkDir/score.ly
func (l *LilyPond) args(req Request, src string) []string {
	args := []string{
		"-f" + req.Format,
		"--loglevel=" + l.logLevel(),
		"-dno-point-and-click",
	}
	if req.Resolution > 0 {
		args = append(args, "-dresolution="+strconv.Itoa(req.Resolution))
	}
	return append(args, "-o", filepath.Join(req.WorkDir, scoreName), src)
}

// classify maps a runner error to the renderer error taxonomy.
// Cancellation of the caller's context is returned as is.
func (l *LilyPond) classify(parent, run context.Context, timeout time.Duration, output string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(run.Err(), context.DeadlineExceeded) {
		return &CompileError{
			ExitCode: -1,
			Output:   output,
			Err:      fmt.Errorf("%w after %s", ErrTimeout, timeout),
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &CompileError{ExitCode: exitErr.ExitCode(), Output: output, Err: err}
	}
	return fmt.Errorf("%w: %s: %v", ErrCompilerInvocation, l.binary(), err)
}

func (l *LilyPond) runner() CommandRunner {
	if l.Runner == nil {
		return &ExecRunner{}
	}
	return l.Runner
}

func (l *LilyPond) binary() string {
	if l.Binary == "" {
		return DefaultBinary
	}
	return l.Binary
}

func (l *LilyPond) timeout() time.Duration {
	if l.Timeout <= 0 {
		return DefaultTimeout
	}
	return l.Timeout
}

func (l *LilyPond) logLevel() string {
	if l.LogLevel == "" {
		return DefaultLogLevel
	}
	return l.LogLevel
}
