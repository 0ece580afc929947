// Package render compiles LilyPond source into an image or PDF by invoking
// the external lilypond executable.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for renderer failures.
var (
	ErrCompilerInvocation = errors.New("renderer could not be started")
	ErrCompilerFailure    = errors.New("renderer reported a failure")
	ErrMissingArtifact    = errors.New("renderer produced no artifact")
	ErrTimeout            = errors.New("renderer timed out")
	ErrEmptyWorkDir       = errors.New("work directory cannot be empty")
	ErrEmptyFormat        = errors.New("output format cannot be empty")
)

// Request describes one compilation.
type Request struct {
	Source     string // LilyPond source, passed verbatim
	Format     string // png, svg or pdf
	WorkDir    string // private scratch directory, owned by the caller
	Resolution int    // raster resolution in DPI, 0 for the renderer default
}

func (r Request) validate() error {
	if r.WorkDir == "" {
		return ErrEmptyWorkDir
	}
	if r.Format == "" {
		return ErrEmptyFormat
	}
	return nil
}

// Renderer compiles a request and returns the path of the artifact it wrote
// inside Request.WorkDir.
type Renderer interface {
	Render(ctx context.Context, req Request) (string, error)
}

// CompileError carries the diagnostic output of a failed compilation.
// It matches ErrCompilerFailure with errors.Is.
type CompileError struct {
	ExitCode int
	Output   string
	Err      error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("lilypond exited with status %d", e.ExitCode)
	if errors.Is(e.Err, ErrTimeout) {
		msg = "lilypond: " + e.Err.Error()
	}
	if s := e.Summary(); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *CompileError) Unwrap() error { return e.Err }

func (e *CompileError) Is(target error) bool { return target == ErrCompilerFailure }

// Summary returns the first line of the output that reports an error, or
// the last non-empty line when none does.
func (e *CompileError) Summary() string {
	var last string
	for _, line := range strings.Split(e.Output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.Contains(strings.ToLower(line), "error:") {
			return line
		}
		last = line
	}
	return last
}
