package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2/styles"
	flag "github.com/spf13/pflag"

	"github.com/raphigaziano/markyond"
	"github.com/raphigaziano/markyond/internal/assets"
	"github.com/raphigaziano/markyond/internal/config"
	"github.com/raphigaziano/markyond/internal/hints"
)

// Exit codes for the markyond CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess  = 0 // Successful run
	ExitGeneral  = 1 // General/unexpected error
	ExitUsage    = 2 // Invalid flags, config, or validation
	ExitIO       = 3 // File not found, permission denied
	ExitExternal = 4 // LilyPond or browser could not do its job
	ExitBlocks   = 5 // Output written, but one or more blocks failed
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, ErrBlocksFailed) {
		return ExitBlocks
	}

	// Renderer and browser errors (exit 4)
	if errors.Is(err, markyond.ErrCompilerInvocation) ||
		errors.Is(err, markyond.ErrCompilerFailure) ||
		errors.Is(err, markyond.ErrBrowserConnect) ||
		errors.Is(err, markyond.ErrPageCreate) ||
		errors.Is(err, markyond.ErrPageLoad) ||
		errors.Is(err, markyond.ErrPDFGeneration) {
		return ExitExternal
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoInput) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, markyond.ErrUnsupportedFormat) ||
		errors.Is(err, markyond.ErrUnsupportedTarget) ||
		errors.Is(err, markyond.ErrInvalidResolution) ||
		errors.Is(err, markyond.ErrInvalidKeyword) ||
		errors.Is(err, markyond.ErrUnknownHighlightStyle) ||
		errors.Is(err, markyond.ErrStyleNotFound) ||
		errors.Is(err, markyond.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrUnknownSubcommand) {
		return ExitUsage
	}

	return ExitGeneral
}

// hintFor returns an actionable hint for err, or "".
// configName is the config name or path the command was given, if any.
func hintFor(err error, configName string) string {
	switch {
	case errors.Is(err, markyond.ErrCompilerInvocation):
		return hints.ForRendererNotFound()
	case errors.Is(err, markyond.ErrRenderTimeout):
		return hints.ForRendererTimeout()
	case errors.Is(err, markyond.ErrBrowserConnect):
		return hints.ForBrowserConnect()
	case errors.Is(err, markyond.ErrUnknownHighlightStyle):
		return hints.ForHighlightStyle(styles.Names())
	case errors.Is(err, markyond.ErrStyleNotFound):
		return hints.ForStyle(assets.StyleNames())
	case errors.Is(err, config.ErrConfigNotFound):
		var searched []string
		if configName != "" {
			searched = config.SearchPaths(configName)
		}
		return hints.ForConfigNotFound(searched)
	}
	return ""
}

// report prints err with its hint and returns the exit code for it.
func report(env *Environment, err error, configName string) int {
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(env.Stderr, "error: %v%s\n", err, hintFor(err, configName))
	return exitCodeFor(err)
}

// usageExit maps a flag parsing error to an exit code. pflag has already
// printed the error and the usage text.
func usageExit(err error) int {
	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	return ExitUsage
}
