package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/raphigaziano/markyond/internal/cache"
)

// ErrUnknownSubcommand is returned for a subcommand a command does not have.
var ErrUnknownSubcommand = errors.New("unknown subcommand")

// runCacheCmd shows or removes the document-wide cache directory.
// Per-block cache_dir overrides are not visited.
func runCacheCmd(args []string, env *Environment) int {
	flags, positional, err := parseToolFlags("cache", args, env.Stderr, printCacheUsage)
	if err != nil {
		return usageExit(err)
	}
	err = runCache(positional, flags, env)
	return report(env, err, configNameFor(flags.common, env))
}

func runCache(positional []string, flags *toolFlags, env *Environment) error {
	if len(positional) != 1 {
		printCacheUsage(env.Stderr)
		return fmt.Errorf("%w: expected path or clean", ErrUnknownSubcommand)
	}

	s, err := loadSettings(flags.common, env)
	if err != nil {
		return err
	}
	if flags.cacheDir != "" {
		s.cfg.CacheDir = flags.cacheDir
	}
	store, err := cache.New(cacheDir(s.cfg))
	if err != nil {
		return err
	}

	switch positional[0] {
	case "path":
		dir, err := filepath.Abs(store.Dir())
		if err != nil {
			dir = store.Dir()
		}
		fmt.Fprintln(env.Stdout, dir)
		return nil
	case "clean":
		if err := store.Clean(); err != nil {
			return err
		}
		if !flags.common.quiet {
			fmt.Fprintf(env.Stdout, "Removed %s\n", store.Dir())
		}
		return nil
	default:
		return fmt.Errorf("%w: cache %s", ErrUnknownSubcommand, positional[0])
	}
}
