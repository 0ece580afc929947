package main

import (
	"fmt"

	"github.com/raphigaziano/markyond/internal/config"
	"github.com/raphigaziano/markyond/internal/fileutil"
	"github.com/raphigaziano/markyond/internal/yamlutil"
)

// runConfigCmd prints the effective configuration, or with "paths [name]"
// the files a config name is looked up in.
func runConfigCmd(args []string, env *Environment) int {
	flags, positional, err := parseToolFlags("config", args, env.Stderr, printConfigUsage)
	if err != nil {
		return usageExit(err)
	}
	err = runConfig(positional, flags, env)
	return report(env, err, configNameFor(flags.common, env))
}

func runConfig(positional []string, flags *toolFlags, env *Environment) error {
	switch {
	case len(positional) == 0:
	case positional[0] == "paths" && len(positional) <= 2:
		name := config.DirName
		if len(positional) == 2 {
			name = positional[1]
		}
		printSearchPaths(env, name)
		return nil
	default:
		printConfigUsage(env.Stderr)
		return fmt.Errorf("%w: config %v", ErrUnknownSubcommand, positional)
	}

	s, err := loadSettings(flags.common, env)
	if err != nil {
		return err
	}
	if flags.cacheDir != "" {
		s.cfg.CacheDir = flags.cacheDir
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	data, err := yamlutil.Marshal(effectiveConfig(s.cfg))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if s.configName != "" && !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "# from %s\n", s.configName)
	}
	_, err = env.Stdout.Write(data)
	return err
}

// printSearchPaths lists the lookup order for name, marking existing files.
func printSearchPaths(env *Environment, name string) {
	for _, p := range config.SearchPaths(name) {
		mark := " "
		if fileutil.FileExists(p) {
			mark = "*"
		}
		fmt.Fprintf(env.Stdout, "%s %s\n", mark, p)
	}
}
