package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/raphigaziano/markyond"
)

// defaultDebounce groups the burst of events an editor emits on save.
const defaultDebounce = 200 * time.Millisecond

// runWatchCmd parses flags, watches the input and reports errors.
func runWatchCmd(ctx context.Context, args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags("watch", args, env.Stderr)
	if err != nil {
		return usageExit(err)
	}
	err = runWatch(ctx, positional, flags, env)
	return report(env, err, configNameFor(flags.common, env))
}

// watchSession collects changed sources between two rebuilds.
type watchSession struct {
	root    string
	isDir   bool
	output  string
	to      string
	pending map[string]struct{}
}

// matches reports whether a change to path calls for a rebuild.
func (w *watchSession) matches(path string) bool {
	if !isMarkdownSource(path) {
		return false
	}
	if !w.isDir {
		return samePath(path, w.root)
	}
	return w.output == "" || !isUnder(path, w.output)
}

// add records a change to path. It returns false when path is ignored.
func (w *watchSession) add(path string) bool {
	if !w.matches(path) {
		return false
	}
	w.pending[path] = struct{}{}
	return true
}

// take returns the pending files in a stable order and clears them.
func (w *watchSession) take() []FileToConvert {
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	clear(w.pending)

	base := ""
	if w.isDir {
		base = w.root
	}
	files := make([]FileToConvert, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue // removed since the event
		}
		files = append(files, FileToConvert{
			InputPath:  p,
			OutputPath: resolveOutputPath(p, w.output, base, w.to),
		})
	}
	return files
}

// runWatch converts the input once, then again for every change until ctx
// is done. Conversion failures are printed and do not stop watching.
func runWatch(ctx context.Context, positional []string, flags *convertFlags, env *Environment) error {
	conv, err := prepareConversion(flags, env)
	if err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positional)
	if err != nil {
		return err
	}
	if inputPath == stdinPath {
		return fmt.Errorf("%w: watch needs a file or a directory", ErrNoInput)
	}
	info, err := os.Stat(inputPath)
	if err != nil {
		return err
	}

	debounce := defaultDebounce
	if flags.debounce != "" {
		if debounce, err = parseTimeout(flags.debounce); err != nil {
			return err
		}
	}

	c, err := markyond.NewConverter(conv.opts...)
	if err != nil {
		return err
	}
	defer c.Close()
	pool := singlePool{conv: c}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()
	if err := addWatches(watcher, inputPath, info.IsDir()); err != nil {
		return err
	}

	rebuild := func(files []FileToConvert) {
		if len(files) == 0 {
			return
		}
		if flags.common.verbose {
			fmt.Fprintf(env.Stdout, "[%s] converting %d file(s)\n", env.now().Format("15:04:05"), len(files))
		}
		results := convertBatch(ctx, pool, files, conv.params)
		printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, env)
	}

	files, err := discoverFiles(inputPath, flags.output, conv.params.to)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	rebuild(files)
	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Watching %s (Ctrl+C to stop)\n", inputPath)
	}

	session := &watchSession{
		root:    inputPath,
		isDir:   info.IsDir(),
		output:  flags.output,
		to:      conv.params.to,
		pending: make(map[string]struct{}),
	}
	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if session.isDir && ev.Has(fsnotify.Create) {
				if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
					_ = addWatches(watcher, ev.Name, true)
				}
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if session.add(ev.Name) {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(env.Stderr, "watch error: %v\n", err)

		case <-timer.C:
			rebuild(session.take())
		}
	}
}

// addWatches watches path. A file is watched through its directory, so
// editors that save by replacing the file are seen. A directory is watched
// with all its subdirectories except hidden ones.
func addWatches(w *fsnotify.Watcher, path string, isDir bool) error {
	if !isDir {
		if err := w.Add(filepath.Dir(path)); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", p, err)
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}

// samePath compares two paths after making them absolute.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// isUnder reports whether path lies inside dir.
func isUnder(path, dir string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
