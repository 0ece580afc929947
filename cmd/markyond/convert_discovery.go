package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/raphigaziano/markyond"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
)

// processedSuffix marks Markdown written by the markdown target next to
// its source. Such files are never picked up as input.
const processedSuffix = ".out.md"

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// discoverFiles finds all markdown files to convert to target.
func discoverFiles(inputPath, output, target string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateMarkdownExtension(inputPath); err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, output, "", target)
		return []FileToConvert{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			return nil
		}
		if !isMarkdownSource(path) {
			return nil
		}
		outPath := resolveOutputPath(path, output, inputPath, target)
		files = append(files, FileToConvert{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// isMarkdownSource reports whether path is a Markdown file that is not
// itself a markdown target output.
func isMarkdownSource(path string) bool {
	if strings.HasSuffix(path, processedSuffix) {
		return false
	}
	ext := filepath.Ext(path)
	return ext == ".md" || ext == ".markdown"
}

// outputExt returns the file extension written for target.
func outputExt(target string) string {
	switch target {
	case markyond.ToHTML:
		return ".html"
	case markyond.ToPDF:
		return ".pdf"
	default:
		return ".md"
	}
}

// resolveOutputPath determines the output path of a markdown file.
// output may be empty (next to the input), a file with the target's
// extension, or a directory that mirrors baseInputDir.
func resolveOutputPath(inputPath, output, baseInputDir, target string) string {
	ext := outputExt(target)
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	var out string
	switch {
	case output == "":
		out = filepath.Join(filepath.Dir(inputPath), base+ext)
	case baseInputDir == "" && strings.HasSuffix(output, ext):
		out = output
	default:
		out = filepath.Join(output, base+ext)
		if baseInputDir != "" {
			if relPath, err := filepath.Rel(baseInputDir, inputPath); err == nil {
				out = filepath.Join(output, filepath.Dir(relPath), base+ext)
			}
		}
	}

	// Never overwrite the source.
	if filepath.Clean(out) == filepath.Clean(inputPath) {
		out = strings.TrimSuffix(out, ext) + processedSuffix
	}
	return out
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	ext := filepath.Ext(path)
	if ext != ".md" && ext != ".markdown" {
		return fmt.Errorf("%w: got %q", ErrInvalidExtension, ext)
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > markyond.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, markyond.MaxPoolSize)
	}
	return nil
}
