package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/raphigaziano/markyond"
)

// blockInfo is one row of the blocks listing.
type blockInfo struct {
	Line        int    `json:"line"`
	OutputFile  string `json:"output_file,omitempty"`
	Destination string `json:"destination,omitempty"`
	Format      string `json:"format,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Cached      bool   `json:"cached"`
	Error       string `json:"error,omitempty"`
}

// runBlocksCmd lists the blocks of a document without rendering them.
func runBlocksCmd(args []string, env *Environment) int {
	flags, positional, err := parseBlocksFlags(args, env.Stderr)
	if err != nil {
		return usageExit(err)
	}
	err = runBlocks(positional, flags, env)
	return report(env, err, configNameFor(flags.common, env))
}

func runBlocks(positional []string, flags *blocksFlags, env *Environment) error {
	inputPath, err := resolveInputPath(positional)
	if err != nil {
		return err
	}

	s, err := loadSettings(flags.common, env)
	if err != nil {
		return err
	}
	mergeBlockFlags(flags.blocks, s.cfg)
	proc, err := newProcessor(s.cfg, flags.common, env)
	if err != nil {
		return err
	}

	content, err := readDocument(inputPath, env.Stdin)
	if err != nil {
		return err
	}

	infos := inspectBlocks(proc, string(content))
	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}
	printBlocks(env.Stdout, infos)
	return nil
}

// readDocument reads path, or r when path is "-".
func readDocument(path string, r io.Reader) ([]byte, error) {
	var (
		content []byte
		err     error
	)
	if path == stdinPath {
		content, err = io.ReadAll(r)
	} else {
		if err := validateMarkdownExtension(path); err != nil {
			return nil, err
		}
		content, err = os.ReadFile(path) // #nosec G304 -- user-provided path
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadMarkdown, err)
	}
	return content, nil
}

// inspectBlocks turns the processor's view of doc into listing rows.
func inspectBlocks(proc *markyond.Processor, doc string) []blockInfo {
	results := proc.Inspect(doc)
	infos := make([]blockInfo, 0, len(results))
	for _, br := range results {
		info := blockInfo{
			Line:        br.Line,
			OutputFile:  br.OutputFile,
			Format:      br.Format,
			Fingerprint: br.Fingerprint,
			Cached:      br.CacheHit,
		}
		if br.Err != nil {
			info.Error = br.Err.Error()
		} else {
			info.Destination = br.Settings().Destination()
		}
		infos = append(infos, info)
	}
	return infos
}

// printBlocks writes infos as an aligned table.
func printBlocks(w io.Writer, infos []blockInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(w, "no blocks")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tOUTPUT\tFORMAT\tFINGERPRINT\tSTATUS")
	for _, b := range infos {
		status := "pending"
		switch {
		case b.Error != "":
			status = "error: " + b.Error
		case b.Cached:
			status = "cached"
		}
		fp := b.Fingerprint
		if len(fp) > 12 {
			fp = fp[:12]
		}
		out := b.Destination
		if out == "" {
			out = b.OutputFile
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", b.Line, dash(out), dash(b.Format), dash(fp), status)
	}
	_ = tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
