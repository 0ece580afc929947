package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: markyond <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render LilyPond blocks embedded in Markdown documents.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  convert    Replace blocks and write markdown, html or pdf")
	fmt.Fprintln(w, "  watch      Convert again whenever a document changes")
	fmt.Fprintln(w, "  blocks     List the blocks of a document")
	fmt.Fprintln(w, "  cache      Show or remove the cache directory")
	fmt.Fprintln(w, "  config     Show the effective configuration")
	fmt.Fprintln(w, "  doctor     Check LilyPond, Chrome and directories")
	fmt.Fprintln(w, "  completion Generate shell completion script")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'markyond help <command>' for details on a specific command.")
}

// printBlockSyntax prints the block syntax reminder shared by several commands.
func printBlockSyntax(w io.Writer) {
	fmt.Fprintln(w, "Blocks:")
	fmt.Fprintln(w, "  {{markyond output_file=\"scale.png\"}}")
	fmt.Fprintln(w, "  \\relative c' { c d e f g a b c }")
	fmt.Fprintln(w, "  {{/markyond}}")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Attributes: output_file (required), output_dir, output_fmt, base_url,")
	fmt.Fprintln(w, "  cache_dir, link_name, resolution.")
	fmt.Fprintln(w)
}

// printBlockFlags prints the document-wide block flags.
func printBlockFlags(w io.Writer) {
	fmt.Fprintln(w, "Blocks (document-wide, each overridable per block):")
	fmt.Fprintln(w, "      --output-dir <dir>    Directory artifacts are published to (default .)")
	fmt.Fprintln(w, "      --output-fmt <s>      Artifact format: png, svg, pdf (default png)")
	fmt.Fprintln(w, "      --base-url <s>        Prefix of artifact references (default none)")
	fmt.Fprintln(w, "      --cache-dir <dir>     Cache directory (default .markyond_cache)")
	fmt.Fprintln(w, "      --resolution <n>      Raster resolution in DPI")
	fmt.Fprintln(w, "      --keyword <s>         Block keyword (default markyond)")
	fmt.Fprintln(w)
}

// printCommonFlags prints the flags every command accepts.
func printCommonFlags(w io.Writer) {
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show timings and block events")
	fmt.Fprintln(w)
}

// printConvertUsage prints usage for the convert command.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: markyond convert <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Replace every block with a reference to its rendered artifact.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input    Markdown file, directory, or - for stdin")
	fmt.Fprintln(w)
	printConversionFlags(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  markyond convert song.md                    # writes song.out.md")
	fmt.Fprintln(w, "  markyond convert docs/ -o site/ --to html")
	fmt.Fprintln(w, "  cat song.md | markyond convert - --to html > song.html")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 ok, 1 error, 2 usage, 3 I/O, 4 renderer/browser, 5 blocks failed")
}

// printWatchUsage prints usage for the watch command.
func printWatchUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: markyond watch <input> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert input, then convert each document again when it is saved.")
	fmt.Fprintln(w, "Accepts every convert flag, plus:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --debounce <d>        Delay before converting (default 200ms)")
	fmt.Fprintln(w)
	printConversionFlags(w)
}

// printConversionFlags prints the flags shared by convert and watch.
func printConversionFlags(w io.Writer) {
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "      --to <target>         markdown (default), html, pdf")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w)
	printBlockFlags(w)
	fmt.Fprintln(w, "Renderer:")
	fmt.Fprintln(w, "      --lilypond <path>     lilypond executable (default lilypond)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Time limit per block (default 2m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page (--to html, --to pdf):")
	fmt.Fprintln(w, "      --title <s>           Page title (default: first # heading)")
	fmt.Fprintln(w, "      --style <s>           Style name, CSS file path, or CSS")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory searched for styles/<name>.css")
	fmt.Fprintln(w, "      --highlight <s>       Code highlight style, none to disable")
	fmt.Fprintln(w, "      --pdf-timeout <d>     PDF generation timeout (default 30s)")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printBlocksUsage prints usage for the blocks command.
func printBlocksUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: markyond blocks <file> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "List blocks with their line, destination, fingerprint and cache status.")
	fmt.Fprintln(w, "Nothing is rendered.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Output as JSON")
	fmt.Fprintln(w)
	printBlockFlags(w)
	printCommonFlags(w)
	printBlockSyntax(w)
}

// printCacheUsage prints usage for the cache command.
func printCacheUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: markyond cache <path|clean> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  path     Print the cache directory")
	fmt.Fprintln(w, "  clean    Remove the cache directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --cache-dir <dir>     Cache directory (default .markyond_cache)")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// printConfigUsage prints usage for the config command.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: markyond config [paths [name]] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print the configuration after config file and MARKYOND_* variables,")
	fmt.Fprintln(w, "with defaults filled in. 'paths' lists where a config name is searched.")
	fmt.Fprintln(w)
	printCommonFlags(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MARKYOND_CONFIG, MARKYOND_OUTPUT_DIR, MARKYOND_OUTPUT_FMT, MARKYOND_BASE_URL,")
	fmt.Fprintln(w, "  MARKYOND_CACHE_DIR, MARKYOND_LILYPOND, MARKYOND_TIMEOUT, MARKYOND_WORKERS")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: markyond doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check that LilyPond runs, Chrome is available for --to pdf, and the")
	fmt.Fprintln(w, "temp and cache directories are writable.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Output as JSON")
	fmt.Fprintln(w, "      --lilypond <path>     lilypond executable")
	fmt.Fprintln(w, "      --cache-dir <dir>     Cache directory")
	fmt.Fprintln(w)
	printCommonFlags(w)
}

// runHelp prints help for a command, or the main usage.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "watch":
		printWatchUsage(env.Stdout)
	case "blocks":
		printBlocksUsage(env.Stdout)
	case "cache":
		printCacheUsage(env.Stdout)
	case "config":
		printConfigUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: markyond version")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: markyond help [command]")
	default:
		fmt.Fprintf(env.Stderr, "unknown command %q\n\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
