package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/styles"
	flag "github.com/spf13/pflag"
)

// Shell represents a supported shell for completion generation.
type Shell string

// Supported shells for completion.
const (
	ShellBash       Shell = "bash"
	ShellZsh        Shell = "zsh"
	ShellFish       Shell = "fish"
	ShellPowerShell Shell = "powershell"
)

// ErrUnsupportedShell is returned when an unknown shell is requested.
var ErrUnsupportedShell = errors.New("unsupported shell")

// flagType represents the completion type for a flag.
type flagType int

const (
	flagString flagType = iota // default
	flagBool
	flagInt
	flagEnum // has predefined values
	flagFile // file with glob pattern
	flagDir  // directory
)

// flagDef describes a flag for completion purposes.
type flagDef struct {
	Long     string   // --output
	Short    string   // -o (empty if none)
	Type     flagType // completion type
	Desc     string   // help text
	Values   []string // for enum flags
	FileGlob string   // for file flags, comma separated; empty for any file
}

// commandDef describes a command for completion.
type commandDef struct {
	Name        string
	Desc        string
	Flags       []flagDef
	Words       []string // subcommands or fixed arguments
	TakesFiles  bool
	FilePattern string // glob for file arguments (e.g., "*.md")
}

// completionMeta holds completion-specific metadata for flags.
// Flag names, types, and descriptions come from the FlagSets.
type completionMeta struct {
	Values   []string
	FileGlob string
	IsFile   bool
	IsDir    bool
}

// flagCompletionMeta maps flag names to their completion metadata.
var flagCompletionMeta = map[string]completionMeta{
	"to":         {Values: []string{"markdown", "html", "pdf"}},
	"output-fmt": {Values: []string{"png", "svg", "pdf"}},
	"highlight":  {Values: append([]string{"none"}, styles.Names()...)},

	"config":   {FileGlob: "*.yaml,*.yml"},
	"style":    {FileGlob: "*.css"},
	"lilypond": {IsFile: true},

	"output":     {IsDir: true},
	"output-dir": {IsDir: true},
	"cache-dir":  {IsDir: true},
	"asset-path": {IsDir: true},
}

// extractFlagsFromFlagSet extracts flag definitions from a pflag.FlagSet.
// Enriches with completion metadata from flagCompletionMeta.
func extractFlagsFromFlagSet(fs *flag.FlagSet) []flagDef {
	var flags []flagDef

	fs.VisitAll(func(f *flag.Flag) {
		fd := flagDef{
			Long:  f.Name,
			Short: f.Shorthand,
			Desc:  f.Usage,
		}

		switch f.Value.Type() {
		case "bool":
			fd.Type = flagBool
		case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
			fd.Type = flagInt
		default:
			fd.Type = flagString
		}

		if meta, ok := flagCompletionMeta[f.Name]; ok {
			switch {
			case len(meta.Values) > 0:
				fd.Type = flagEnum
				fd.Values = meta.Values
			case meta.FileGlob != "" || meta.IsFile:
				fd.Type = flagFile
				fd.FileGlob = meta.FileGlob
			case meta.IsDir:
				fd.Type = flagDir
			}
		}

		flags = append(flags, fd)
	})

	return flags
}

// getCommands returns the command registry for completion.
// Flags are extracted from the FlagSets the commands parse with.
func getCommands() []commandDef {
	markdown := "*.md,*.markdown"
	return []commandDef{
		{
			Name:        "convert",
			Desc:        "Replace blocks and write markdown, html or pdf",
			Flags:       extractFlagsFromFlagSet(newConvertFlagSet("convert", &convertFlags{})),
			TakesFiles:  true,
			FilePattern: markdown,
		},
		{
			Name:        "watch",
			Desc:        "Convert again whenever a document changes",
			Flags:       extractFlagsFromFlagSet(newConvertFlagSet("watch", &convertFlags{})),
			TakesFiles:  true,
			FilePattern: markdown,
		},
		{
			Name:        "blocks",
			Desc:        "List the blocks of a document",
			Flags:       extractFlagsFromFlagSet(newBlocksFlagSet(&blocksFlags{})),
			TakesFiles:  true,
			FilePattern: markdown,
		},
		{
			Name:  "cache",
			Desc:  "Show or remove the cache directory",
			Flags: extractFlagsFromFlagSet(newToolFlagSet("cache", &toolFlags{})),
			Words: []string{"path", "clean"},
		},
		{
			Name:  "config",
			Desc:  "Show the effective configuration",
			Flags: extractFlagsFromFlagSet(newToolFlagSet("config", &toolFlags{})),
			Words: []string{"paths"},
		},
		{
			Name:  "doctor",
			Desc:  "Check LilyPond, Chrome and directories",
			Flags: extractFlagsFromFlagSet(newToolFlagSet("doctor", &toolFlags{})),
		},
		{
			Name: "version",
			Desc: "Show version information",
		},
		{
			Name:  "help",
			Desc:  "Show help for a command",
			Words: []string{"convert", "watch", "blocks", "cache", "config", "doctor", "version", "completion"},
		},
		{
			Name:  "completion",
			Desc:  "Generate shell completion script",
			Words: []string{string(ShellBash), string(ShellZsh), string(ShellFish), string(ShellPowerShell)},
		},
	}
}

// GenerateCompletion writes shell completion script to w.
// Returns error if shell is unsupported or write fails.
func GenerateCompletion(w io.Writer, shell Shell) error {
	var script string
	switch shell {
	case ShellBash:
		script = generateBash(getCommands())
	case ShellZsh:
		script = generateZsh(getCommands())
	case ShellFish:
		script = generateFish(getCommands())
	case ShellPowerShell:
		script = generatePowerShell(getCommands())
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish, powershell)", ErrUnsupportedShell, shell)
	}
	_, err := io.WriteString(w, script)
	return err
}

// runCompletionCmd handles the completion command.
func runCompletionCmd(args []string, env *Environment) int {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return ExitSuccess
	}
	if err := GenerateCompletion(env.Stdout, Shell(args[0])); err != nil {
		fmt.Fprintf(env.Stderr, "error: %v\n", err)
		return ExitUsage
	}
	return ExitSuccess
}

// printCompletionUsage prints help for the completion command.
func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: markyond completion <shell>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate shell completion script for the specified shell.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Supported shells:")
	fmt.Fprintln(w, "  bash        Bash completion script")
	fmt.Fprintln(w, "  zsh         Zsh completion script")
	fmt.Fprintln(w, "  fish        Fish completion script")
	fmt.Fprintln(w, "  powershell  PowerShell completion script")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Installation:")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Bash:")
	fmt.Fprintln(w, "    # Add to ~/.bashrc:")
	fmt.Fprintln(w, "    eval \"$(markyond completion bash)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Zsh:")
	fmt.Fprintln(w, "    # Add to ~/.zshrc (after compinit):")
	fmt.Fprintln(w, "    eval \"$(markyond completion zsh)\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Fish:")
	fmt.Fprintln(w, "    markyond completion fish > ~/.config/fish/completions/markyond.fish")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  PowerShell:")
	fmt.Fprintln(w, "    # Add to $PROFILE:")
	fmt.Fprintln(w, "    markyond completion powershell | Out-String | Invoke-Expression")
}

// ---------------------------------------------------------------------------
// Bash
// ---------------------------------------------------------------------------

func generateBash(cmds []commandDef) string {
	var b strings.Builder

	b.WriteString("# bash completion for markyond\n\n")
	b.WriteString("_markyond_completions() {\n")
	b.WriteString("    local cur prev\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n\n")
	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(commandNames(cmds), " "))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"${COMP_WORDS[1]}\" in\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "    %s)\n", c.Name)

		if valued := valuedFlags(c.Flags); len(valued) > 0 {
			b.WriteString("        case \"$prev\" in\n")
			for _, f := range valued {
				fmt.Fprintf(&b, "        %s)\n", strings.Join(flagSpellings(f), "|"))
				fmt.Fprintf(&b, "            %s\n", bashValueCompletion(f))
				b.WriteString("            return\n")
				b.WriteString("            ;;\n")
			}
			b.WriteString("        esac\n")
		}

		if len(c.Flags) > 0 {
			b.WriteString("        if [[ \"$cur\" == -* ]]; then\n")
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(allSpellings(c.Flags), " "))
			b.WriteString("            return\n")
			b.WriteString("        fi\n")
		}

		switch {
		case c.TakesFiles:
			fmt.Fprintf(&b, "        COMPREPLY=($(compgen -f -X '!*.@(%s)' -- \"$cur\") $(compgen -d -- \"$cur\"))\n",
				strings.Join(globExtensions(c.FilePattern), "|"))
		case len(c.Words) > 0:
			fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(c.Words, " "))
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("complete -F _markyond_completions markyond\n")
	return b.String()
}

// bashValueCompletion returns the COMPREPLY line for the value of f.
func bashValueCompletion(f flagDef) string {
	switch f.Type {
	case flagEnum:
		return fmt.Sprintf("COMPREPLY=($(compgen -W %q -- \"$cur\"))", strings.Join(f.Values, " "))
	case flagFile:
		if f.FileGlob == "" {
			return "COMPREPLY=($(compgen -f -- \"$cur\"))"
		}
		return fmt.Sprintf("COMPREPLY=($(compgen -f -X '!*.@(%s)' -- \"$cur\") $(compgen -d -- \"$cur\"))",
			strings.Join(globExtensions(f.FileGlob), "|"))
	case flagDir:
		return "COMPREPLY=($(compgen -d -- \"$cur\"))"
	default:
		return "COMPREPLY=()"
	}
}

// ---------------------------------------------------------------------------
// Zsh
// ---------------------------------------------------------------------------

func generateZsh(cmds []commandDef) string {
	var b strings.Builder

	b.WriteString("#compdef markyond\n\n")
	b.WriteString("_markyond() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscape(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"${words[2]}\" in\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "    %s)\n", c.Name)
		b.WriteString("        _arguments")
		for _, f := range c.Flags {
			fmt.Fprintf(&b, " \\\n            %s", zshFlagSpec(f))
		}
		switch {
		case c.TakesFiles:
			fmt.Fprintf(&b, " \\\n            '*:file:_files -g \"*.(%s)\"'", strings.Join(globExtensions(c.FilePattern), "|"))
		case len(c.Words) > 0:
			fmt.Fprintf(&b, " \\\n            '1:argument:(%s)'", strings.Join(c.Words, " "))
		}
		b.WriteString("\n        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _markyond markyond\n")
	return b.String()
}

// zshFlagSpec returns the _arguments entry for f.
func zshFlagSpec(f flagDef) string {
	desc := "[" + zshEscape(f.Desc) + "]"

	var action string
	switch f.Type {
	case flagBool:
		action = ""
	case flagEnum:
		action = ":value:(" + strings.Join(f.Values, " ") + ")"
	case flagFile:
		if f.FileGlob == "" {
			action = ":file:_files"
		} else {
			action = ":file:_files -g \"*.(" + strings.Join(globExtensions(f.FileGlob), "|") + ")\""
		}
	case flagDir:
		action = ":directory:_files -/"
	default:
		action = ":value: "
	}

	if f.Short == "" {
		return "'--" + f.Long + desc + action + "'"
	}
	return "'(-" + f.Short + " --" + f.Long + ")'{-" + f.Short + ",--" + f.Long + "}'" + desc + action + "'"
}

func zshEscape(s string) string {
	r := strings.NewReplacer("'", `'\''`, "[", `\[`, "]", `\]`, ":", `\:`)
	return r.Replace(s)
}

// ---------------------------------------------------------------------------
// Fish
// ---------------------------------------------------------------------------

func generateFish(cmds []commandDef) string {
	var b strings.Builder

	b.WriteString("# fish completion for markyond\n\n")
	b.WriteString("function __fish_markyond_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\n")
	b.WriteString("end\n\n")
	b.WriteString("function __fish_markyond_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; and test $argv[1] = $cmd[2]\n")
	b.WriteString("end\n\n")
	b.WriteString("complete -c markyond -f\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c markyond -n __fish_markyond_needs_command -a %s -d %s\n", c.Name, fishQuote(c.Desc))
	}

	for _, c := range cmds {
		b.WriteString("\n")
		cond := fishQuote("__fish_markyond_using_command " + c.Name)
		for _, f := range c.Flags {
			line := "complete -c markyond -n " + cond
			if f.Short != "" {
				line += " -s " + f.Short
			}
			line += " -l " + f.Long
			switch f.Type {
			case flagBool:
			case flagEnum:
				line += " -x -a " + fishQuote(strings.Join(f.Values, " "))
			case flagFile:
				line += " -r -F"
			case flagDir:
				line += " -x -a '(__fish_complete_directories)'"
			default:
				line += " -x"
			}
			b.WriteString(line + " -d " + fishQuote(f.Desc) + "\n")
		}
		switch {
		case c.TakesFiles:
			for _, ext := range globExtensions(c.FilePattern) {
				fmt.Fprintf(&b, "complete -c markyond -n %s -a '(__fish_complete_suffix .%s)'\n", cond, ext)
			}
		case len(c.Words) > 0:
			fmt.Fprintf(&b, "complete -c markyond -n %s -a %s\n", cond, fishQuote(strings.Join(c.Words, " ")))
		}
	}
	return b.String()
}

func fishQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

// ---------------------------------------------------------------------------
// PowerShell
// ---------------------------------------------------------------------------

func generatePowerShell(cmds []commandDef) string {
	var b strings.Builder

	b.WriteString("# powershell completion for markyond\n\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName markyond -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")
	b.WriteString("    $commands = @{\n")
	for _, c := range cmds {
		words := append(allSpellings(c.Flags), c.Words...)
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = "'" + w + "'"
		}
		fmt.Fprintf(&b, "        '%s' = @(%s)\n", c.Name, strings.Join(quoted, ", "))
	}
	b.WriteString("    }\n\n")
	b.WriteString("    $elements = @($commandAst.CommandElements | ForEach-Object { $_.ToString() })\n")
	b.WriteString("    if ($elements.Count -lt 2 -or ($elements.Count -eq 2 -and $wordToComplete -ne '')) {\n")
	b.WriteString("        $commands.Keys | Where-Object { $_ -like \"$wordToComplete*\" } | Sort-Object | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n")
	b.WriteString("        }\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n\n")
	b.WriteString("    $command = $elements[1]\n")
	b.WriteString("    if ($commands.ContainsKey($command)) {\n")
	b.WriteString("        $commands[$command] | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)\n")
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")
	return b.String()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func commandNames(cmds []commandDef) []string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return names
}

// valuedFlags returns the flags that take a value.
func valuedFlags(flags []flagDef) []flagDef {
	var out []flagDef
	for _, f := range flags {
		if f.Type != flagBool {
			out = append(out, f)
		}
	}
	return out
}

// flagSpellings returns --long and, when set, -short.
func flagSpellings(f flagDef) []string {
	s := []string{"--" + f.Long}
	if f.Short != "" {
		s = append(s, "-"+f.Short)
	}
	return s
}

func allSpellings(flags []flagDef) []string {
	var out []string
	for _, f := range flags {
		out = append(out, flagSpellings(f)...)
	}
	return out
}

// globExtensions turns "*.md,*.markdown" into [md markdown].
func globExtensions(pattern string) []string {
	var exts []string
	for _, g := range strings.Split(pattern, ",") {
		if ext := strings.TrimPrefix(strings.TrimSpace(g), "*."); ext != "" {
			exts = append(exts, ext)
		}
	}
	return exts
}
