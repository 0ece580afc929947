package main

// Notes:
// - main() itself is not tested: it calls os.Exit. run() carries all the
//   dispatch logic and is tested instead.

import (
	"context"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRun - Command dispatch
// ---------------------------------------------------------------------------

func TestRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "no command",
			args:       []string{"markyond"},
			wantCode:   ExitUsage,
			wantStderr: "Usage: markyond <command>",
		},
		{
			name:       "version",
			args:       []string{"markyond", "version"},
			wantCode:   ExitSuccess,
			wantStdout: "markyond " + Version,
		},
		{
			name:       "version flag",
			args:       []string{"markyond", "--version"},
			wantCode:   ExitSuccess,
			wantStdout: "markyond " + Version,
		},
		{
			name:       "help",
			args:       []string{"markyond", "help"},
			wantCode:   ExitSuccess,
			wantStdout: "Commands:",
		},
		{
			name:       "completion",
			args:       []string{"markyond", "completion", "fish"},
			wantCode:   ExitSuccess,
			wantStdout: "complete -c markyond",
		},
		{
			name:       "help flag",
			args:       []string{"markyond", "-h"},
			wantCode:   ExitSuccess,
			wantStdout: "Commands:",
		},
		{
			name:       "unknown command",
			args:       []string{"markyond", "render"},
			wantCode:   ExitUsage,
			wantStderr: `unknown command "render"`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			te := newTestEnv(nil)
			if code := run(context.Background(), tt.args, te.Environment); code != tt.wantCode {
				t.Errorf("run() = %d, want %d", code, tt.wantCode)
			}
			if tt.wantStdout != "" && !strings.Contains(te.stdout.String(), tt.wantStdout) {
				t.Errorf("stdout = %q, want to contain %q", te.stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" && !strings.Contains(te.stderr.String(), tt.wantStderr) {
				t.Errorf("stderr = %q, want to contain %q", te.stderr, tt.wantStderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestHasVerboseFlag
// ---------------------------------------------------------------------------

func TestHasVerboseFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"convert", "a.md", "-v"}, true},
		{[]string{"convert", "--verbose", "a.md"}, true},
		{[]string{"convert", "a.md"}, false},
		{[]string{"convert", "--", "-v"}, false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := hasVerboseFlag(tt.args); got != tt.want {
			t.Errorf("hasVerboseFlag(%v) = %v, want %v", tt.args, got, tt.want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestRunHelp - Per-command help
// ---------------------------------------------------------------------------

func TestRunHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		command string
		want    string
	}{
		{"convert", "Usage: markyond convert"},
		{"watch", "--debounce"},
		{"blocks", "{{markyond output_file="},
		{"cache", "Usage: markyond cache <path|clean>"},
		{"config", "MARKYOND_CACHE_DIR"},
		{"doctor", "Usage: markyond doctor"},
		{"version", "Usage: markyond version"},
		{"help", "Usage: markyond help"},
		{"completion", "Usage: markyond completion <shell>"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.command, func(t *testing.T) {
			t.Parallel()

			te := newTestEnv(nil)
			if code := runHelp([]string{tt.command}, te.Environment); code != ExitSuccess {
				t.Errorf("runHelp(%q) = %d, want %d", tt.command, code, ExitSuccess)
			}
			if !strings.Contains(te.stdout.String(), tt.want) {
				t.Errorf("help %s missing %q:\n%s", tt.command, tt.want, te.stdout)
			}
		})
	}
}

func TestRunHelp_Unknown(t *testing.T) {
	t.Parallel()

	te := newTestEnv(nil)
	if code := runHelp([]string{"render"}, te.Environment); code != ExitUsage {
		t.Errorf("runHelp() = %d, want %d", code, ExitUsage)
	}
	if te.stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", te.stdout)
	}
}
