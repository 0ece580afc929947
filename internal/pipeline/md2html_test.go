package pipeline

// Notes:
// - We check structure with substring assertions: exact goldmark output is
//   not ours to pin down.

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestGoldmarkConverter_ToHTML
// ---------------------------------------------------------------------------

func TestGoldmarkConverter_ToHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		highlight    bool
		input        string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "heading with id",
			input:        "# Etudes",
			wantContains: []string{`<h1 id="etudes">Etudes</h1>`},
		},
		{
			name:         "raw html escaped",
			input:        "<script>alert(1)</script>",
			wantExcludes: []string{"<script>"},
		},
		{
			name:         "block placeholder survives",
			input:        "before\n\n" + BlockPlaceholder(3) + "\n\nafter",
			wantContains: []string{"<p>" + BlockPlaceholder(3) + "</p>"},
		},
		{
			name:         "highlighted code uses classes",
			highlight:    true,
			input:        "```go\nfunc main() {}\n```",
			wantContains: []string{`class="chroma"`},
		},
		{
			name:         "plain code without highlighting",
			input:        "```go\nfunc main() {}\n```",
			wantContains: []string{`<code class="language-go">`},
			wantExcludes: []string{`class="chroma"`},
		},
		{
			name:         "gfm table",
			input:        "| a | b |\n|---|---|\n| 1 | 2 |",
			wantContains: []string{"<table>", "<td>1</td>"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewGoldmarkConverter(tt.highlight).ToHTML(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ToHTML() error = %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("ToHTML() missing %q in %q", want, got)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("ToHTML() contains %q in %q", exclude, got)
				}
			}
		})
	}
}

func TestGoldmarkConverter_ToHTML_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGoldmarkConverter(false).ToHTML(ctx, "# x")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ToHTML() error = %v, want %v", err, context.Canceled)
	}
}

// ---------------------------------------------------------------------------
// TestHighlightCSS
// ---------------------------------------------------------------------------

func TestHighlightCSS(t *testing.T) {
	t.Parallel()

	css, err := HighlightCSS("")
	if err != nil {
		t.Fatalf("HighlightCSS() error = %v", err)
	}
	if !strings.Contains(css, ".chroma") {
		t.Errorf("HighlightCSS() has no .chroma rules: %q", css)
	}

	if _, err := HighlightCSS("no-such-style"); !errors.Is(err, ErrUnknownStyle) {
		t.Errorf("HighlightCSS() error = %v, want %v", err, ErrUnknownStyle)
	}
}
