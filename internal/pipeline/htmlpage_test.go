package pipeline

import (
	"context"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestRenderPage
// ---------------------------------------------------------------------------

func TestRenderPage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		data         PageData
		wantContains []string
	}{
		{
			name:         "default title",
			data:         PageData{Body: "<p>x</p>"},
			wantContains: []string{"<title>Document</title>", "<p>x</p>", "<!DOCTYPE html>"},
		},
		{
			name:         "title escaped, body kept",
			data:         PageData{Title: "Bach & <sons>", Body: `<img src="a.png"/>`},
			wantContains: []string{"<title>Bach &amp; &lt;sons&gt;</title>", `<img src="a.png"/>`},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := RenderPage(tt.data)
			if err != nil {
				t.Fatalf("RenderPage() error = %v", err)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("RenderPage() missing %q in %q", want, got)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestCSSInjection_InjectCSS
// ---------------------------------------------------------------------------

func TestCSSInjection_InjectCSS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		css  string
		want string
	}{
		{name: "before head end", html: "<html><head></head><body></body></html>", css: "p{}", want: "<html><head><style>p{}</style></head><body></body></html>"},
		{name: "after body open", html: "<body class=\"x\"><p></p></body>", css: "p{}", want: "<body class=\"x\"><style>p{}</style><p></p></body>"},
		{name: "prepended", html: "<p></p>", css: "p{}", want: "<style>p{}</style><p></p>"},
		{name: "empty css", html: "<p></p>", css: "", want: "<p></p>"},
		{name: "style close escaped", html: "<p></p>", css: "</style><script>", want: `<style><\/style><script></style><p></p>`},
	}

	s := &CSSInjection{}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := s.InjectCSS(context.Background(), tt.html, tt.css); got != tt.want {
				t.Errorf("InjectCSS() = %q, want %q", got, tt.want)
			}
		})
	}
}
