package yamlutil_test

// Notes:
// - Marshal error branch: not tested because yaml.Marshal only fails with
//   unmarshalable types (channels, functions).
// - The size limit is a constant; the over-limit case builds a document
//   just above it.

import (
	"errors"
	"strings"
	"testing"

	"github.com/raphigaziano/markyond/internal/yamlutil"
)

type testConfig struct {
	Name     string `yaml:"name"`
	Count    int    `yaml:"count"`
	Enabled  bool   `yaml:"enabled"`
	Renderer struct {
		Bin string `yaml:"bin"`
	} `yaml:"renderer"`
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		data         []byte
		dest         any
		wantErr      error
		wantContains string
	}{
		{
			name: "valid document",
			data: []byte("name: test\ncount: 42\nenabled: true\nrenderer:\n  bin: lilypond\n"),
			dest: &testConfig{},
		},
		{
			name:    "nil data",
			data:    nil,
			dest:    &testConfig{},
			wantErr: yamlutil.ErrNilData,
		},
		{
			name:    "nil destination",
			data:    []byte("name: x"),
			dest:    nil,
			wantErr: yamlutil.ErrNilDestination,
		},
		{
			name:         "unknown top-level key",
			data:         []byte("name: x\ncolour: red\n"),
			dest:         &testConfig{},
			wantErr:      yamlutil.ErrSyntax,
			wantContains: "colour",
		},
		{
			name:         "unknown nested key",
			data:         []byte("renderer:\n  binary: lilypond\n"),
			dest:         &testConfig{},
			wantErr:      yamlutil.ErrSyntax,
			wantContains: "binary",
		},
		{
			name:    "type mismatch",
			data:    []byte("count: many\n"),
			dest:    &testConfig{},
			wantErr: yamlutil.ErrSyntax,
		},
		{
			name:    "broken flow sequence",
			data:    []byte("name: [x\n"),
			dest:    &testConfig{},
			wantErr: yamlutil.ErrSyntax,
		},
		{
			name:    "too large",
			data:    []byte("name: " + strings.Repeat("x", yamlutil.MaxInputSize)),
			dest:    &testConfig{},
			wantErr: yamlutil.ErrInputTooLarge,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.UnmarshalStrict(tt.data, tt.dest)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("UnmarshalStrict() error = %v", err)
				}
				cfg := tt.dest.(*testConfig)
				if cfg.Name != "test" || cfg.Count != 42 || !cfg.Enabled || cfg.Renderer.Bin != "lilypond" {
					t.Errorf("UnmarshalStrict() decoded %+v", cfg)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("UnmarshalStrict() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantContains != "" && !strings.Contains(err.Error(), tt.wantContains) {
				t.Errorf("error %q does not mention %q", err, tt.wantContains)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMarshal
// ---------------------------------------------------------------------------

func TestMarshal(t *testing.T) {
	t.Parallel()

	var cfg testConfig
	cfg.Name = "etudes"
	cfg.Count = 3
	cfg.Renderer.Bin = "/usr/bin/lilypond"

	out, err := yamlutil.Marshal(cfg)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, want := range []string{"name: etudes", "count: 3", "renderer:\n  bin: /usr/bin/lilypond"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("Marshal() = %q, missing %q", out, want)
		}
	}

	var back testConfig
	if err := yamlutil.UnmarshalStrict(out, &back); err != nil {
		t.Fatalf("UnmarshalStrict(Marshal()) error = %v", err)
	}
	if back != cfg {
		t.Errorf("round trip = %+v, want %+v", back, cfg)
	}
}
