package cache_test

// Notes:
// - The cross-filesystem branch of Put (rename failure, copy fallback) is not
//   exercised: it needs two mounts.
// - Fingerprint values are only compared with each other, never against
//   literal hashes, so the hashing scheme can evolve without churn here.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raphigaziano/markyond/internal/cache"
)

var renderKeys = []string{"output_fmt", "resolution"}

// ---------------------------------------------------------------------------
// TestFingerprint - Key derivation
// ---------------------------------------------------------------------------

func TestFingerprint(t *testing.T) {
	t.Parallel()

	base := cache.Fingerprint("c d e", map[string]string{"output_fmt": "png"}, renderKeys)

	tests := []struct {
		name  string
		body  string
		attrs map[string]string
		keys  []string
		same  bool
	}{
		{
			name:  "identical input",
			body:  "c d e",
			attrs: map[string]string{"output_fmt": "png"},
			keys:  renderKeys,
			same:  true,
		},
		{
			name:  "key order does not matter",
			body:  "c d e",
			attrs: map[string]string{"output_fmt": "png"},
			keys:  []string{"resolution", "output_fmt"},
			same:  true,
		},
		{
			name:  "non rendering attribute ignored",
			body:  "c d e",
			attrs: map[string]string{"output_fmt": "png", "output_file": "other.png", "link_name": "x"},
			keys:  renderKeys,
			same:  true,
		},
		{
			name:  "body change",
			body:  "c d f",
			attrs: map[string]string{"output_fmt": "png"},
			keys:  renderKeys,
			same:  false,
		},
		{
			name:  "format change",
			body:  "c d e",
			attrs: map[string]string{"output_fmt": "svg"},
			keys:  renderKeys,
			same:  false,
		},
		{
			name:  "resolution change",
			body:  "c d e",
			attrs: map[string]string{"output_fmt": "png", "resolution": "300"},
			keys:  renderKeys,
			same:  false,
		},
		{
			name:  "body and attribute boundary",
			body:  "c d eoutput_fmt=png",
			attrs: map[string]string{},
			keys:  renderKeys,
			same:  false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := cache.Fingerprint(tt.body, tt.attrs, tt.keys)
			if (got == base) != tt.same {
				t.Errorf("Fingerprint() same = %v, want %v", got == base, tt.same)
			}
			if len(got) != 64 {
				t.Errorf("Fingerprint() length = %d, want 64", len(got))
			}
		})
	}
}

func TestFingerprint_DoesNotMutateKeys(t *testing.T) {
	t.Parallel()

	keys := []string{"z", "a"}
	cache.Fingerprint("x", nil, keys)
	if keys[0] != "z" || keys[1] != "a" {
		t.Errorf("Fingerprint() reordered caller keys: %v", keys)
	}
}

// ---------------------------------------------------------------------------
// TestNew
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	t.Parallel()

	if _, err := cache.New(""); !errors.Is(err, cache.ErrEmptyDir) {
		t.Errorf("New(\"\") error = %v, want %v", err, cache.ErrEmptyDir)
	}

	dir := filepath.Join(t.TempDir(), "lazy")
	store, err := cache.New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if store.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", store.Dir(), dir)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("New() created the directory eagerly")
	}
}

// ---------------------------------------------------------------------------
// TestStore_LookupPut - Hit and miss
// ---------------------------------------------------------------------------

func TestStore_LookupPut(t *testing.T) {
	t.Parallel()

	store, _ := cache.New(filepath.Join(t.TempDir(), "cache"))
	fp := cache.Fingerprint("c d e", nil, renderKeys)

	path, ok, err := store.Lookup(fp, "png")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if ok {
		t.Fatal("Lookup() hit on an empty cache")
	}

	work, cleanup, err := store.WorkDir()
	if err != nil {
		t.Fatalf("WorkDir() error = %v", err)
	}
	defer cleanup()

	artifact := filepath.Join(work, "score.png")
	if err := os.WriteFile(artifact, []byte("PNG"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	stored, err := store.Put(fp, "png", artifact)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if stored != path {
		t.Errorf("Put() path = %q, want %q", stored, path)
	}
	if _, err := os.Stat(artifact); !os.IsNotExist(err) {
		t.Error("Put() left the artifact in the work directory")
	}

	got, ok, err := store.Lookup(fp, "png")
	if err != nil || !ok {
		t.Fatalf("Lookup() after Put = %q, %v, %v", got, ok, err)
	}
	data, _ := os.ReadFile(got)
	if string(data) != "PNG" {
		t.Errorf("entry content = %q, want %q", data, "PNG")
	}

	// Same fingerprint, other format: distinct entry.
	if _, ok, _ := store.Lookup(fp, "svg"); ok {
		t.Error("Lookup() hit for a format never stored")
	}
}

func TestStore_Put_MissingArtifact(t *testing.T) {
	t.Parallel()

	store, _ := cache.New(t.TempDir())
	_, err := store.Put("abc", "png", filepath.Join(t.TempDir(), "nope.png"))
	if !errors.Is(err, cache.ErrArtifactNotFound) {
		t.Errorf("Put() error = %v, want %v", err, cache.ErrArtifactNotFound)
	}
}

func TestStore_InvalidKey(t *testing.T) {
	t.Parallel()

	store, _ := cache.New(t.TempDir())

	tests := []struct {
		name        string
		fingerprint string
		format      string
	}{
		{name: "empty fingerprint", fingerprint: "", format: "png"},
		{name: "traversal fingerprint", fingerprint: "..", format: "png"},
		{name: "separator in fingerprint", fingerprint: "a/b", format: "png"},
		{name: "empty format", fingerprint: "abc", format: ""},
		{name: "separator in format", fingerprint: "abc", format: "png/../x"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, _, err := store.Lookup(tt.fingerprint, tt.format); !errors.Is(err, cache.ErrInvalidKey) {
				t.Errorf("Lookup() error = %v, want %v", err, cache.ErrInvalidKey)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestStore_WorkDir / TestStore_Clean
// ---------------------------------------------------------------------------

func TestStore_WorkDir(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "cache")
	store, _ := cache.New(root)

	a, cleanA, err := store.WorkDir()
	if err != nil {
		t.Fatalf("WorkDir() error = %v", err)
	}
	b, cleanB, err := store.WorkDir()
	if err != nil {
		t.Fatalf("WorkDir() error = %v", err)
	}
	defer cleanB()

	if a == b {
		t.Error("WorkDir() returned the same directory twice")
	}
	if filepath.Dir(a) != root || !strings.HasPrefix(filepath.Base(a), ".work-") {
		t.Errorf("WorkDir() = %q, want a .work-* directory in %q", a, root)
	}

	if err := os.WriteFile(filepath.Join(a, "score.ly"), []byte("x"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	cleanA()
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Error("cleanup did not remove the work directory")
	}
}

func TestStore_Clean(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "cache")
	store, _ := cache.New(root)
	if err := os.MkdirAll(root, 0o750); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "abc.png"), []byte("x"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := store.Clean(); err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Error("Clean() left the cache directory")
	}

	// Cleaning a missing directory is not an error.
	if err := store.Clean(); err != nil {
		t.Errorf("second Clean() error = %v", err)
	}
}
