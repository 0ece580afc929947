// Package cache stores rendered artifacts in a directory, keyed by a
// fingerprint of the source and of the attributes that affect rendering.
//
// An entry is a file named <fingerprint>.<format>. Its presence is a cache
// hit: content is never re-verified, so a damaged entry is reused until it
// is removed from outside. Entries are placed by rename, so concurrent
// readers see either nothing or a complete file.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/raphigaziano/markyond/internal/fileutil"
)

// Sentinel errors for cache operations.
var (
	ErrEmptyDir         = errors.New("cache directory cannot be empty")
	ErrInvalidKey       = errors.New("invalid cache key")
	ErrArtifactNotFound = errors.New("artifact to store not found")
)

// Fingerprint derives the cache key for body rendered with attrs.
// Only the attributes named in keys take part, in sorted order, so the
// order of attributes in a document never changes the result. A key
// missing from attrs hashes the same as an empty value.
func Fingerprint(body string, attrs map[string]string, keys []string) string {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	h := sha256.New()
	h.Write([]byte(body))
	h.Write([]byte{0})
	for _, k := range sorted {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(attrs[k]))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Store is a directory of rendered artifacts.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created lazily.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, ErrEmptyDir
	}
	return &Store{dir: dir}, nil
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where the entry for fingerprint and format lives.
func (s *Store) Path(fingerprint, format string) (string, error) {
	if err := validateKey(fingerprint, format); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, fingerprint+"."+format), nil
}

// Lookup returns the artifact path for fingerprint and format if present.
func (s *Store) Lookup(fingerprint, format string) (string, bool, error) {
	path, err := s.Path(fingerprint, format)
	if err != nil {
		return "", false, err
	}
	return path, fileutil.FileExists(path), nil
}

// Put moves artifact into the store under fingerprint and format and
// returns the entry path. The artifact should live on the same filesystem
// as the store (see WorkDir) for the move to be a single rename.
func (s *Store) Put(fingerprint, format, artifact string) (string, error) {
	path, err := s.Path(fingerprint, format)
	if err != nil {
		return "", err
	}
	if !fileutil.FileExists(artifact) {
		return "", fmt.Errorf("%w: %s", ErrArtifactNotFound, artifact)
	}
	if err := s.ensureDir(); err != nil {
		return "", err
	}

	if err := os.Rename(artifact, path); err != nil {
		// Different filesystem: copy next to the entry, then rename.
		if copyErr := fileutil.CopyFileAtomic(artifact, path); copyErr != nil {
			return "", fmt.Errorf("storing cache entry: %w", copyErr)
		}
		_ = os.Remove(artifact)
	}
	return path, nil
}

// WorkDir creates a scratch directory inside the cache directory.
// The cleanup function removes it and everything left in it.
func (s *Store) WorkDir() (dir string, cleanup func(), err error) {
	if err := s.ensureDir(); err != nil {
		return "", nil, err
	}
	dir, err = os.MkdirTemp(s.dir, ".work-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating work directory: %w", err)
	}
	return dir, func() { _ = os.RemoveAll(dir) }, nil
}

// Clean removes the whole cache directory.
func (s *Store) Clean() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("removing cache directory: %w", err)
	}
	return nil
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, fileutil.DirPermissions); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return nil
}

// validateKey rejects keys that could escape the cache directory.
func validateKey(fingerprint, format string) error {
	if fingerprint == "" {
		return fmt.Errorf("%w: empty fingerprint", ErrInvalidKey)
	}
	if err := fileutil.ValidateExtension(format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if !fileutil.IsPlainName(fingerprint) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, fingerprint)
	}
	return nil
}
