package assets

import "errors"

// Resolver combines a custom directory and the embedded styles. A style
// missing from the custom directory falls back to the embedded one.
type Resolver struct {
	custom   StyleLoader // nil without a custom path
	embedded StyleLoader
}

var _ StyleLoader = (*Resolver)(nil)

// NewResolver creates a Resolver. With an empty customBasePath only the
// embedded styles are used.
func NewResolver(customBasePath string) (*Resolver, error) {
	r := &Resolver{embedded: NewEmbeddedLoader()}

	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		r.custom = fsLoader
	}
	return r, nil
}

// LoadStyle loads a style, custom directory first.
func (r *Resolver) LoadStyle(name string) (string, error) {
	if r.custom == nil {
		return r.embedded.LoadStyle(name)
	}

	css, err := r.custom.LoadStyle(name)
	if err == nil {
		return css, nil
	}
	// Validation and I/O errors are not masked by the fallback.
	if !errors.Is(err, ErrStyleNotFound) {
		return "", err
	}
	return r.embedded.LoadStyle(name)
}
