package assets

// StyleLoader loads a CSS stylesheet by name (without the .css extension).
// Implementations return ErrStyleNotFound for unknown names and
// ErrInvalidAssetName for names with separators or dots.
type StyleLoader interface {
	LoadStyle(name string) (string, error)
}

// DefaultStyleName is the built-in style used when none is configured.
const DefaultStyleName = "default"
