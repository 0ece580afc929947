package assets

import (
	"fmt"
	"strings"
)

// ValidateAssetName checks that a style name is safe for use as a filename.
// Path separators and dots are rejected, which rules out traversal and
// extension games.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if strings.ContainsAny(name, "/\\.\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}
