// Package materialize publishes rendered artifacts to the output directory
// and builds the HTML element that references them.
package materialize

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/raphigaziano/markyond/internal/fileutil"
)

// ErrMissingOutputFile indicates a block without an output_file attribute.
var ErrMissingOutputFile = errors.New("missing output_file attribute")

// FormatPDF is the only format referenced by a link instead of an image.
const FormatPDF = "pdf"

// Target describes where an artifact is published and how it is referenced.
type Target struct {
	OutputDir  string
	OutputFile string // relative to OutputDir, or absolute
	Format     string
	BaseURL    string
	LinkName   string // link label for pdf, defaults to the base name of OutputFile
}

// Destination returns the filesystem path the artifact is copied to.
// An absolute OutputFile is used as is.
func (t Target) Destination() string {
	if filepath.IsAbs(t.OutputFile) {
		return t.OutputFile
	}
	dir := t.OutputDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, t.OutputFile)
}

// URL returns the reference used in the markup: BaseURL followed by OutputFile.
func (t Target) URL() string {
	return t.BaseURL + t.OutputFile
}

// Materialize copies artifact to the target destination, creating missing
// directories, and returns the markup referencing it. The artifact itself
// is left in place.
func Materialize(artifact string, t Target) (string, error) {
	if t.OutputFile == "" {
		return "", ErrMissingOutputFile
	}
	if err := fileutil.CopyFileAtomic(artifact, t.Destination()); err != nil {
		return "", fmt.Errorf("publishing %s: %w", t.OutputFile, err)
	}
	return Markup(t)
}

// Markup renders the element referencing the target:
// <a href="URL">LABEL</a> for pdf, <img src="URL"/> otherwise.
func Markup(t Target) (string, error) {
	if t.OutputFile == "" {
		return "", ErrMissingOutputFile
	}

	var n *html.Node
	if strings.EqualFold(t.Format, FormatPDF) {
		n = &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.A,
			Data:     "a",
			Attr:     []html.Attribute{{Key: "href", Val: t.URL()}},
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: t.label()})
	} else {
		n = &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Img,
			Data:     "img",
			Attr:     []html.Attribute{{Key: "src", Val: t.URL()}},
		}
	}

	var buf strings.Builder
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("rendering markup: %w", err)
	}
	return buf.String(), nil
}

func (t Target) label() string {
	if t.LinkName != "" {
		return t.LinkName
	}
	return path.Base(filepath.ToSlash(t.OutputFile))
}
