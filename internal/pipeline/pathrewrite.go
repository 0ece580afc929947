package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RewriteArtifactURLs points img[src] and a[href] references at the
// published files under outputDir as file:// URLs, so a page loaded from a
// temporary location still finds block artifacts.
// If outputDir is empty, returns the HTML unchanged.
//
// A value is rewritten when:
//   - baseURL is not empty and the value starts with it: the prefix is
//     replaced by outputDir
//   - the value is a relative path: it is resolved against outputDir
//
// Left alone: other URLs (http, data, protocol-relative), anchors, other
// absolute paths and anything that would resolve outside outputDir.
func RewriteArtifactURLs(htmlContent, baseURL, outputDir string) (string, error) {
	if outputDir == "" {
		return htmlContent, nil
	}

	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return "", err
	}

	doc, isFragment, err := parseHTML(htmlContent)
	if err != nil {
		return "", err
	}

	r := urlRewriter{baseURL: baseURL, dir: absDir}
	r.walk(doc)

	return renderHTML(doc, isFragment)
}

// parseHTML parses a full document or a fragment. Fragments are parsed in
// body context and collected under a document node for uniform traversal.
func parseHTML(content string) (*html.Node, bool, error) {
	lower := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(lower, "<!doctype") || strings.HasPrefix(lower, "<html") {
		doc, err := html.Parse(strings.NewReader(content))
		return doc, false, err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return nil, true, err
	}
	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container, true, nil
}

// renderHTML renders the tree back. Fragments render their children only,
// without an <html><body> wrapper.
func renderHTML(doc *html.Node, isFragment bool) (string, error) {
	var buf strings.Builder
	if !isFragment {
		if err := html.Render(&buf, doc); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

type urlRewriter struct {
	baseURL string
	dir     string
}

func (r urlRewriter) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Img:
			r.rewriteAttr(n, "src")
		case atom.A:
			r.rewriteAttr(n, "href")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.walk(c)
	}
}

func (r urlRewriter) rewriteAttr(n *html.Node, key string) {
	for i, attr := range n.Attr {
		if attr.Key != key {
			continue
		}
		if p, ok := r.localPath(attr.Val); ok {
			n.Attr[i].Val = pathToFileURL(p)
		}
	}
}

// localPath maps a reference to a file under the output directory.
func (r urlRewriter) localPath(ref string) (string, bool) {
	var rel string
	switch {
	case ref == "":
		return "", false
	case r.baseURL != "" && strings.HasPrefix(ref, r.baseURL):
		rel = strings.TrimPrefix(ref, r.baseURL)
	case isRelativePath(ref):
		rel = ref
	default:
		return "", false
	}

	if u, err := url.PathUnescape(rel); err == nil {
		rel = u
	}
	abs := filepath.Join(r.dir, filepath.FromSlash(rel))
	if !isPathUnderDir(abs, r.dir) {
		return "", false
	}
	return abs, true
}

// isRelativePath returns true for plain relative file references.
func isRelativePath(path string) bool {
	if strings.HasPrefix(path, "#") || strings.HasPrefix(path, "//") {
		return false
	}
	if u, err := url.Parse(path); err != nil || u.Scheme != "" {
		return false
	}
	return !filepath.IsAbs(path) && !strings.HasPrefix(path, "/")
}

// isPathUnderDir checks that absPath is dir or lies below it.
func isPathUnderDir(absPath, dir string) bool {
	rel, err := filepath.Rel(dir, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	p := filepath.ToSlash(absPath)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p // Windows drive letter
	}
	u := url.URL{Scheme: "file", Path: p}
	return u.String()
}
