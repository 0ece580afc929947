package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
)

// ErrPageRender indicates the page template failed to execute.
var ErrPageRender = errors.New("page rendering failed")

// DefaultTitle is the page title when none is configured.
const DefaultTitle = "Document"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
</body>
</html>`))

// PageData is the content of a standalone page.
type PageData struct {
	Title string
	Body  string // trusted HTML fragment
}

// RenderPage wraps an HTML fragment in a standalone HTML5 document.
func RenderPage(data PageData) (string, error) {
	title := data.Title
	if title == "" {
		title = DefaultTitle
	}

	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: title,
		Body:  template.HTML(data.Body), // #nosec G203 -- goldmark output in safe mode plus our own block markup
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPageRender, err)
	}
	return buf.String(), nil
}

// CSSInjector defines the contract for CSS injection into HTML.
type CSSInjector interface {
	InjectCSS(ctx context.Context, htmlContent, cssContent string) string
}

// CSSInjection injects CSS as a <style> block into HTML content.
type CSSInjection struct{}

var _ CSSInjector = (*CSSInjection)(nil)

// InjectCSS inserts a <style> block before </head>, after <body> when the
// page has no head, or in front of the content as a last resort.
func (s *CSSInjection) InjectCSS(ctx context.Context, htmlContent, cssContent string) string {
	if cssContent == "" || ctx.Err() != nil {
		return htmlContent
	}

	styleBlock := "<style>" + sanitizeCSS(cssContent) + "</style>"
	lower := strings.ToLower(htmlContent)

	if idx := strings.Index(lower, "</head>"); idx != -1 {
		return htmlContent[:idx] + styleBlock + htmlContent[idx:]
	}
	if idx := strings.Index(lower, "<body"); idx != -1 {
		if closeIdx := strings.Index(htmlContent[idx:], ">"); closeIdx != -1 {
			pos := idx + closeIdx + 1
			return htmlContent[:pos] + styleBlock + htmlContent[pos:]
		}
	}
	return styleBlock + htmlContent
}

// sanitizeCSS escapes sequences that could close the <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}
