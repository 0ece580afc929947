package pipeline

import (
	"regexp"
	"strconv"
	"strings"
)

// Placeholders use Unicode Private Use Area characters. They pass through
// Goldmark unchanged and cannot collide with document text.
const (
	MarkStartPlaceholder = ""
	MarkEndPlaceholder   = ""
	blockStart           = ""
	blockEnd             = ""
)

var (
	crlfOrCR         = regexp.MustCompile(`\r\n?`)
	highlightPattern = regexp.MustCompile(`==(.*?)==`)
	blockPattern     = regexp.MustCompile(blockStart + `(\d+)` + blockEnd)
)

// BlockPlaceholder returns the token that stands for the i-th block markup
// until ExpandBlockPlaceholders runs.
func BlockPlaceholder(i int) string {
	return blockStart + strconv.Itoa(i) + blockEnd
}

// ExpandBlockPlaceholders replaces every block placeholder with the markup
// at its index. Placeholders with an out of range index are dropped.
func ExpandBlockPlaceholders(content string, markups []string) string {
	if !strings.Contains(content, blockStart) {
		return content
	}
	return blockPattern.ReplaceAllStringFunc(content, func(m string) string {
		i, err := strconv.Atoi(m[len(blockStart) : len(m)-len(blockEnd)])
		if err != nil || i < 0 || i >= len(markups) {
			return ""
		}
		return markups[i]
	})
}

// PrepareMarkdown normalizes line endings and turns ==text== into mark
// placeholders, converted by ConvertMarkPlaceholders after Goldmark.
func PrepareMarkdown(content string) string {
	content = crlfOrCR.ReplaceAllString(content, "\n")
	return highlightPattern.ReplaceAllString(content, MarkStartPlaceholder+"$1"+MarkEndPlaceholder)
}

// ConvertMarkPlaceholders converts mark placeholders to <mark> tags.
func ConvertMarkPlaceholders(content string) string {
	return strings.ReplaceAll(
		strings.ReplaceAll(content, MarkStartPlaceholder, "<mark>"),
		MarkEndPlaceholder, "</mark>",
	)
}
