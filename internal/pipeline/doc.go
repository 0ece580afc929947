// Package pipeline turns a processed Markdown document into a standalone
// HTML page.
//
// Stages:
//   - Markdown preparation (line endings, ==highlight== syntax)
//   - Markdown to HTML conversion via Goldmark
//   - block placeholder expansion into the published block markup
//   - page assembly and stylesheet injection
//   - artifact URL rewriting for printing from a local file
//
// Block markup never goes through Goldmark: the processor leaves a
// placeholder per block, and the markup is put back after conversion. This
// keeps Goldmark in safe mode (raw HTML escaped) while the published
// elements come out verbatim.
package pipeline
