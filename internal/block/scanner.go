package block

import (
	"strings"
)

// Block is one delimited source region found in a document.
type Block struct {
	RawTag string // attribute text of the opening delimiter, unparsed
	Body   string // content between delimiters, verbatim
	Start  int    // byte offset of the opening delimiter
	End    int    // byte offset just past the closing delimiter
	Line   int    // 1-based line of the opening delimiter
}

// Scanner locates blocks for a single keyword.
//
// Matching is not nested: a block ends at the nearest closing delimiter
// after its opening delimiter. An opening delimiter found inside a body is
// body text, so an inner block of the same keyword leaves its own closing
// delimiter behind as plain document text.
type Scanner struct {
	keyword string
}

// NewScanner creates a Scanner for keyword. Matching is case-insensitive.
func NewScanner(keyword string) *Scanner {
	return &Scanner{keyword: keyword}
}

// Keyword returns the block keyword this scanner matches.
func (s *Scanner) Keyword() string {
	return s.keyword
}

// Scan returns every block of doc in order of appearance.
func (s *Scanner) Scan(doc string) []Block {
	var blocks []Block
	s.walk(doc, func(b Block) {
		blocks = append(blocks, b)
	})
	return blocks
}

// Replace rewrites doc, substituting each block with fn's result.
// Text outside blocks is copied unchanged. If doc contains no block,
// it is returned as is.
func (s *Scanner) Replace(doc string, fn func(Block) string) string {
	var out strings.Builder
	last := 0
	s.walk(doc, func(b Block) {
		if last == 0 {
			out.Grow(len(doc))
		}
		out.WriteString(doc[last:b.Start])
		out.WriteString(fn(b))
		last = b.End
	})
	if last == 0 {
		return doc
	}
	out.WriteString(doc[last:])
	return out.String()
}

// walk calls emit for each block, left to right, without overlap.
func (s *Scanner) walk(doc string, emit func(Block)) {
	line := 1
	lineCounted := 0
	pos := 0

	for pos < len(doc) {
		rel := strings.IndexByte(doc[pos:], '{')
		if rel == -1 {
			return
		}
		start := pos + rel

		bodyStart, rawTag, ok := s.matchOpening(doc, start)
		if !ok {
			pos = skipRun(doc, start, '{')
			continue
		}

		bodyEnd, end, ok := s.findClosing(doc, bodyStart)
		if !ok {
			// No closing delimiter anywhere after this point.
			return
		}

		line += strings.Count(doc[lineCounted:start], "\n")
		lineCounted = start

		emit(Block{
			RawTag: rawTag,
			Body:   doc[bodyStart:bodyEnd],
			Start:  start,
			End:    end,
			Line:   line,
		})
		pos = end
	}
}

// matchOpening reports whether an opening delimiter starts at i.
// It returns the offset where the body begins and the raw attribute text.
func (s *Scanner) matchOpening(doc string, i int) (bodyStart int, rawTag string, ok bool) {
	i = skipRun(doc, i, '{')
	i = skipBlanks(doc, i)

	i, ok = s.matchKeyword(doc, i)
	if !ok {
		return 0, "", false
	}

	tagStart := i
	tagEnd := closingBraceIndex(doc, tagStart)
	if tagEnd == -1 {
		return 0, "", false
	}
	rawTag = strings.TrimSpace(doc[tagStart:tagEnd])

	i = skipRun(doc, tagEnd, '}')
	i = skipBlanks(doc, i)
	i = skipLineEnd(doc, i)
	return i, rawTag, true
}

// findClosing searches for the nearest closing delimiter at or after from.
// It returns where the body ends and where the delimiter ends.
func (s *Scanner) findClosing(doc string, from int) (bodyEnd, end int, ok bool) {
	pos := from
	for pos < len(doc) {
		rel := strings.IndexByte(doc[pos:], '{')
		if rel == -1 {
			return 0, 0, false
		}
		start := pos + rel

		i := skipRun(doc, start, '{')
		i = skipBlanks(doc, i)
		if i < len(doc) && doc[i] == '/' {
			if j, kwOK := s.matchKeyword(doc, i+1); kwOK {
				j = skipBlanks(doc, j)
				if j < len(doc) && doc[j] == '}' {
					return trimLineEndBefore(doc, from, start), skipRun(doc, j, '}'), true
				}
			}
		}
		pos = skipRun(doc, start, '{')
	}
	return 0, 0, false
}

// matchKeyword matches the keyword at i, followed by a blank or '}'.
func (s *Scanner) matchKeyword(doc string, i int) (int, bool) {
	n := len(s.keyword)
	if n == 0 || i+n > len(doc) || !strings.EqualFold(doc[i:i+n], s.keyword) {
		return 0, false
	}
	j := i + n
	if j < len(doc) && !isBlank(doc[j]) && doc[j] != '}' {
		return 0, false
	}
	return j, true
}

// closingBraceIndex finds the '}' that ends the opening tag on the current
// line, ignoring braces inside quoted values. If quotes do not balance it
// falls back to the first '}' so the attribute parser reports the quoting.
func closingBraceIndex(doc string, i int) int {
	lineEnd := strings.IndexByte(doc[i:], '\n')
	if lineEnd == -1 {
		lineEnd = len(doc)
	} else {
		lineEnd += i
	}
	segment := doc[i:lineEnd]

	var quote byte
	for k := 0; k < len(segment); k++ {
		c := segment[k]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '}':
			return i + k
		}
	}

	if k := strings.IndexByte(segment, '}'); k != -1 {
		return i + k
	}
	return -1
}

// trimLineEndBefore drops blanks and one line terminator that precede the
// closing delimiter at pos, without crossing into the opening delimiter.
func trimLineEndBefore(doc string, floor, pos int) int {
	i := pos
	for i > floor && isBlank(doc[i-1]) {
		i--
	}
	if i > floor && doc[i-1] == '\n' {
		i--
		if i > floor && doc[i-1] == '\r' {
			i--
		}
		return i
	}
	return pos
}

func skipRun(s string, i int, c byte) int {
	for i < len(s) && s[i] == c {
		i++
	}
	return i
}

func skipLineEnd(s string, i int) int {
	if strings.HasPrefix(s[i:], "\r\n") {
		return i + 2
	}
	if i < len(s) && s[i] == '\n' {
		return i + 1
	}
	return i
}
