// Package textdoc converts plain text with markdown-style heading markers into
// a document tree.
//
// The grammar is intentionally small: a trimmed line of one to four '#'
// characters, whitespace and text is a heading; blank lines separate
// paragraphs; every other line is paragraph text. Consecutive text lines are
// joined with a single space (soft wraps). Any other markup is kept verbatim.
package textdoc

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/eringen/pubtree/doctree"
)

// Whitespace is \s plus \v, the Unicode separators (NBSP, U+3000, U+2028, ...)
// and U+FEFF. Heading text stops at line terminators.
var reHeading = regexp.MustCompile(`^(#{1,4})[\s\x0B\p{Z}\x{FEFF}]+([^\n\r\x{2028}\x{2029}]+)$`)

func isSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}

func trim(s string) string { return strings.TrimFunc(s, isSpace) }

// Parse converts source into a document tree. It never fails: an input with no
// content yields a root holding a single empty paragraph.
func Parse(source string) *doctree.Root {
	var blocks []doctree.Block
	var pending []string

	flushPara := func() {
		if len(pending) == 0 {
			return
		}
		text := trim(strings.Join(pending, " "))
		if text != "" {
			blocks = append(blocks, doctree.NewParagraph(text))
		}
		pending = pending[:0]
	}

	for _, raw := range strings.Split(source, "\n") {
		line := trim(raw)
		if line == "" {
			flushPara()
			continue
		}
		if m := reHeading.FindStringSubmatch(line); m != nil {
			flushPara()
			blocks = append(blocks, doctree.NewHeading(len(m[1]), m[2]))
			continue
		}
		pending = append(pending, line)
	}
	flushPara()

	if len(blocks) == 0 {
		return doctree.Empty()
	}
	return &doctree.Root{Children: blocks}
}
