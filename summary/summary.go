// Package summary derives flat values from rich content: reading time,
// sentence-aware excerpts and plain text. Every function is pure and safe for
// concurrent use; callers that want to reuse results cache them themselves.
package summary

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/eringen/pubtree/doctree"
)

const (
	// DefaultWordsPerMinute is the reading speed used when none is given.
	DefaultWordsPerMinute = 200
	// DefaultExcerptWords is the excerpt length used when none is given.
	DefaultExcerptWords = 65
)

// space is the JavaScript \s class, which includes no-break spaces.
const space = `[\s\x0B\p{Z}\x{FEFF}]`

var (
	reTag         = regexp.MustCompile(`<[^>]*>`)
	reSpace       = regexp.MustCompile(space + `+`)
	reWord        = regexp.MustCompile(`[^\s\x0B\p{Z}\x{FEFF}]+`)
	reParaBreak   = regexp.MustCompile(`(?i)</p>` + space + `*<p>`)
	reParaClose   = regexp.MustCompile(`(?i)</p>`)
	reParaOpen    = regexp.MustCompile(`(?i)<p>`)
	reSentenceEnd = regexp.MustCompile(`[.!?]$`)
)

// PlainText concatenates the text of every run in root in document order,
// each followed by a single space. The result is not trimmed.
func PlainText(root *doctree.Root) string {
	var b strings.Builder
	doctree.Walk(root, func(n doctree.Node, _ int) bool {
		if t, ok := n.(*doctree.TextRun); ok {
			b.WriteString(t.Text)
			b.WriteByte(' ')
		}
		return true
	})
	return b.String()
}

// StripTags replaces every markup tag in s with a space and collapses
// whitespace runs to one space.
func StripTags(s string) string {
	s = reTag.ReplaceAllString(s, " ")
	return trim(reSpace.ReplaceAllString(s, " "))
}

// WordCount returns the number of whitespace-separated words in s.
func WordCount(s string) int {
	return len(reWord.FindAllStringIndex(s, -1))
}

// trim removes the single spaces left at either end after collapsing.
func trim(s string) string {
	return strings.Trim(s, " ")
}

// ReadingTime estimates the minutes needed to read root at wpm words per
// minute. A nil or textless tree reads in 0 minutes; any text reads in at
// least 1.
func ReadingTime(root *doctree.Root, wpm int) int {
	if root == nil {
		return 0
	}
	return minutes(WordCount(PlainText(root)), wpm)
}

// ReadingTimeHTML is ReadingTime for content already rendered to HTML or
// plain text.
func ReadingTimeHTML(html string, wpm int) int {
	if html == "" {
		return 0
	}
	return minutes(WordCount(StripTags(html)), wpm)
}

func minutes(words, wpm int) int {
	if words == 0 {
		return 0
	}
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	m := (words + wpm - 1) / wpm
	if m < 1 {
		return 1
	}
	return m
}

// FormatReadingTime renders minutes for display, e.g. "5 min".
func FormatReadingTime(minutes int) string {
	return strconv.Itoa(minutes) + " min"
}

// NormalizeHTML flattens HTML or text to a single line of words. Paragraph
// boundaries become word breaks; all other tags are dropped without adding
// space.
func NormalizeHTML(s string) string {
	s = reParaBreak.ReplaceAllString(s, " ")
	s = reParaClose.ReplaceAllString(s, " ")
	s = reParaOpen.ReplaceAllString(s, "")
	s = reTag.ReplaceAllString(s, "")
	s = reSpace.ReplaceAllString(s, " ")
	return trim(s)
}

// Excerpt returns at most wordLimit words of htmlOrText wrapped in a single
// <p> element. When the content is longer than the limit it is cut after the
// last word ending a sentence ('.', '!' or '?') within the limit, falling back
// to a hard cut at the limit. Empty content yields "".
func Excerpt(htmlOrText string, wordLimit int) string {
	text := ExcerptText(htmlOrText, wordLimit)
	if text == "" {
		return ""
	}
	return "<p>" + text + "</p>"
}

// ExcerptText is Excerpt without the paragraph wrapper.
func ExcerptText(htmlOrText string, wordLimit int) string {
	if htmlOrText == "" {
		return ""
	}
	if wordLimit <= 0 {
		wordLimit = DefaultExcerptWords
	}
	text := NormalizeHTML(htmlOrText)
	if text == "" {
		return ""
	}
	words := strings.Split(text, " ")
	if len(words) <= wordLimit {
		return text
	}

	// words are joined by single spaces, so a prefix of n words is a prefix of
	// text ending at a known byte offset.
	end, lastSentence := 0, 0
	for i := 0; i < wordLimit; i++ {
		if i > 0 {
			end++
		}
		end += len(words[i])
		if reSentenceEnd.MatchString(words[i]) {
			lastSentence = end
		}
	}
	if lastSentence > 0 {
		return text[:lastSentence]
	}
	return text[:end]
}
