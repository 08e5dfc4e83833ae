package textdoc

import (
	"strings"
	"testing"

	"github.com/eringen/pubtree/doctree"
)

// blockText returns the concatenated run text of b.
func blockText(t *testing.T, b doctree.Block) string {
	t.Helper()
	var parts []string
	for _, in := range b.Inlines() {
		run, ok := in.(*doctree.TextRun)
		if !ok {
			t.Fatalf("unexpected inline %T", in)
		}
		parts = append(parts, run.Text)
	}
	return strings.Join(parts, "")
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\n  ", "\n", "\t\r\n \r\n", "\ufeff\u00a0\n\u2003"} {
		root := Parse(input)
		if len(root.Children) != 1 {
			t.Fatalf("Parse(%q) blocks = %d, want 1", input, len(root.Children))
		}
		p, ok := root.Children[0].(*doctree.Paragraph)
		if !ok {
			t.Fatalf("Parse(%q) block = %T, want *Paragraph", input, root.Children[0])
		}
		if len(p.Children) != 0 {
			t.Errorf("Parse(%q) paragraph children = %d, want 0", input, len(p.Children))
		}
	}
}

func TestParseHeadingLevels(t *testing.T) {
	root := Parse("# A\n## B\n### C\n#### D")
	want := []struct {
		level int
		text  string
	}{{1, "A"}, {2, "B"}, {3, "C"}, {4, "D"}}
	if len(root.Children) != len(want) {
		t.Fatalf("blocks = %d, want %d", len(root.Children), len(want))
	}
	for i, w := range want {
		h, ok := root.Children[i].(*doctree.Heading)
		if !ok {
			t.Fatalf("block %d = %T, want *Heading", i, root.Children[i])
		}
		if h.Level != w.level {
			t.Errorf("block %d level = %d, want %d", i, h.Level, w.level)
		}
		if len(h.Children) != 1 {
			t.Fatalf("block %d runs = %d, want 1", i, len(h.Children))
		}
		if got := blockText(t, h); got != w.text {
			t.Errorf("block %d text = %q, want %q", i, got, w.text)
		}
	}
}

func TestParseNonHeadingHashes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"#", "#"},
		{"#NoSpace", "#NoSpace"},
		{"##### Five", "##### Five"},
		{"#   ", "#"},
		{"  ## ", "##"},
		{"# A\u2028B", "# A\u2028B"},
		{"#\u00a0\u00a0", "#"},
	}
	for _, tt := range tests {
		root := Parse(tt.input)
		if len(root.Children) != 1 {
			t.Fatalf("Parse(%q) blocks = %d, want 1", tt.input, len(root.Children))
		}
		p, ok := root.Children[0].(*doctree.Paragraph)
		if !ok {
			t.Fatalf("Parse(%q) block = %T, want *Paragraph", tt.input, root.Children[0])
		}
		if got := blockText(t, p); got != tt.expected {
			t.Errorf("Parse(%q) text = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestParseHeadingWhitespace(t *testing.T) {
	tests := []struct {
		input string
		level int
		text  string
	}{
		{"#   Spaced", 1, "Spaced"},
		{"##\tTabbed", 2, "Tabbed"},
		{"   ### Indented  ", 3, "Indented"},
		{"#### Keeps **markup**", 4, "Keeps **markup**"},
		{"# # Nested", 1, "# Nested"},
		{"#\u00a0Title", 1, "Title"},
		{"##\u2003Title", 2, "Title"},
		{"#\vTitle", 1, "Title"},
		{"#\u3000Title", 1, "Title"},
		{"#\ufeffTitle", 1, "Title"},
		{"\u00a0### Trimmed\ufeff", 3, "Trimmed"},
	}
	for _, tt := range tests {
		root := Parse(tt.input)
		h, ok := root.Children[0].(*doctree.Heading)
		if !ok {
			t.Fatalf("Parse(%q) block = %T, want *Heading", tt.input, root.Children[0])
		}
		if h.Level != tt.level {
			t.Errorf("Parse(%q) level = %d, want %d", tt.input, h.Level, tt.level)
		}
		if got := blockText(t, h); got != tt.text {
			t.Errorf("Parse(%q) text = %q, want %q", tt.input, got, tt.text)
		}
	}
}

func TestParseParagraphJoining(t *testing.T) {
	root := Parse("line one\nline two\n\nnext para")
	want := []string{"line one line two", "next para"}
	if len(root.Children) != len(want) {
		t.Fatalf("blocks = %d, want %d", len(root.Children), len(want))
	}
	for i, w := range want {
		p, ok := root.Children[i].(*doctree.Paragraph)
		if !ok {
			t.Fatalf("block %d = %T, want *Paragraph", i, root.Children[i])
		}
		if len(p.Children) != 1 {
			t.Errorf("block %d runs = %d, want 1", i, len(p.Children))
		}
		if got := blockText(t, p); got != w {
			t.Errorf("block %d = %q, want %q", i, got, w)
		}
	}
}

func TestParseHeadingSplitsParagraph(t *testing.T) {
	root := Parse("before\n## Mid\nafter")
	if len(root.Children) != 3 {
		t.Fatalf("blocks = %d, want 3", len(root.Children))
	}
	if _, ok := root.Children[1].(*doctree.Heading); !ok {
		t.Errorf("block 1 = %T, want *Heading", root.Children[1])
	}
	if got := blockText(t, root.Children[0]); got != "before" {
		t.Errorf("block 0 = %q, want %q", got, "before")
	}
	if got := blockText(t, root.Children[2]); got != "after" {
		t.Errorf("block 2 = %q, want %q", got, "after")
	}
}

func TestParseBlankLinesProduceNoBlocks(t *testing.T) {
	root := Parse("\n\n\nonly\n\n\n\n")
	if len(root.Children) != 1 {
		t.Fatalf("blocks = %d, want 1", len(root.Children))
	}
	if got := blockText(t, root.Children[0]); got != "only" {
		t.Errorf("text = %q, want %q", got, "only")
	}
}

func TestParseCRLF(t *testing.T) {
	root := Parse("# Title\r\nfirst\r\nsecond\r\n\r\nthird")
	if len(root.Children) != 3 {
		t.Fatalf("blocks = %d, want 3", len(root.Children))
	}
	if got := blockText(t, root.Children[1]); got != "first second" {
		t.Errorf("block 1 = %q, want %q", got, "first second")
	}
}

func TestParseEndToEnd(t *testing.T) {
	root := Parse("# Title\nIntro line.\n\n## Section\nBody text that continues.")
	want := []struct {
		heading int // 0 for paragraphs
		text    string
	}{
		{1, "Title"},
		{0, "Intro line."},
		{2, "Section"},
		{0, "Body text that continues."},
	}
	if len(root.Children) != len(want) {
		t.Fatalf("blocks = %d, want %d", len(root.Children), len(want))
	}
	for i, w := range want {
		b := root.Children[i]
		switch n := b.(type) {
		case *doctree.Heading:
			if w.heading != n.Level {
				t.Errorf("block %d heading level = %d, want %d", i, n.Level, w.heading)
			}
		case *doctree.Paragraph:
			if w.heading != 0 {
				t.Errorf("block %d is a paragraph, want heading %d", i, w.heading)
			}
		}
		if got := blockText(t, b); got != w.text {
			t.Errorf("block %d = %q, want %q", i, got, w.text)
		}
	}
}

func TestParseOutputEncodes(t *testing.T) {
	data, err := doctree.Marshal(Parse("## Rubrik\nText här."))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	got := string(data)
	for _, want := range []string{`"tag":"h2"`, `"text":"Rubrik"`, `"text":"Text här."`, `"type":"paragraph"`} {
		if !strings.Contains(got, want) {
			t.Errorf("encoded tree %s missing %s", got, want)
		}
	}
}
