package richtext

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/eringen/pubtree/doctree"
	"github.com/eringen/pubtree/textdoc"
)

func TestHTMLBlocks(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"# Heading 1", "<h1>Heading 1</h1>"},
		{"## Heading 2", "<h2>Heading 2</h2>"},
		{"#### Heading 4", "<h4>Heading 4</h4>"},
		{"plain text", "<p>plain text</p>"},
		{"", "<p></p>"},
		{"a < b & c", "<p>a &lt; b &amp; c</p>"},
		{"**not bold**", "<p>**not bold**</p>"},
	}
	for _, tt := range tests {
		got := HTML(textdoc.Parse(tt.input))
		if got != tt.expected {
			t.Errorf("HTML(Parse(%q)) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestHTMLNil(t *testing.T) {
	if got := HTML(nil); got != "" {
		t.Errorf("HTML(nil) = %q, want empty", got)
	}
}

func TestHTMLFormats(t *testing.T) {
	tests := []struct {
		format   doctree.Format
		expected string
	}{
		{0, "<p>x</p>"},
		{doctree.Bold, "<p><strong>x</strong></p>"},
		{doctree.Italic, "<p><em>x</em></p>"},
		{doctree.Bold | doctree.Italic, "<p><strong><em>x</em></strong></p>"},
		{doctree.Code, "<p><code>x</code></p>"},
		{doctree.Strikethrough | doctree.Underline, "<p><u><s>x</s></u></p>"},
		{doctree.Superscript, "<p><sup>x</sup></p>"},
	}
	for _, tt := range tests {
		root := &doctree.Root{Children: []doctree.Block{
			&doctree.Paragraph{Children: []doctree.Inline{&doctree.TextRun{Text: "x", Format: tt.format}}},
		}}
		if got := HTML(root); got != tt.expected {
			t.Errorf("HTML(format %d) = %q, want %q", tt.format, got, tt.expected)
		}
	}
}

func TestHTMLLinks(t *testing.T) {
	tests := []struct {
		link     *doctree.Link
		expected string
	}{
		{
			&doctree.Link{URL: "https://example.com/a_b", Children: []doctree.Inline{doctree.NewText("ex")}},
			`<p><a href="https://example.com/a_b">ex</a></p>`,
		},
		{
			&doctree.Link{URL: "/om-oss", NewTab: true, Children: []doctree.Inline{doctree.NewText("Om oss")}},
			`<p><a href="/om-oss" target="_blank" rel="noopener noreferrer">Om oss</a></p>`,
		},
		{
			&doctree.Link{URL: "javascript:alert(1)", Children: []doctree.Inline{doctree.NewText("click")}},
			`<p>click</p>`,
		},
	}
	for _, tt := range tests {
		root := &doctree.Root{Children: []doctree.Block{&doctree.Paragraph{Children: []doctree.Inline{tt.link}}}}
		if got := HTML(root); got != tt.expected {
			t.Errorf("HTML(link %q) = %q, want %q", tt.link.URL, got, tt.expected)
		}
	}
}

func TestHTMLStructure(t *testing.T) {
	root := textdoc.Parse("# Titel\nIntro.\n\n## Del\nBrödtext.\n\n### Under\nMer.")
	root.Children = append(root.Children, &doctree.Paragraph{Children: []doctree.Inline{
		doctree.NewText("rad ett"), &doctree.LineBreak{}, doctree.NewText("rad två"),
	}})

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(HTML(root)))
	if err != nil {
		t.Fatalf("parse rendered html: %v", err)
	}
	if got := doc.Find("h1").Text(); got != "Titel" {
		t.Errorf("h1 = %q, want Titel", got)
	}
	if got := doc.Find("h2").Text(); got != "Del" {
		t.Errorf("h2 = %q, want Del", got)
	}
	if got := doc.Find("h3").Length(); got != 1 {
		t.Errorf("h3 count = %d, want 1", got)
	}
	if got := doc.Find("p").Length(); got != 4 {
		t.Errorf("p count = %d, want 4", got)
	}
	if got := doc.Find("p br").Length(); got != 1 {
		t.Errorf("br count = %d, want 1", got)
	}
}

func TestRichTextComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := RichText(textdoc.Parse("## Rubrik")).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.String() != "<h2>Rubrik</h2>" {
		t.Errorf("Render = %q", buf.String())
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com", "https://example.com"},
		{"mailto:red@example.se", "mailto:red@example.se"},
		{"/relative", "/relative"},
		{"#anchor", "#anchor"},
		{"javascript:alert(1)", ""},
		{"data:text/html,x", ""},
		{"example.com", ""},
		{"  ", ""},
		{`/a"b`, "/a&#34;b"},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.input); got != tt.expected {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
