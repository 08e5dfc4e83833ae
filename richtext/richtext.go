// Package richtext renders document trees as HTML and as templ components.
package richtext

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/pubtree/doctree"
)

// formatTags lists inline format flags in nesting order, outermost first.
var formatTags = []struct {
	flag doctree.Format
	tag  string
}{
	{doctree.Bold, "strong"},
	{doctree.Italic, "em"},
	{doctree.Underline, "u"},
	{doctree.Strikethrough, "s"},
	{doctree.Subscript, "sub"},
	{doctree.Superscript, "sup"},
	{doctree.Code, "code"},
}

// RichText returns a templ.Component that renders root as HTML.
func RichText(root *doctree.Root) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		RenderHTML(&buf, root)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// HTML returns the HTML representation of root.
func HTML(root *doctree.Root) string {
	var buf bytes.Buffer
	RenderHTML(&buf, root)
	return buf.String()
}

// item is either a node to render or, when node is nil, literal markup to
// emit (the closing tags of an element whose children are still on the stack).
type item struct {
	node  doctree.Node
	close string
}

// RenderHTML writes the HTML representation of root to buf. Blocks become
// <h1>-<h6> and <p> elements; text is escaped and wrapped in one tag per
// format flag. Unsafe link targets render as their text only.
func RenderHTML(buf *bytes.Buffer, root *doctree.Root) {
	if root == nil {
		return
	}
	stack := make([]item, 0, len(root.Children))
	for i := len(root.Children) - 1; i >= 0; i-- {
		stack = append(stack, item{node: root.Children[i]})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.node == nil {
			buf.WriteString(it.close)
			continue
		}
		switch n := it.node.(type) {
		case *doctree.Heading:
			tag := "h" + strconv.Itoa(clampLevel(n.Level))
			buf.WriteString("<" + tag + ">")
			stack = push(stack, "</"+tag+">", n.Children)
		case *doctree.Paragraph:
			buf.WriteString("<p>")
			stack = push(stack, "</p>", n.Children)
		case *doctree.Link:
			href := SafeURL(n.URL)
			if href == "" {
				stack = push(stack, "", n.Children)
				continue
			}
			attrs := ""
			if n.NewTab {
				attrs = ` target="_blank" rel="noopener noreferrer"`
			}
			buf.WriteString(`<a href="` + href + `"` + attrs + `>`)
			stack = push(stack, "</a>", n.Children)
		case *doctree.TextRun:
			writeText(buf, n)
		case *doctree.LineBreak:
			buf.WriteString("<br/>")
		}
	}
}

// push schedules close to be written after children, which render in order.
func push(stack []item, close string, children []doctree.Inline) []item {
	if close != "" {
		stack = append(stack, item{close: close})
	}
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, item{node: children[i]})
	}
	return stack
}

func writeText(buf *bytes.Buffer, run *doctree.TextRun) {
	var closing []string
	for _, ft := range formatTags {
		if run.Format.Has(ft.flag) {
			buf.WriteString("<" + ft.tag + ">")
			closing = append(closing, "</"+ft.tag+">")
		}
	}
	buf.WriteString(html.EscapeString(run.Text))
	for i := len(closing) - 1; i >= 0; i-- {
		buf.WriteString(closing[i])
	}
}

func clampLevel(level int) int {
	switch {
	case level < 1:
		return 1
	case level > 6:
		return 6
	}
	return level
}

// SafeURL validates and sanitizes a URL for use in HTML attributes.
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return html.EscapeString(val)
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return html.EscapeString(val)
	default:
		return ""
	}
}
