// Package doctree defines the rich-text document tree stored for posts, pages
// and categories, and the traversal and JSON codec shared by every package that
// reads or writes it.
//
// A document is a Root holding an ordered list of blocks (headings and
// paragraphs). Each block holds an ordered list of inline nodes (text runs,
// links and line breaks). Order is reading order.
package doctree

// Format is a bitmask of inline text formatting flags. The bit values match
// the Lexical editor so trees round-trip through the CMS unchanged.
type Format int

const (
	Bold Format = 1 << iota
	Italic
	Strikethrough
	Underline
	Code
	Subscript
	Superscript
)

// Has reports whether all bits of flag are set.
func (f Format) Has(flag Format) bool {
	return f&flag == flag
}

// MaxDepth bounds inline nesting (links inside links) accepted by Decode.
const MaxDepth = 32

// Node is any element of a document tree.
type Node interface {
	node()
}

// Block is a top-level child of Root. It is either *Heading or *Paragraph.
type Block interface {
	Node
	block()
	Inlines() []Inline
}

// Inline is a child of a block or link. It is *TextRun, *Link or *LineBreak.
type Inline interface {
	Node
	inline()
}

// Root is the single container of a document.
type Root struct {
	Children []Block
}

// Heading is a section title. Level is 1 for the most prominent heading.
type Heading struct {
	Level    int
	Children []Inline
}

// Paragraph is a block of running text.
type Paragraph struct {
	Children []Inline
}

// TextRun is a span of text sharing one set of formatting flags.
type TextRun struct {
	Text   string
	Format Format
}

// Link wraps inline content pointing at URL.
type Link struct {
	URL      string
	NewTab   bool
	Children []Inline
}

// LineBreak is a hard break inside a block.
type LineBreak struct{}

func (*Root) node()      {}
func (*Heading) node()   {}
func (*Paragraph) node() {}
func (*TextRun) node()   {}
func (*Link) node()      {}
func (*LineBreak) node() {}

func (*Heading) block()   {}
func (*Paragraph) block() {}

func (*TextRun) inline()   {}
func (*Link) inline()      {}
func (*LineBreak) inline() {}

// Inlines returns the heading's children.
func (h *Heading) Inlines() []Inline { return h.Children }

// Inlines returns the paragraph's children.
func (p *Paragraph) Inlines() []Inline { return p.Children }

// NewText returns an unformatted text run.
func NewText(s string) *TextRun {
	return &TextRun{Text: s}
}

// NewHeading returns a heading with a single unformatted text run.
func NewHeading(level int, text string) *Heading {
	return &Heading{Level: level, Children: []Inline{NewText(text)}}
}

// NewParagraph returns a paragraph with a single unformatted text run.
func NewParagraph(text string) *Paragraph {
	return &Paragraph{Children: []Inline{NewText(text)}}
}

// Empty returns a Root holding one empty paragraph, the canonical form of a
// document without content.
func Empty() *Root {
	return &Root{Children: []Block{&Paragraph{Children: []Inline{}}}}
}

// IsEmpty reports whether the tree contains no text at all.
func (r *Root) IsEmpty() bool {
	if r == nil {
		return true
	}
	empty := true
	Walk(r, func(n Node, _ int) bool {
		if t, ok := n.(*TextRun); ok && t.Text != "" {
			empty = false
		}
		return empty
	})
	return empty
}
