package doctree

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrUnknownType is returned for node types the tree does not model.
	ErrUnknownType = errors.New("unknown node type")
	// ErrTooDeep is returned when inline nesting exceeds MaxDepth.
	ErrTooDeep = errors.New("tree exceeds maximum depth")
)

// DecodeError reports where in the JSON document decoding failed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return e.Path + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// wire is the Lexical editor state shape. Element nodes carry a string
// "format" (alignment) and text nodes an integer bitmask, so format is kept raw.
type wire struct {
	Type     string          `json:"type"`
	Tag      string          `json:"tag,omitempty"`
	Text     *string         `json:"text,omitempty"`
	Format   json.RawMessage `json:"format,omitempty"`
	URL      string          `json:"url,omitempty"`
	Fields   *wireLinkFields `json:"fields,omitempty"`
	Children []wire          `json:"children,omitempty"`
}

type wireLinkFields struct {
	URL      string `json:"url"`
	NewTab   bool   `json:"newTab"`
	LinkType string `json:"linkType,omitempty"`
}

type wireState struct {
	Root *wire `json:"root"`
}

// Marshal encodes root in the Lexical editor state shape.
func Marshal(root *Root) ([]byte, error) {
	return json.Marshal(root)
}

// Unmarshal decodes a Lexical editor state into a tree.
func Unmarshal(data []byte) (*Root, error) {
	root := &Root{}
	if err := json.Unmarshal(data, root); err != nil {
		return nil, err
	}
	return root, nil
}

// Encode writes root to w as JSON.
func Encode(w io.Writer, root *Root) error {
	data, err := Marshal(root)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode reads a Lexical editor state from r.
func Decode(r io.Reader) (*Root, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// MarshalJSON implements json.Marshaler.
func (r *Root) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"root":{"type":"root","children":[`)
	for i, b := range r.Children {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeBlock(&buf, b); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`],"direction":null,"format":"","indent":0,"version":1}}`)
	return buf.Bytes(), nil
}

func encodeBlock(buf *bytes.Buffer, b Block) error {
	switch n := b.(type) {
	case *Heading:
		if n.Level < 1 || n.Level > 6 {
			return fmt.Errorf("doctree: encode heading level %d out of range", n.Level)
		}
		buf.WriteString(`{"type":"heading","tag":"h` + strconv.Itoa(n.Level) + `","children":`)
		if err := encodeInlines(buf, n.Children, 2); err != nil {
			return err
		}
		buf.WriteString(`,"direction":null,"format":"start","indent":0,"version":1}`)
	case *Paragraph:
		buf.WriteString(`{"type":"paragraph","children":`)
		if err := encodeInlines(buf, n.Children, 2); err != nil {
			return err
		}
		buf.WriteString(`,"direction":null,"format":"","indent":0,"version":1,"textFormat":0,"textStyle":""}`)
	default:
		return fmt.Errorf("doctree: encode %T: %w", b, ErrUnknownType)
	}
	return nil
}

func encodeInlines(buf *bytes.Buffer, children []Inline, depth int) error {
	if depth > MaxDepth {
		return ErrTooDeep
	}
	buf.WriteByte('[')
	for i, c := range children {
		if i > 0 {
			buf.WriteByte(',')
		}
		switch n := c.(type) {
		case *TextRun:
			text, err := json.Marshal(n.Text)
			if err != nil {
				return err
			}
			buf.WriteString(`{"detail":0,"format":` + strconv.Itoa(int(n.Format)) + `,"mode":"normal","style":"","text":`)
			buf.Write(text)
			buf.WriteString(`,"type":"text","version":1}`)
		case *Link:
			fields, err := json.Marshal(wireLinkFields{URL: n.URL, NewTab: n.NewTab, LinkType: "custom"})
			if err != nil {
				return err
			}
			buf.WriteString(`{"type":"link","fields":`)
			buf.Write(fields)
			buf.WriteString(`,"children":`)
			if err := encodeInlines(buf, n.Children, depth+1); err != nil {
				return err
			}
			buf.WriteString(`,"direction":null,"format":"","indent":0,"version":3}`)
		case *LineBreak:
			buf.WriteString(`{"type":"linebreak","version":1}`)
		default:
			return fmt.Errorf("doctree: encode %T: %w", c, ErrUnknownType)
		}
	}
	buf.WriteByte(']')
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Root) UnmarshalJSON(data []byte) error {
	var state wireState
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	if state.Root == nil {
		return &DecodeError{Path: "root", Err: errors.New("missing root node")}
	}
	if state.Root.Type != "root" {
		return &DecodeError{Path: "root", Err: fmt.Errorf("%w %q", ErrUnknownType, state.Root.Type)}
	}
	blocks := make([]Block, 0, len(state.Root.Children))
	for i, w := range state.Root.Children {
		path := "root.children[" + strconv.Itoa(i) + "]"
		b, err := decodeBlock(w, path)
		if err != nil {
			return err
		}
		blocks = append(blocks, b)
	}
	r.Children = blocks
	return nil
}

func decodeBlock(w wire, path string) (Block, error) {
	switch w.Type {
	case "heading":
		level, err := headingLevel(w.Tag)
		if err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
		children, err := decodeInlines(w.Children, path, 2)
		if err != nil {
			return nil, err
		}
		return &Heading{Level: level, Children: children}, nil
	case "paragraph":
		children, err := decodeInlines(w.Children, path, 2)
		if err != nil {
			return nil, err
		}
		return &Paragraph{Children: children}, nil
	default:
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("%w %q", ErrUnknownType, w.Type)}
	}
}

func headingLevel(tag string) (int, error) {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0'), nil
	}
	return 0, fmt.Errorf("invalid heading tag %q", tag)
}

func decodeInlines(ws []wire, parent string, depth int) ([]Inline, error) {
	if depth > MaxDepth {
		return nil, &DecodeError{Path: parent, Err: ErrTooDeep}
	}
	out := make([]Inline, 0, len(ws))
	for i, w := range ws {
		path := parent + ".children[" + strconv.Itoa(i) + "]"
		switch w.Type {
		case "text":
			run := &TextRun{}
			if w.Text != nil {
				run.Text = *w.Text
			}
			if len(w.Format) > 0 && !strings.HasPrefix(string(w.Format), `"`) {
				var f int
				if err := json.Unmarshal(w.Format, &f); err != nil {
					return nil, &DecodeError{Path: path, Err: fmt.Errorf("format: %w", err)}
				}
				run.Format = Format(f)
			}
			out = append(out, run)
		case "link", "autolink":
			link := &Link{URL: w.URL}
			if w.Fields != nil {
				link.URL = w.Fields.URL
				link.NewTab = w.Fields.NewTab
			}
			children, err := decodeInlines(w.Children, path, depth+1)
			if err != nil {
				return nil, err
			}
			link.Children = children
			out = append(out, link)
		case "linebreak":
			out = append(out, &LineBreak{})
		default:
			return nil, &DecodeError{Path: path, Err: fmt.Errorf("%w %q", ErrUnknownType, w.Type)}
		}
	}
	return out, nil
}
