package doctree

// WalkFunc is called for every node visited by Walk. depth is 0 for the root,
// 1 for blocks, 2 for their inline children and so on. Returning false skips
// the node's children.
type WalkFunc func(n Node, depth int) bool

type frame struct {
	node  Node
	depth int
}

// Walk visits root and all of its descendants in pre-order (document order).
// It uses an explicit stack, so arbitrarily deep link nesting cannot exhaust
// the goroutine stack. A nil root is not visited.
func Walk(root *Root, fn WalkFunc) {
	if root == nil {
		return
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(top.node, top.depth) {
			continue
		}
		stack = pushChildren(stack, top)
	}
}

// pushChildren pushes the children of f in reverse so they pop in order.
func pushChildren(stack []frame, f frame) []frame {
	d := f.depth + 1
	switch n := f.node.(type) {
	case *Root:
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: n.Children[i], depth: d})
		}
	case *Heading:
		stack = pushInlines(stack, n.Children, d)
	case *Paragraph:
		stack = pushInlines(stack, n.Children, d)
	case *Link:
		stack = pushInlines(stack, n.Children, d)
	case *TextRun, *LineBreak:
	}
	return stack
}

func pushInlines(stack []frame, children []Inline, depth int) []frame {
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: children[i], depth: depth})
	}
	return stack
}

// TextRuns returns every text run in document order.
func TextRuns(root *Root) []*TextRun {
	var runs []*TextRun
	Walk(root, func(n Node, _ int) bool {
		if t, ok := n.(*TextRun); ok {
			runs = append(runs, t)
		}
		return true
	})
	return runs
}
