// Package doctree derives a heading outline from a parsed markdown tree.
package doctree

import (
	"strings"

	"github.com/dgallion1/mdast/internal/ast"
)

// DocTree is the root of a document outline.
type DocTree struct {
	Title    string     `json:"title" yaml:"title"`       // Document title (from the filename)
	Children []*DocNode `json:"children" yaml:"children"` // Top-level sections
}

// DocNode is a recursive section in the outline.
type DocNode struct {
	Title    string     `json:"title,omitempty" yaml:"title,omitempty"` // Section heading (empty for leaf text)
	Level    int        `json:"level,omitempty" yaml:"level,omitempty"` // Heading level, 0 for leaf text
	Text     string     `json:"text,omitempty" yaml:"text,omitempty"`   // Text of the blocks under the heading
	Begin    ast.Offset `json:"beg" yaml:"beg"`
	End      ast.Offset `json:"end" yaml:"end"`
	Children []*DocNode `json:"children,omitempty" yaml:"children,omitempty"` // Subsections
}

// Build walks the top-level blocks of root and nests sections by heading
// level. Text of non-heading blocks is attached to the innermost open
// section, separated by blank lines.
func Build(root *ast.Node, title string) *DocTree {
	tree := &DocTree{Title: title}
	if root == nil {
		return tree
	}

	type stackEntry struct {
		node  *DocNode
		level int
	}

	// Root is level 0; all h1+ nest under it.
	top := &DocNode{Title: title, Begin: root.Begin, End: root.Begin}
	stack := []stackEntry{{node: top, level: 0}}

	var current strings.Builder
	flushText := func() {
		t := strings.TrimSpace(current.String())
		if t != "" {
			n := stack[len(stack)-1].node
			if n.Text != "" {
				n.Text += "\n\n" + t
			} else {
				n.Text = t
			}
		}
		current.Reset()
	}
	extend := func(end ast.Offset) {
		for _, e := range stack {
			e.node.End = max(e.node.End, end)
		}
	}

	for _, block := range root.Children {
		if block.Kind == ast.KindHeading {
			flushText()
			section := &DocNode{
				Title: strings.TrimSpace(ast.TextContent(block)),
				Level: block.Level,
				Begin: block.Begin,
				End:   block.End,
			}

			// Pop until the top is a shallower section.
			for len(stack) > 1 && stack[len(stack)-1].level >= block.Level {
				stack = stack[:len(stack)-1]
			}
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, section)
			stack = append(stack, stackEntry{node: section, level: block.Level})
			extend(block.End)
			continue
		}

		if t := strings.TrimSpace(ast.TextContent(block)); t != "" {
			if current.Len() > 0 {
				current.WriteString("\n\n")
			}
			current.WriteString(t)
		}
		extend(block.End)
	}
	flushText()

	tree.Children = top.Children
	// Without headings all text goes into a single child.
	if len(tree.Children) == 0 && top.Text != "" {
		tree.Children = []*DocNode{{Text: top.Text, Begin: top.Begin, End: top.End}}
	}
	return tree
}

// Walk visits every section depth-first with its heading breadcrumb.
func (t *DocTree) Walk(fn func(n *DocNode, breadcrumb []string)) {
	var walk func(nodes []*DocNode, bc []string)
	walk = func(nodes []*DocNode, bc []string) {
		for _, n := range nodes {
			next := bc
			if n.Title != "" {
				next = append(append([]string(nil), bc...), n.Title)
			}
			fn(n, next)
			walk(n.Children, next)
		}
	}
	walk(t.Children, nil)
}
