package ast

import (
	"errors"
	"fmt"
	"strings"
)

// WalkFunc is called for every node in depth-first order. Returning false
// skips the node's children.
type WalkFunc func(n *Node, depth int) bool

// Walk visits n and its descendants in document order.
func Walk(n *Node, fn WalkFunc) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn WalkFunc) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func Count(n *Node) int {
	total := 0
	Walk(n, func(*Node, int) bool {
		total++
		return true
	})
	return total
}

// Depth returns the maximum nesting depth below n (0 for a leaf).
func Depth(n *Node) int {
	max := 0
	Walk(n, func(_ *Node, d int) bool {
		if d > max {
			max = d
		}
		return true
	})
	return max
}

// Find returns all nodes of the given kind in document order.
func Find(n *Node, kind Kind) []*Node {
	var out []*Node
	Walk(n, func(c *Node, _ int) bool {
		if c.Kind == kind {
			out = append(out, c)
		}
		return true
	})
	return out
}

// TextContent concatenates the textual content below n: Text, code and
// HTML content, image alt text, and a newline for each break.
func TextContent(n *Node) string {
	var sb strings.Builder
	Walk(n, func(c *Node, _ int) bool {
		switch c.Kind {
		case KindText, KindCodeInline, KindHTMLInline:
			sb.WriteString(c.Content)
		case KindImage:
			sb.WriteString(c.Alt)
		case KindLineBreak, KindSoftBreak:
			sb.WriteByte('\n')
		}
		return true
	})
	return sb.String()
}

// ErrInvalidTree is wrapped by every error returned from Verify.
var ErrInvalidTree = errors.New("invalid tree")

// Verify checks the structural invariants of a finished tree: the root is
// a Document, every node has begin <= end, begins never decrease in
// document order, and no node appears twice.
func Verify(root *Node) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", ErrInvalidTree)
	}
	if root.Kind != KindDocument {
		return fmt.Errorf("%w: root is %s", ErrInvalidTree, root.Kind)
	}

	seen := make(map[*Node]bool)
	var last Offset
	var err error
	Walk(root, func(n *Node, _ int) bool {
		if err != nil {
			return false
		}
		if seen[n] {
			err = fmt.Errorf("%w: %s node at %d has more than one parent", ErrInvalidTree, n.Kind, n.Begin)
			return false
		}
		seen[n] = true
		if n.Begin > n.End {
			err = fmt.Errorf("%w: %s node begins at %d after its end %d", ErrInvalidTree, n.Kind, n.Begin, n.End)
			return false
		}
		if n != root && n.Begin < last {
			err = fmt.Errorf("%w: %s node begins at %d before preceding offset %d", ErrInvalidTree, n.Kind, n.Begin, last)
			return false
		}
		last = n.Begin
		for _, c := range n.Children {
			if c == nil {
				err = fmt.Errorf("%w: nil child under %s", ErrInvalidTree, n.Kind)
				return false
			}
		}
		return true
	})
	return err
}
