// Package ast defines the normalized markdown document tree.
//
// A tree is made of *Node values. Every node owns its children; a node is
// appended to exactly one parent, in document order. Offsets are byte
// positions into the source the tree was built from.
package ast

import (
	"fmt"
	"math"
)

// Offset is a byte position in the source document.
type Offset uint32

// MaxOffset is the largest representable offset. Inputs longer than this
// are truncated before parsing.
const MaxOffset = Offset(math.MaxUint32)

// Kind identifies the type of a node.
type Kind uint8

const (
	KindDocument Kind = iota
	KindParagraph
	KindHeading
	KindList
	KindListItem
	KindTaskListItem
	KindBlockquote
	KindCodeBlock
	KindCodeInline
	KindHTMLBlock
	KindHTMLInline
	KindHorizontalRule
	KindTable
	KindTableHead
	KindTableBody
	KindTableRow
	KindTableCell
	KindBold
	KindItalic
	KindStrikethrough
	KindLink
	KindImage
	KindMathInline
	KindMathBlock
	KindText
	KindLineBreak
	KindSoftBreak

	numKinds
)

var kindNames = [numKinds]string{
	KindDocument:       "document",
	KindParagraph:      "paragraph",
	KindHeading:        "heading",
	KindList:           "list",
	KindListItem:       "list_item",
	KindTaskListItem:   "task_list_item",
	KindBlockquote:     "blockquote",
	KindCodeBlock:      "code_block",
	KindCodeInline:     "code_inline",
	KindHTMLBlock:      "html_block",
	KindHTMLInline:     "html_inline",
	KindHorizontalRule: "horizontal_rule",
	KindTable:          "table",
	KindTableHead:      "table_head",
	KindTableBody:      "table_body",
	KindTableRow:       "table_row",
	KindTableCell:      "table_cell",
	KindBold:           "bold",
	KindItalic:         "italic",
	KindStrikethrough:  "strikethrough",
	KindLink:           "link",
	KindImage:          "image",
	KindMathInline:     "math_inline",
	KindMathBlock:      "math_block",
	KindText:           "text",
	KindLineBreak:      "line_break",
	KindSoftBreak:      "soft_break",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText encodes the kind as its snake_case name.
func (k Kind) MarshalText() ([]byte, error) {
	if k >= numKinds {
		return nil, fmt.Errorf("unknown node kind %d", uint8(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText decodes a snake_case kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	kind, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown node kind %q", b)
	}
	*k = kind
	return nil
}

// ParseKind looks up a kind by name.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// IsInline reports whether nodes of this kind live inside a leaf block.
func (k Kind) IsInline() bool {
	switch k {
	case KindText, KindBold, KindItalic, KindStrikethrough, KindLink, KindImage,
		KindCodeInline, KindHTMLInline, KindMathInline, KindMathBlock,
		KindLineBreak, KindSoftBreak:
		return true
	}
	return false
}

// Align is the horizontal alignment of a table cell.
type Align uint8

const (
	AlignDefault Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

var alignNames = [...]string{"default", "left", "center", "right"}

func (a Align) String() string {
	if int(a) < len(alignNames) {
		return alignNames[a]
	}
	return alignNames[AlignDefault]
}

func (a Align) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText accepts any alignment name; unknown names decode to
// AlignDefault.
func (a *Align) UnmarshalText(b []byte) error {
	*a = AlignDefault
	for i, n := range alignNames {
		if n == string(b) {
			*a = Align(i)
		}
	}
	return nil
}

// Node is one element of the document tree. Only the fields relevant to
// Kind are set.
type Node struct {
	Kind  Kind   `json:"type" yaml:"type"`
	Begin Offset `json:"beg" yaml:"beg"`
	End   Offset `json:"end" yaml:"end"`

	Level    int    `json:"level,omitempty" yaml:"level,omitempty"`       // heading 1-6
	Ordered  bool   `json:"ordered,omitempty" yaml:"ordered,omitempty"`   // list
	Start    int    `json:"start,omitempty" yaml:"start,omitempty"`       // ordered list
	Checked  bool   `json:"checked,omitempty" yaml:"checked,omitempty"`   // task list item
	Language string `json:"language,omitempty" yaml:"language,omitempty"` // code block

	IsHeader bool  `json:"is_header,omitempty" yaml:"is_header,omitempty"` // table cell
	Align    Align `json:"align,omitempty" yaml:"align,omitempty"`         // table cell

	Href  string `json:"href,omitempty" yaml:"href,omitempty"`   // link, image
	Title string `json:"title,omitempty" yaml:"title,omitempty"` // link, image
	Alt   string `json:"alt,omitempty" yaml:"alt,omitempty"`     // image

	Content string `json:"content,omitempty" yaml:"content,omitempty"` // text, code, html

	Children []*Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// New returns an empty node of the given kind.
func New(kind Kind) *Node {
	return &Node{Kind: kind}
}

// AppendChild adds c as the last child of n.
func (n *Node) AppendChild(c *Node) {
	n.Children = append(n.Children, c)
}

// Clone returns a deep copy of the subtree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return &c
}
