// Package event is the vocabulary shared by a markdown engine and the tree
// builder: block, span and text kinds, their detail payloads, and the
// Handler contract through which events are delivered.
//
// Events arrive in strict nested order. Every EnterBlock/EnterSpan is
// matched by a later LeaveBlock/LeaveSpan of the same kind before the
// enclosing construct is left.
package event

import (
	"fmt"

	"github.com/dgallion1/mdast/internal/ast"
)

// Offset is a byte position in the source document.
type Offset = ast.Offset

// BlockKind enumerates container-level constructs.
type BlockKind uint8

const (
	BlockDoc BlockKind = iota
	BlockQuote
	BlockUL
	BlockOL
	BlockLI
	BlockHR
	BlockH
	BlockCode
	BlockHTML
	BlockP
	BlockTable
	BlockTHead
	BlockTBody
	BlockTR
	BlockTH
	BlockTD
)

var blockNames = [...]string{
	"doc", "quote", "ul", "ol", "li", "hr", "h", "code", "html", "p",
	"table", "thead", "tbody", "tr", "th", "td",
}

func (k BlockKind) String() string {
	if int(k) < len(blockNames) {
		return blockNames[k]
	}
	return fmt.Sprintf("block(%d)", uint8(k))
}

// SpanKind enumerates inline constructs.
type SpanKind uint8

const (
	SpanEm SpanKind = iota
	SpanStrong
	SpanA
	SpanImg
	SpanCode
	SpanDel
	SpanLatexMath
	SpanLatexMathDisplay
	SpanWikiLink
	SpanU
)

var spanNames = [...]string{
	"em", "strong", "a", "img", "code", "del", "latexmath", "latexmath_display", "wikilink", "u",
}

func (k SpanKind) String() string {
	if int(k) < len(spanNames) {
		return spanNames[k]
	}
	return fmt.Sprintf("span(%d)", uint8(k))
}

// TextKind classifies a run of text. It is also used to type the
// sub-ranges of an Attribute.
type TextKind uint8

const (
	// TextNormal is ordinary text.
	TextNormal TextKind = iota
	// TextNullChar marks a NUL byte in the input.
	TextNullChar
	// TextBR is a hard line break.
	TextBR
	// TextSoftBR is a soft line break.
	TextSoftBR
	// TextEntity carries the decoded form of a character reference.
	TextEntity
	// TextCode is text inside a code span or code block.
	TextCode
	// TextHTML is raw HTML passed through verbatim.
	TextHTML
	// TextLatexMath is text inside a math span.
	TextLatexMath
	// TextMarkup is syntax that is not part of the value, such as the
	// backslash of an escape. Only used inside attributes.
	TextMarkup
)

var textNames = [...]string{
	"normal", "nullchar", "br", "softbr", "entity", "code", "html", "latexmath", "markup",
}

func (k TextKind) String() string {
	if int(k) < len(textNames) {
		return textNames[k]
	}
	return fmt.Sprintf("text(%d)", uint8(k))
}

// Literal reports whether text of this kind contributes to a decoded
// attribute value.
func (k TextKind) Literal() bool {
	switch k {
	case TextNormal, TextEntity, TextNullChar:
		return true
	}
	return false
}

// Handler consumes an event stream.
type Handler interface {
	EnterBlock(kind BlockKind, detail Detail, off Offset)
	LeaveBlock(kind BlockKind, detail Detail, off Offset)
	EnterSpan(kind SpanKind, detail Detail, off Offset)
	LeaveSpan(kind SpanKind, detail Detail, off Offset)
	Text(kind TextKind, text []byte, off Offset)
}

// Callbacks adapts five functions to a Handler. Nil slots drop their
// events.
type Callbacks struct {
	OnEnterBlock func(kind BlockKind, detail Detail, off Offset)
	OnLeaveBlock func(kind BlockKind, detail Detail, off Offset)
	OnEnterSpan  func(kind SpanKind, detail Detail, off Offset)
	OnLeaveSpan  func(kind SpanKind, detail Detail, off Offset)
	OnText       func(kind TextKind, text []byte, off Offset)
}

var _ Handler = Callbacks{}

func (c Callbacks) EnterBlock(kind BlockKind, detail Detail, off Offset) {
	if c.OnEnterBlock != nil {
		c.OnEnterBlock(kind, detail, off)
	}
}

func (c Callbacks) LeaveBlock(kind BlockKind, detail Detail, off Offset) {
	if c.OnLeaveBlock != nil {
		c.OnLeaveBlock(kind, detail, off)
	}
}

func (c Callbacks) EnterSpan(kind SpanKind, detail Detail, off Offset) {
	if c.OnEnterSpan != nil {
		c.OnEnterSpan(kind, detail, off)
	}
}

func (c Callbacks) LeaveSpan(kind SpanKind, detail Detail, off Offset) {
	if c.OnLeaveSpan != nil {
		c.OnLeaveSpan(kind, detail, off)
	}
}

func (c Callbacks) Text(kind TextKind, text []byte, off Offset) {
	if c.OnText != nil {
		c.OnText(kind, text, off)
	}
}
