package emitter

import (
	"strconv"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Math is an inline `$...$` or display `$$...$$` formula.
type Math struct {
	gast.BaseInline
	Display bool
	Value   text.Segment // formula without delimiters
}

// KindMath is the NodeKind of Math.
var KindMath = gast.NewNodeKind("Math")

// Kind implements ast.Node.Kind.
func (n *Math) Kind() gast.NodeKind {
	return KindMath
}

// Inline implements ast.Inline.Inline.
func (n *Math) Inline() {}

// Dump implements ast.Node.Dump.
func (n *Math) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{
		"Display": strconv.FormatBool(n.Display),
		"Value":   string(n.Value.Value(source)),
	}, nil)
}

func (n *Math) delim() int {
	if n.Display {
		return 2
	}
	return 1
}

type mathParser struct{}

func (p *mathParser) Trigger() []byte {
	return []byte{'$'}
}

// Parse recognizes a formula on the current line. Inline formulas must not
// start or end with a space and must not be followed by a digit, so prices
// like "$5 and $6" stay text.
func (p *mathParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	line, seg := block.PeekLine()
	delim := 1
	if len(line) > 1 && line[1] == '$' {
		delim = 2
	}
	body := line[delim:]

	end := -1
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '\n':
			return nil
		case '$':
			if delim == 2 && (i+1 >= len(body) || body[i+1] != '$') {
				continue
			}
			end = i
		}
		if end >= 0 {
			break
		}
	}
	if end <= 0 {
		return nil
	}
	if delim == 1 {
		if isSpace(body[0]) || isSpace(body[end-1]) {
			return nil
		}
		if end+1 < len(body) && body[end+1] >= '0' && body[end+1] <= '9' {
			return nil
		}
	}

	n := &Math{
		Display: delim == 2,
		Value:   text.NewSegment(seg.Start+delim, seg.Start+delim+end),
	}
	block.Advance(delim + end + delim)
	return n
}

func (p *mathParser) CloseBlock(parent gast.Node, pc parser.Context) {}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

type mathExtension struct{}

// MathExtension enables `$...$` and `$$...$$` formulas.
var MathExtension goldmark.Extender = &mathExtension{}

func (e *mathExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(&mathParser{}, 150),
		),
	)
}
