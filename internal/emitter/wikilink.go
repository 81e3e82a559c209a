package emitter

import (
	"bytes"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// WikiLink is a `[[target]]` or `[[target|label]]` reference.
type WikiLink struct {
	gast.BaseInline
	Target []byte
	Label  text.Segment
	Source text.Segment // the whole `[[...]]`
}

// KindWikiLink is the NodeKind of WikiLink.
var KindWikiLink = gast.NewNodeKind("WikiLink")

// Kind implements ast.Node.Kind.
func (n *WikiLink) Kind() gast.NodeKind {
	return KindWikiLink
}

// Inline implements ast.Inline.Inline.
func (n *WikiLink) Inline() {}

// Dump implements ast.Node.Dump.
func (n *WikiLink) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{
		"Target": string(n.Target),
		"Label":  string(n.Label.Value(source)),
	}, nil)
}

var (
	wikiOpen  = []byte("[[")
	wikiClose = []byte("]]")
)

type wikiLinkParser struct{}

func (p *wikiLinkParser) Trigger() []byte {
	return []byte{'['}
}

func (p *wikiLinkParser) Parse(parent gast.Node, block text.Reader, pc parser.Context) gast.Node {
	line, seg := block.PeekLine()
	if !bytes.HasPrefix(line, wikiOpen) {
		return nil
	}
	end := bytes.Index(line[2:], wikiClose)
	if end <= 0 {
		return nil
	}
	inner := line[2 : 2+end]
	if bytes.ContainsAny(inner, "[]\n") {
		return nil
	}

	target, label := inner, inner
	labelStart := 2
	if i := bytes.IndexByte(inner, '|'); i >= 0 {
		target = inner[:i]
		label = inner[i+1:]
		labelStart += i + 1
	}
	target = bytes.TrimSpace(target)
	if len(target) == 0 {
		return nil
	}
	if len(bytes.TrimSpace(label)) == 0 {
		label = target
		labelStart = 2 + bytes.Index(inner, target)
	}

	n := &WikiLink{
		Target: append([]byte(nil), target...),
		Label:  text.NewSegment(seg.Start+labelStart, seg.Start+labelStart+len(label)),
		Source: text.NewSegment(seg.Start, seg.Start+2+end+2),
	}
	block.Advance(2 + end + 2)
	return n
}

func (p *wikiLinkParser) CloseBlock(parent gast.Node, pc parser.Context) {}

type wikiLinkExtension struct{}

// WikiLinkExtension enables `[[target|label]]` links. It runs ahead of the
// standard link parser.
var WikiLinkExtension goldmark.Extender = &wikiLinkExtension{}

func (e *wikiLinkExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(&wikiLinkParser{}, 199),
		),
	)
}
