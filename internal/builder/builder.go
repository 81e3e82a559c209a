// Package builder turns a nested markdown event stream into an ast tree.
//
// A Builder is driven by an event source through the event.Handler
// methods. It keeps a stack of open nodes, coalesces adjacent text runs
// into single Text nodes and maps engine kinds onto the ast taxonomy. It
// never fails: malformed event order is absorbed and the tree stays
// well-formed.
//
// A Builder is not safe for concurrent use. Call Reset before each parse.
package builder

import (
	"log/slog"

	"github.com/dgallion1/mdast/internal/ast"
	"github.com/dgallion1/mdast/internal/event"
)

// frame is one entry of the open-node stack. A transparent frame stands in
// for an engine kind outside the taxonomy: it aliases the enclosing node so
// that its leave event stays balanced.
type frame struct {
	node        *ast.Node
	transparent bool
}

// Builder implements event.Handler.
type Builder struct {
	root  *ast.Node
	stack []frame
	text  accumulator
	size  ast.Offset // length of the parsed input
	log   *slog.Logger
}

var _ event.Handler = (*Builder)(nil)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used to report absorbed malformed events.
func WithLogger(log *slog.Logger) Option {
	return func(b *Builder) {
		if log != nil {
			b.log = log
		}
	}
}

// New returns a Builder ready for a parse of an input of the given size.
func New(size ast.Offset, opts ...Option) *Builder {
	b := &Builder{log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(b)
	}
	b.Reset(size)
	return b
}

// Reset discards any tree in progress and starts a new Document for an
// input of size bytes.
func (b *Builder) Reset(size ast.Offset) {
	b.root = ast.New(ast.KindDocument)
	b.stack = append(b.stack[:0], frame{node: b.root})
	b.text.reset()
	b.size = size
}

// Callbacks returns the builder's methods bound to five callback slots.
func (b *Builder) Callbacks() event.Callbacks {
	return event.Callbacks{
		OnEnterBlock: b.EnterBlock,
		OnLeaveBlock: b.LeaveBlock,
		OnEnterSpan:  b.EnterSpan,
		OnLeaveSpan:  b.LeaveSpan,
		OnText:       b.Text,
	}
}

// Depth returns the number of open nodes, including the root.
func (b *Builder) Depth() int {
	return len(b.stack)
}

func (b *Builder) top() *ast.Node {
	return b.stack[len(b.stack)-1].node
}

// EnterBlock opens a block node.
func (b *Builder) EnterBlock(kind event.BlockKind, detail event.Detail, off event.Offset) {
	if kind == event.BlockDoc {
		if len(b.stack) > 0 {
			b.flush()
			b.root.Begin = off
		}
		return
	}
	b.push(blockNode(kind, detail), off, kind.String())
}

// LeaveBlock closes the innermost open block node.
func (b *Builder) LeaveBlock(kind event.BlockKind, _ event.Detail, off event.Offset) {
	if kind == event.BlockDoc {
		if len(b.stack) > 0 {
			b.flush()
			b.root.End = max(off, b.root.Begin)
		}
		return
	}
	b.pop(off, kind.String())
}

// EnterSpan opens an inline node.
func (b *Builder) EnterSpan(kind event.SpanKind, detail event.Detail, off event.Offset) {
	b.push(spanNode(kind, detail), off, kind.String())
}

// LeaveSpan closes the innermost open inline node. Code spans and images
// take the text gathered since they were entered as their content and alt
// text instead of a Text child.
func (b *Builder) LeaveSpan(kind event.SpanKind, _ event.Detail, off event.Offset) {
	if len(b.stack) > 1 {
		f := b.stack[len(b.stack)-1]
		switch {
		case kind == event.SpanCode && !f.transparent && f.node.Kind == ast.KindCodeInline:
			f.node.Content = b.text.take()
		case kind == event.SpanImg && !f.transparent && f.node.Kind == ast.KindImage:
			f.node.Alt = b.text.take()
		}
	}
	b.pop(off, kind.String())
}

// Text handles a run of text. off is the position of the run in the
// input; offsets beyond the input fall back to the end of the previous
// run.
func (b *Builder) Text(kind event.TextKind, text []byte, off event.Offset) {
	if len(b.stack) == 0 {
		return
	}
	if off > b.size {
		b.log.Debug("text offset out of range", "offset", off, "size", b.size, "kind", kind.String())
		off = b.text.end
	}

	switch kind {
	case event.TextBR, event.TextSoftBR:
		b.flush()
		k := ast.KindLineBreak
		if kind == event.TextSoftBR {
			k = ast.KindSoftBreak
		}
		n := ast.New(k)
		n.Begin, n.End = off, off
		b.top().AppendChild(n)
		b.text.end = off

	case event.TextHTML:
		if len(text) == 0 {
			return
		}
		b.flush()
		n := ast.New(ast.KindHTMLInline)
		n.Content = string(text)
		n.Begin, n.End = off, addOffset(off, len(text))
		b.top().AppendChild(n)
		b.text.end = n.End

	case event.TextNullChar:
		b.text.appendByte(0, off)

	default:
		if len(text) == 0 {
			return
		}
		b.text.append(text, off)
	}
}

// Finalize flushes pending text, sets the root's end offset and returns the
// root. The builder holds no tree afterwards; a second call returns nil.
func (b *Builder) Finalize(off event.Offset) *ast.Node {
	if b.root == nil {
		return nil
	}
	b.flush()
	if len(b.stack) > 1 {
		b.log.Debug("finalize with open nodes", "open", len(b.stack)-1)
	}
	root := b.root
	root.End = max(off, root.Begin)
	b.root = nil
	b.stack = b.stack[:0]
	return root
}

func (b *Builder) push(n *ast.Node, off event.Offset, kind string) {
	if len(b.stack) == 0 {
		return
	}
	b.flush()
	if n == nil {
		b.log.Debug("unknown event kind, content attaches to parent", "kind", kind, "offset", off)
		b.stack = append(b.stack, frame{node: b.top(), transparent: true})
		return
	}
	n.Begin = off
	b.top().AppendChild(n)
	b.stack = append(b.stack, frame{node: n})
}

func (b *Builder) pop(off event.Offset, kind string) {
	if len(b.stack) == 0 {
		return
	}
	b.flush()
	if len(b.stack) == 1 {
		b.log.Debug("unbalanced leave event ignored", "kind", kind, "offset", off)
		return
	}
	f := b.stack[len(b.stack)-1]
	if !f.transparent {
		f.node.End = max(off, f.node.Begin)
	}
	b.stack = b.stack[:len(b.stack)-1]
}

// flush turns pending text into a Text node under the current top.
func (b *Builder) flush() {
	if b.text.empty() || len(b.stack) == 0 {
		return
	}
	n := ast.New(ast.KindText)
	n.Begin = b.text.beg
	n.End = max(b.text.end, b.text.beg)
	n.Content = b.text.take()
	b.top().AppendChild(n)
}
