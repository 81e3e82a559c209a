package emitter

import (
	"bytes"
	"context"
	"strings"

	gast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/mdast/internal/event"
)

var newline = []byte{'\n'}

// walker holds the state of one Emit call. cursor is the furthest source
// position reported so far; every offset handed to the handler is raised
// to it so offsets never decrease.
type walker struct {
	ctx    context.Context
	src    []byte
	h      event.Handler
	opts   Options
	cursor int

	// trimNext strips the space between a task checkbox and the item text.
	trimNext bool
}

func (w *walker) at(pos int) event.Offset {
	pos = min(max(pos, w.cursor), len(w.src))
	w.cursor = pos
	return event.Offset(pos)
}

func (w *walker) emit(kind event.TextKind, p []byte, pos, srcLen int) {
	off := w.at(pos)
	w.h.Text(kind, p, off)
	w.cursor = min(int(off)+srcLen, len(w.src))
}

func (w *walker) literal(p []byte, pos int) {
	splitText(p, func(kind event.TextKind, run []byte, rpos, srcLen int) {
		w.emit(kind, run, pos+rpos, srcLen)
	})
}

func (w *walker) enter(kind event.BlockKind, d event.Detail, n gast.Node) {
	w.h.EnterBlock(kind, d, w.at(w.blockBegin(n)))
}

func (w *walker) leave(kind event.BlockKind, d event.Detail, n gast.Node) {
	w.h.LeaveBlock(kind, d, w.at(w.blockEnd(n)))
}

func (w *walker) blocks(parent gast.Node) error {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		if err := w.ctx.Err(); err != nil {
			return err
		}
		if err := w.block(c); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) container(kind event.BlockKind, d event.Detail, n gast.Node) error {
	w.enter(kind, d, n)
	if err := w.blocks(n); err != nil {
		return err
	}
	w.leave(kind, d, n)
	return nil
}

func (w *walker) block(n gast.Node) error {
	switch n := n.(type) {
	case *gast.Paragraph:
		w.enter(event.BlockP, nil, n)
		w.inlines(n)
		w.leave(event.BlockP, nil, n)

	case *gast.TextBlock:
		// Tight list items carry their text without a paragraph.
		w.inlines(n)

	case *gast.Heading:
		d := &event.HeadingDetail{Level: n.Level}
		w.enter(event.BlockH, d, n)
		w.inlines(n)
		w.leave(event.BlockH, d, n)

	case *gast.ThematicBreak:
		w.enter(event.BlockHR, nil, n)
		w.leave(event.BlockHR, nil, n)

	case *gast.CodeBlock:
		d := &event.CodeDetail{}
		w.enter(event.BlockCode, d, n)
		w.lines(n.Lines(), event.TextCode)
		w.leave(event.BlockCode, d, n)

	case *gast.FencedCodeBlock:
		d := &event.CodeDetail{}
		if n.Info != nil {
			d.Info = attribute(n.Info.Segment.Value(w.src))
			d.Lang = attribute(n.Language(w.src))
		}
		w.enter(event.BlockCode, d, n)
		w.lines(n.Lines(), event.TextCode)
		w.leave(event.BlockCode, d, n)

	case *gast.HTMLBlock:
		w.htmlBlock(n)

	case *gast.Blockquote:
		return w.container(event.BlockQuote, nil, n)

	case *gast.List:
		d := &event.ListDetail{Start: n.Start, Tight: n.IsTight, Mark: n.Marker}
		kind := event.BlockUL
		if n.IsOrdered() {
			kind = event.BlockOL
		}
		return w.container(kind, d, n)

	case *gast.ListItem:
		d := &event.ItemDetail{}
		if cb := taskCheckBox(n); cb != nil {
			d.IsTask = true
			d.TaskMark = ' '
			if cb.IsChecked {
				d.TaskMark = 'x'
			}
		}
		return w.container(event.BlockLI, d, n)

	case *east.Table:
		w.table(n)

	default:
		if n.Type() == gast.TypeBlock {
			return w.blocks(n)
		}
		w.inline(n)
	}
	return nil
}

func (w *walker) lines(lines *text.Segments, kind event.TextKind) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		w.emit(kind, seg.Value(w.src), seg.Start, seg.Len())
	}
}

// htmlBlock reports an HTML block as raw HTML runs, one per stretch of
// contiguous lines. Without the HTML option the block reads as a paragraph
// of ordinary text.
func (w *walker) htmlBlock(n *gast.HTMLBlock) {
	segs := make([]text.Segment, 0, n.Lines().Len()+1)
	for i := 0; i < n.Lines().Len(); i++ {
		segs = append(segs, n.Lines().At(i))
	}
	if n.HasClosure() {
		segs = append(segs, n.ClosureLine)
	}

	if !w.opts.HTML {
		w.enter(event.BlockP, nil, n)
		for i, seg := range segs {
			line := bytes.TrimRight(seg.Value(w.src), "\r\n")
			if i > 0 {
				w.emit(event.TextSoftBR, newline, w.cursor, 0)
			}
			w.literal(line, seg.Start)
		}
		w.leave(event.BlockP, nil, n)
		return
	}

	w.enter(event.BlockHTML, nil, n)
	beg, end := -1, -1
	flush := func() {
		if beg >= 0 && end > beg {
			w.emit(event.TextHTML, w.src[beg:end], beg, end-beg)
		}
	}
	for _, seg := range segs {
		if beg >= 0 && seg.Start == end {
			end = seg.Stop
			continue
		}
		flush()
		beg, end = seg.Start, seg.Stop
	}
	flush()
	w.leave(event.BlockHTML, nil, n)
}

func (w *walker) table(t *east.Table) {
	w.enter(event.BlockTable, nil, t)
	inBody := false
	for c := t.FirstChild(); c != nil; c = c.NextSibling() {
		switch r := c.(type) {
		case *east.TableHeader:
			w.enter(event.BlockTHead, nil, r)
			w.enter(event.BlockTR, nil, r)
			w.cells(r, event.BlockTH)
			w.leave(event.BlockTR, nil, r)
			w.leave(event.BlockTHead, nil, r)
		case *east.TableRow:
			if !inBody {
				w.enter(event.BlockTBody, nil, r)
				inBody = true
			}
			w.enter(event.BlockTR, nil, r)
			w.cells(r, event.BlockTD)
			w.leave(event.BlockTR, nil, r)
		}
	}
	if inBody {
		w.leave(event.BlockTBody, nil, t)
	}
	w.leave(event.BlockTable, nil, t)
}

func (w *walker) cells(row gast.Node, kind event.BlockKind) {
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cell, ok := c.(*east.TableCell)
		if !ok {
			continue
		}
		d := &event.CellDetail{Align: cellAlign(cell.Alignment)}
		w.enter(kind, d, cell)
		w.inlines(cell)
		w.leave(kind, d, cell)
	}
}

func cellAlign(a east.Alignment) event.Align {
	switch a {
	case east.AlignLeft:
		return event.AlignLeft
	case east.AlignCenter:
		return event.AlignCenter
	case east.AlignRight:
		return event.AlignRight
	}
	return event.AlignDefault
}

func taskCheckBox(item gast.Node) *east.TaskCheckBox {
	fc := item.FirstChild()
	if fc == nil {
		return nil
	}
	cb, _ := fc.FirstChild().(*east.TaskCheckBox)
	return cb
}

func (w *walker) inlines(parent gast.Node) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		w.inline(c)
	}
}

func (w *walker) span(kind event.SpanKind, d event.Detail, n gast.Node, body func()) {
	beg, end, ok := w.extent(n, w.cursor)
	if !ok {
		beg, end = w.cursor, w.cursor
	}
	w.h.EnterSpan(kind, d, w.at(beg))
	body()
	w.h.LeaveSpan(kind, d, w.at(end))
}

func (w *walker) inline(n gast.Node) {
	switch n := n.(type) {
	case *gast.Text:
		w.text(n)

	case *gast.String:
		w.emit(event.TextNormal, n.Value, w.cursor, 0)

	case *gast.CodeSpan:
		w.span(event.SpanCode, nil, n, func() { w.codeSpan(n, event.TextCode) })

	case *gast.Emphasis:
		kind := event.SpanEm
		if n.Level >= 2 {
			kind = event.SpanStrong
		}
		w.span(kind, nil, n, func() { w.inlines(n) })

	case *gast.Link:
		d := &event.LinkDetail{
			Href:  attribute(n.Destination),
			Title: attribute(n.Title),
		}
		w.span(event.SpanA, d, n, func() { w.inlines(n) })

	case *gast.Image:
		d := &event.ImageDetail{
			Src:   attribute(n.Destination),
			Title: attribute(n.Title),
		}
		w.span(event.SpanImg, d, n, func() { w.flatten(n) })

	case *gast.AutoLink:
		w.autoLink(n)

	case *gast.RawHTML:
		kind := event.TextNormal
		if w.opts.HTML {
			kind = event.TextHTML
		}
		w.rawHTML(n, kind)

	case *east.Strikethrough:
		w.span(event.SpanDel, nil, n, func() { w.inlines(n) })

	case *east.TaskCheckBox:
		w.trimNext = true

	case *Math:
		kind := event.SpanLatexMath
		if n.Display {
			kind = event.SpanLatexMathDisplay
		}
		w.span(kind, nil, n, func() {
			w.emit(event.TextLatexMath, n.Value.Value(w.src), n.Value.Start, n.Value.Len())
		})

	case *WikiLink:
		d := &event.WikiLinkDetail{Target: attribute(n.Target)}
		w.span(event.SpanWikiLink, d, n, func() { w.literal(n.Label.Value(w.src), n.Label.Start) })

	default:
		w.inlines(n)
	}
}

func (w *walker) text(n *gast.Text) {
	seg := n.Segment
	v := seg.Value(w.src)
	start := seg.Start
	if w.trimNext {
		w.trimNext = false
		trimmed := bytes.TrimLeft(v, " \t")
		start += len(v) - len(trimmed)
		v = trimmed
	}
	if n.IsRaw() {
		w.emit(event.TextNormal, v, start, len(v))
	} else {
		w.literal(v, start)
	}

	switch {
	case n.HardLineBreak():
		w.emit(event.TextBR, newline, seg.Stop, 0)
	case n.SoftLineBreak():
		w.emit(event.TextSoftBR, newline, seg.Stop, 0)
	}
}

// codeSpan reports the span's text verbatim. Line endings inside a code
// span read as spaces.
func (w *walker) codeSpan(n *gast.CodeSpan, kind event.TextKind) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *gast.Text:
			v := t.Segment.Value(w.src)
			if len(v) > 0 && v[len(v)-1] == '\n' {
				v = append(append(make([]byte, 0, len(v)), v[:len(v)-1]...), ' ')
			}
			w.emit(kind, v, t.Segment.Start, t.Segment.Len())
		case *gast.String:
			w.emit(kind, t.Value, w.cursor, 0)
		}
	}
}

func (w *walker) rawHTML(n *gast.RawHTML, kind event.TextKind) {
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		w.emit(kind, seg.Value(w.src), seg.Start, seg.Len())
	}
}

func (w *walker) autoLink(n *gast.AutoLink) {
	label := n.Label(w.src)
	url := n.URL(w.src)
	if n.AutoLinkType == gast.AutoLinkEmail && !bytes.HasPrefix(bytes.ToLower(url), []byte("mailto:")) {
		url = append([]byte("mailto:"), url...)
	}

	pos, beg, end := w.autoLinkBounds(n, w.cursor)
	d := &event.LinkDetail{Href: event.PlainAttribute(string(url)), Autolink: true}
	w.h.EnterSpan(event.SpanA, d, w.at(beg))
	w.emit(event.TextNormal, label, pos, len(label))
	w.h.LeaveSpan(event.SpanA, d, w.at(end))
}

// autoLinkBounds locates the label of n at or after floor. beg and end
// include the angle brackets when present.
func (w *walker) autoLinkBounds(n *gast.AutoLink, floor int) (pos, beg, end int) {
	label := n.Label(w.src)
	pos = floor
	if i := bytes.Index(w.src[floor:], label); i >= 0 {
		pos += i
	}
	beg, end = pos, pos+len(label)
	if beg > 0 && end < len(w.src) && w.src[beg-1] == '<' && w.src[end] == '>' {
		beg--
		end++
	}
	return pos, beg, end
}

// flatten reports the text below an image as plain runs so that it
// becomes the image's alt text.
func (w *walker) flatten(n gast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *gast.Text:
			w.literal(c.Segment.Value(w.src), c.Segment.Start)
			if c.SoftLineBreak() || c.HardLineBreak() {
				w.emit(event.TextNormal, newline, c.Segment.Stop, 1)
			}
		case *gast.String:
			w.emit(event.TextNormal, c.Value, w.cursor, 0)
		case *gast.CodeSpan:
			w.codeSpan(c, event.TextNormal)
		case *gast.RawHTML:
			w.rawHTML(c, event.TextNormal)
		case *gast.AutoLink:
			label := c.Label(w.src)
			w.emit(event.TextNormal, label, w.cursor, len(label))
		case *Math:
			w.emit(event.TextNormal, c.Value.Value(w.src), c.Value.Start, c.Value.Len())
		case *WikiLink:
			w.literal(c.Label.Value(w.src), c.Label.Start)
		case *east.TaskCheckBox:
		default:
			w.flatten(c)
		}
	}
}

// first returns the earliest source position covered by n.
func first(n gast.Node) (int, bool) {
	switch n := n.(type) {
	case *gast.Text:
		return n.Segment.Start, true
	case *gast.RawHTML:
		if n.Segments.Len() > 0 {
			return n.Segments.At(0).Start, true
		}
		return 0, false
	case *Math:
		return n.Value.Start - n.delim(), true
	case *WikiLink:
		return n.Source.Start, true
	case *gast.FencedCodeBlock:
		if n.Info != nil {
			return n.Info.Segment.Start, true
		}
	}
	if n.Type() == gast.TypeBlock {
		if l := n.Lines(); l != nil && l.Len() > 0 {
			return l.At(0).Start, true
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if p, ok := first(c); ok {
			return p, true
		}
	}
	return 0, false
}

// last returns the position just past the latest source byte covered by n.
func last(n gast.Node) (int, bool) {
	switch n := n.(type) {
	case *gast.Text:
		return n.Segment.Stop, true
	case *gast.RawHTML:
		if l := n.Segments.Len(); l > 0 {
			return n.Segments.At(l - 1).Stop, true
		}
		return 0, false
	case *Math:
		return n.Value.Stop + n.delim(), true
	case *WikiLink:
		return n.Source.Stop, true
	case *gast.HTMLBlock:
		if n.HasClosure() {
			return n.ClosureLine.Stop, true
		}
	}
	if n.Type() == gast.TypeBlock {
		if l := n.Lines(); l != nil && l.Len() > 0 {
			return l.At(l.Len() - 1).Stop, true
		}
	}
	for c := n.LastChild(); c != nil; c = c.PreviousSibling() {
		if p, ok := last(c); ok {
			return p, true
		}
	}
	return 0, false
}

func (w *walker) blockBegin(n gast.Node) int {
	switch n := n.(type) {
	case *gast.FencedCodeBlock:
		if n.Info != nil {
			return lineStart(w.src, n.Info.Segment.Start)
		}
		if l := n.Lines(); l.Len() > 0 {
			return lineStart(w.src, max(lineStart(w.src, l.At(0).Start)-1, 0))
		}
		return skipBlank(w.src, w.cursor)
	case *east.TableCell:
		if p, _, ok := w.childExtent(n, w.cursor); ok {
			return p
		}
		return w.cursor
	}
	if p, ok := first(n); ok {
		return lineStart(w.src, p)
	}
	return skipBlank(w.src, w.cursor)
}

func (w *walker) blockEnd(n gast.Node) int {
	switch n := n.(type) {
	case *gast.FencedCodeBlock:
		end := lineEnd(w.src, w.cursor)
		if l := n.Lines(); l.Len() > 0 {
			end = l.At(l.Len() - 1).Stop
		}
		return w.fenceEnd(end)
	case *gast.ThematicBreak:
		return lineEnd(w.src, w.cursor)
	case *east.TableCell:
		if _, p, ok := w.childExtent(n, w.cursor); ok {
			return p
		}
		return w.cursor
	}
	if p, ok := last(n); ok {
		return p
	}
	switch n.(type) {
	case *gast.CodeBlock, *gast.HTMLBlock, *gast.Heading:
		return lineEnd(w.src, w.cursor)
	}
	return w.cursor
}

// fenceEnd extends pos over a closing code fence on the following line.
func (w *walker) fenceEnd(pos int) int {
	p := pos
	if p < len(w.src) && w.src[p] == '\n' {
		p++
	}
	q := p
	for q < len(w.src) && q-p < 3 && w.src[q] == ' ' {
		q++
	}
	rest := w.src[q:]
	if bytes.HasPrefix(rest, []byte("```")) || bytes.HasPrefix(rest, []byte("~~~")) {
		return lineEnd(w.src, q)
	}
	return pos
}

// extent returns the source range of an inline node, delimiters included.
// Spans are measured from the computed extents of their children, so
// nested spans widen outward one level at a time. floor is the earliest
// position the node may claim.
func (w *walker) extent(n gast.Node, floor int) (beg, end int, ok bool) {
	switch n := n.(type) {
	case *gast.Text:
		return n.Segment.Start, n.Segment.Stop, true
	case *gast.String, *east.TaskCheckBox:
		return 0, 0, false
	case *gast.RawHTML:
		l := n.Segments.Len()
		if l == 0 {
			return 0, 0, false
		}
		return n.Segments.At(0).Start, n.Segments.At(l - 1).Stop, true
	case *Math:
		return n.Value.Start - n.delim(), n.Value.Stop + n.delim(), true
	case *WikiLink:
		return n.Source.Start, n.Source.Stop, true
	case *gast.AutoLink:
		_, beg, end = w.autoLinkBounds(n, floor)
		return beg, end, true
	}

	beg, end, ok = w.childExtent(n, floor)
	switch n := n.(type) {
	case *gast.Emphasis:
		if ok {
			beg, end = w.back(beg, "*_", n.Level, floor), w.fwd(end, "*_", n.Level)
		}
	case *east.Strikethrough:
		if ok {
			beg, end = w.back(beg, "~", 2, floor), w.fwd(end, "~", 2)
		}
	case *gast.CodeSpan:
		if ok {
			beg, end = w.back(beg, "` ", len(w.src), floor), w.fwd(end, "` ", len(w.src))
		}
	case *gast.Link:
		if !ok {
			return w.emptyLabel(floor, "[]")
		}
		beg, end = w.back(beg, "[", 1, floor), w.linkTail(end)
	case *gast.Image:
		if !ok {
			return w.emptyLabel(floor, "![]")
		}
		beg, end = w.back(w.back(beg, "[", 1, floor), "!", 1, floor), w.linkTail(end)
	}
	return beg, max(beg, end), ok
}

// childExtent spans the extents of n's children.
func (w *walker) childExtent(n gast.Node, floor int) (beg, end int, ok bool) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		b, e, cok := w.extent(c, floor)
		if !cok {
			continue
		}
		if !ok {
			beg, ok = b, true
		}
		end = max(end, e)
		floor = max(floor, e)
	}
	return beg, end, ok
}

// emptyLabel finds a link or image with an empty label at or after floor.
func (w *walker) emptyLabel(floor int, open string) (beg, end int, ok bool) {
	i := bytes.Index(w.src[floor:], []byte(open))
	if i < 0 {
		return 0, 0, false
	}
	beg = floor + i
	return beg, w.linkTail(beg + len(open) - 1), true
}

// back moves pos left over at most limit bytes from set, never past floor.
func (w *walker) back(pos int, set string, limit, floor int) int {
	for n := 0; n < limit && pos > floor && strings.IndexByte(set, w.src[pos-1]) >= 0; n++ {
		pos--
	}
	return pos
}

func (w *walker) fwd(pos int, set string, limit int) int {
	for n := 0; n < limit && pos < len(w.src) && strings.IndexByte(set, w.src[pos]) >= 0; n++ {
		pos++
	}
	return pos
}

// linkTail moves pos past the closing bracket of a link label and the
// destination or reference label that follows it.
func (w *walker) linkTail(pos int) int {
	if pos >= len(w.src) || w.src[pos] != ']' {
		return pos
	}
	pos++
	if pos >= len(w.src) {
		return pos
	}
	var lo, hi byte
	switch w.src[pos] {
	case '(':
		lo, hi = '(', ')'
	case '[':
		lo, hi = '[', ']'
	default:
		return pos
	}
	depth := 0
	for i := pos; i < len(w.src); i++ {
		switch w.src[i] {
		case '\\':
			i++
		case lo:
			depth++
		case hi:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return pos
}
