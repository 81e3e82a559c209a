package builder

import (
	"github.com/dgallion1/mdast/internal/ast"
	"github.com/dgallion1/mdast/internal/event"
)

// blockNode maps an engine block kind to a new node. It returns nil for
// kinds outside the taxonomy. BlockDoc is handled by the builder.
func blockNode(kind event.BlockKind, detail event.Detail) *ast.Node {
	switch kind {
	case event.BlockQuote:
		return ast.New(ast.KindBlockquote)

	case event.BlockUL:
		n := ast.New(ast.KindList)
		n.Ordered = false
		return n

	case event.BlockOL:
		n := ast.New(ast.KindList)
		n.Ordered = true
		n.Start = 1
		if d, ok := detail.(*event.ListDetail); ok && d != nil {
			n.Start = d.Start
		}
		return n

	case event.BlockLI:
		if d, ok := detail.(*event.ItemDetail); ok && d != nil && d.IsTask {
			n := ast.New(ast.KindTaskListItem)
			n.Checked = d.TaskMark == 'x' || d.TaskMark == 'X'
			return n
		}
		return ast.New(ast.KindListItem)

	case event.BlockHR:
		return ast.New(ast.KindHorizontalRule)

	case event.BlockH:
		n := ast.New(ast.KindHeading)
		n.Level = 1
		if d, ok := detail.(*event.HeadingDetail); ok && d != nil {
			n.Level = clampLevel(d.Level)
		}
		return n

	case event.BlockCode:
		n := ast.New(ast.KindCodeBlock)
		if d, ok := detail.(*event.CodeDetail); ok && d != nil && d.Lang.Len() > 0 {
			n.Language = d.Lang.Decode()
		}
		return n

	case event.BlockHTML:
		return ast.New(ast.KindHTMLBlock)

	case event.BlockP:
		return ast.New(ast.KindParagraph)

	case event.BlockTable:
		return ast.New(ast.KindTable)
	case event.BlockTHead:
		return ast.New(ast.KindTableHead)
	case event.BlockTBody:
		return ast.New(ast.KindTableBody)
	case event.BlockTR:
		return ast.New(ast.KindTableRow)

	case event.BlockTH, event.BlockTD:
		n := ast.New(ast.KindTableCell)
		n.IsHeader = kind == event.BlockTH
		if d, ok := detail.(*event.CellDetail); ok && d != nil {
			n.Align = mapAlign(d.Align)
		}
		return n
	}
	return nil
}

// spanNode maps an engine span kind to a new node, or nil for kinds outside
// the taxonomy.
func spanNode(kind event.SpanKind, detail event.Detail) *ast.Node {
	switch kind {
	case event.SpanEm, event.SpanU:
		return ast.New(ast.KindItalic)

	case event.SpanStrong:
		return ast.New(ast.KindBold)

	case event.SpanDel:
		return ast.New(ast.KindStrikethrough)

	case event.SpanA:
		n := ast.New(ast.KindLink)
		if d, ok := detail.(*event.LinkDetail); ok && d != nil {
			if d.Href.Len() > 0 {
				n.Href = d.Href.Decode()
			}
			if d.Title.Len() > 0 {
				n.Title = d.Title.Decode()
			}
		}
		return n

	case event.SpanImg:
		n := ast.New(ast.KindImage)
		if d, ok := detail.(*event.ImageDetail); ok && d != nil {
			if d.Src.Len() > 0 {
				n.Href = d.Src.Decode()
			}
			if d.Title.Len() > 0 {
				n.Title = d.Title.Decode()
			}
		}
		return n

	case event.SpanCode:
		return ast.New(ast.KindCodeInline)

	case event.SpanLatexMath:
		return ast.New(ast.KindMathInline)
	case event.SpanLatexMathDisplay:
		return ast.New(ast.KindMathBlock)

	case event.SpanWikiLink:
		// The target stays unresolved; only the label text becomes children.
		return ast.New(ast.KindLink)
	}
	return nil
}

func mapAlign(a event.Align) ast.Align {
	switch a {
	case event.AlignLeft:
		return ast.AlignLeft
	case event.AlignCenter:
		return ast.AlignCenter
	case event.AlignRight:
		return ast.AlignRight
	}
	return ast.AlignDefault
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 6 {
		return 6
	}
	return level
}
