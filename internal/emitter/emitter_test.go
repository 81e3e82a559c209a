package emitter

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/mdast/internal/event"
)

// recorder flattens an event stream into short strings. Adjacent text
// events of one kind are merged so tests do not depend on how goldmark
// splits text nodes.
type recorder struct {
	events  []string
	details []event.Detail
	offsets []event.Offset
	last    event.TextKind
	inText  bool
}

func (r *recorder) add(s string, d event.Detail, off event.Offset) {
	r.inText = false
	r.events = append(r.events, s)
	r.details = append(r.details, d)
	r.offsets = append(r.offsets, off)
}

func (r *recorder) EnterBlock(k event.BlockKind, d event.Detail, off event.Offset) {
	r.add("["+k.String(), d, off)
}

func (r *recorder) LeaveBlock(k event.BlockKind, d event.Detail, off event.Offset) {
	r.add("]"+k.String(), d, off)
}

func (r *recorder) EnterSpan(k event.SpanKind, d event.Detail, off event.Offset) {
	r.add("("+k.String(), d, off)
}

func (r *recorder) LeaveSpan(k event.SpanKind, d event.Detail, off event.Offset) {
	r.add(")"+k.String(), d, off)
}

func (r *recorder) Text(k event.TextKind, p []byte, off event.Offset) {
	if r.inText && r.last == k {
		r.events[len(r.events)-1] += string(p)
		r.offsets = append(r.offsets, off)
		return
	}
	r.add(k.String()+":"+string(p), nil, off)
	r.inText = true
	r.last = k
}

// detail returns the detail of the first event named s.
func (r *recorder) detail(s string) event.Detail {
	for i, e := range r.events {
		if e == s {
			return r.details[i]
		}
	}
	return nil
}

func emit(t *testing.T, opts Options, src string) *recorder {
	t.Helper()
	r := &recorder{}
	require.NoError(t, New(opts).Emit(context.Background(), []byte(src), r))
	return r
}

func TestEmit_HeadingAndTaskList(t *testing.T) {
	r := emit(t, Options{GFM: true}, "# Hello\n\n- [x] done\n- [ ] todo\n")
	assert.Equal(t, []string{
		"[doc",
		"[h", "normal:Hello", "]h",
		"[ul",
		"[li", "normal:done", "]li",
		"[li", "normal:todo", "]li",
		"]ul",
		"]doc",
	}, r.events)

	assert.Equal(t, &event.HeadingDetail{Level: 1}, r.detail("[h"))
	items := 0
	for i, e := range r.events {
		if e != "[li" {
			continue
		}
		d := r.details[i].(*event.ItemDetail)
		assert.True(t, d.IsTask)
		if items == 0 {
			assert.Equal(t, byte('x'), d.TaskMark)
		} else {
			assert.Equal(t, byte(' '), d.TaskMark)
		}
		items++
	}
	assert.Equal(t, 2, items)
}

func TestEmit_CodeSpan(t *testing.T) {
	r := emit(t, Options{}, "`code`")
	assert.Equal(t, []string{"[doc", "[p", "(code", "code:code", ")code", "]p", "]doc"}, r.events)
}

func TestEmit_ImageIsFlattened(t *testing.T) {
	r := emit(t, Options{}, `![alt *text*](img.png "t")`)
	assert.Equal(t, []string{"[doc", "[p", "(img", "normal:alt text", ")img", "]p", "]doc"}, r.events)

	d := r.detail("(img").(*event.ImageDetail)
	assert.Equal(t, "img.png", d.Src.Decode())
	assert.Equal(t, "t", d.Title.Decode())
}

func TestEmit_LinkAndEmphasis(t *testing.T) {
	r := emit(t, Options{}, `see [the *docs*](https://example.com "Docs") **now**`)
	assert.Equal(t, []string{
		"[doc", "[p",
		"normal:see ",
		"(a", "normal:the ", "(em", "normal:docs", ")em", ")a",
		"normal: ",
		"(strong", "normal:now", ")strong",
		"]p", "]doc",
	}, r.events)

	d := r.detail("(a").(*event.LinkDetail)
	assert.Equal(t, "https://example.com", d.Href.Decode())
	assert.Equal(t, "Docs", d.Title.Decode())
	assert.False(t, d.Autolink)
}

func TestEmit_Entity(t *testing.T) {
	r := emit(t, Options{}, "a &amp; b")
	assert.Equal(t, []string{"[doc", "[p", "normal:a ", "entity:&", "normal: b", "]p", "]doc"}, r.events)
}

func TestEmit_FencedCode(t *testing.T) {
	src := "```go\nx := 1\ny := 2\n```\n"
	r := emit(t, Options{}, src)
	assert.Equal(t, []string{"[doc", "[code", "code:x := 1\ny := 2\n", "]code", "]doc"}, r.events)

	d := r.detail("[code").(*event.CodeDetail)
	assert.Equal(t, "go", d.Lang.Decode())
	assert.Equal(t, "go", d.Info.Decode())
	assert.Equal(t, event.Offset(0), r.offsets[1])
}

func TestEmit_OrderedList(t *testing.T) {
	r := emit(t, Options{}, "3. a\n4. b\n")
	assert.Equal(t, []string{
		"[doc", "[ol", "[li", "normal:a", "]li", "[li", "normal:b", "]li", "]ol", "]doc",
	}, r.events)
	d := r.detail("[ol").(*event.ListDetail)
	assert.Equal(t, 3, d.Start)
	assert.Equal(t, byte('.'), d.Mark)
	assert.True(t, d.Tight)
}

func TestEmit_Table(t *testing.T) {
	r := emit(t, Options{GFM: true}, "| a | b |\n|:--|--:|\n| 1 | 2 |\n")
	assert.Equal(t, []string{
		"[doc", "[table",
		"[thead", "[tr", "[th", "normal:a", "]th", "[th", "normal:b", "]th", "]tr", "]thead",
		"[tbody", "[tr", "[td", "normal:1", "]td", "[td", "normal:2", "]td", "]tr", "]tbody",
		"]table", "]doc",
	}, r.events)

	var aligns []event.Align
	for i, e := range r.events {
		if e == "[th" {
			aligns = append(aligns, r.details[i].(*event.CellDetail).Align)
		}
	}
	assert.Equal(t, []event.Align{event.AlignLeft, event.AlignRight}, aligns)
}

func TestEmit_TableWithoutBody(t *testing.T) {
	r := emit(t, Options{GFM: true}, "| a |\n|---|\n")
	assert.NotContains(t, r.events, "[tbody")
	assert.Contains(t, r.events, "[thead")
}

func TestEmit_Strikethrough(t *testing.T) {
	r := emit(t, Options{GFM: true}, "~~gone~~")
	assert.Equal(t, []string{"[doc", "[p", "(del", "normal:gone", ")del", "]p", "]doc"}, r.events)
}

func TestEmit_Math(t *testing.T) {
	r := emit(t, Options{Math: true}, "$x+y$ and $$z$$")
	assert.Equal(t, []string{
		"[doc", "[p",
		"(latexmath", "latexmath:x+y", ")latexmath",
		"normal: and ",
		"(latexmath_display", "latexmath:z", ")latexmath_display",
		"]p", "]doc",
	}, r.events)
}

func TestEmit_MathRejectsPrices(t *testing.T) {
	r := emit(t, Options{Math: true}, "costs $5 and $6")
	assert.NotContains(t, r.events, "(latexmath")
}

func TestEmit_MathDisabled(t *testing.T) {
	r := emit(t, Options{}, "$x$")
	assert.Equal(t, []string{"[doc", "[p", "normal:$x$", "]p", "]doc"}, r.events)
}

func TestEmit_WikiLink(t *testing.T) {
	r := emit(t, Options{Wikilinks: true}, "go to [[Home Page|home]] or [[Other]]")
	assert.Equal(t, []string{
		"[doc", "[p",
		"normal:go to ",
		"(wikilink", "normal:home", ")wikilink",
		"normal: or ",
		"(wikilink", "normal:Other", ")wikilink",
		"]p", "]doc",
	}, r.events)
	d := r.detail("(wikilink").(*event.WikiLinkDetail)
	assert.Equal(t, "Home Page", d.Target.Decode())
}

func TestEmit_HTMLBlock(t *testing.T) {
	src := "<div>\nhi\n</div>\n"

	on := emit(t, Options{HTML: true}, src)
	assert.Equal(t, []string{"[doc", "[html", "html:<div>\nhi\n</div>\n", "]html", "]doc"}, on.events)

	off := emit(t, Options{}, src)
	assert.Equal(t, []string{
		"[doc", "[p", "normal:<div>", "softbr:\n", "normal:hi", "softbr:\n", "normal:</div>", "]p", "]doc",
	}, off.events)
}

func TestEmit_InlineHTML(t *testing.T) {
	on := emit(t, Options{HTML: true}, "a <b>x</b>")
	assert.Equal(t, []string{"[doc", "[p", "normal:a ", "html:<b>", "normal:x", "html:</b>", "]p", "]doc"}, on.events)

	off := emit(t, Options{}, "a <b>x</b>")
	assert.Equal(t, []string{"[doc", "[p", "normal:a <b>x</b>", "]p", "]doc"}, off.events)
}

func TestEmit_Breaks(t *testing.T) {
	r := emit(t, Options{}, "one\ntwo  \nthree")
	assert.Equal(t, []string{
		"[doc", "[p", "normal:one", "softbr:\n", "normal:two", "br:\n", "normal:three", "]p", "]doc",
	}, r.events)
}

func TestEmit_OffsetsNeverDecrease(t *testing.T) {
	src := "# T\n\n> quote *em* `c`\n\n- a\n  - b\n\n| x | y |\n|---|---|\n| 1 | 2 |\n\n---\n\n```\ncode\n```\n\n![i](u) [l](v) <https://x.y> ~~s~~ $m$ [[w]]\n"
	r := emit(t, Options{GFM: true, Math: true, Wikilinks: true, HTML: true}, src)

	var prev event.Offset
	for i, off := range r.offsets {
		assert.GreaterOrEqual(t, off, prev, "offset %d", i)
		assert.LessOrEqual(t, int(off), len(src), "offset %d", i)
		prev = off
	}
	assert.Equal(t, "]doc", r.events[len(r.events)-1])
	assert.Equal(t, event.Offset(len(src)), r.offsets[len(r.offsets)-1])
}

// spanRecorder keeps the enter and leave offsets of every span, outermost
// first.
type spanRecorder struct {
	open  []int
	spans []spanRange
}

type spanRange struct {
	kind     event.SpanKind
	beg, end event.Offset
}

func (r *spanRecorder) EnterBlock(event.BlockKind, event.Detail, event.Offset) {}
func (r *spanRecorder) LeaveBlock(event.BlockKind, event.Detail, event.Offset) {}
func (r *spanRecorder) Text(event.TextKind, []byte, event.Offset) {}

func (r *spanRecorder) EnterSpan(k event.SpanKind, _ event.Detail, off event.Offset) {
	r.open = append(r.open, len(r.spans))
	r.spans = append(r.spans, spanRange{kind: k, beg: off})
}

func (r *spanRecorder) LeaveSpan(_ event.SpanKind, _ event.Detail, off event.Offset) {
	i := r.open[len(r.open)-1]
	r.open = r.open[:len(r.open)-1]
	r.spans[i].end = off
}

func TestEmit_SpanOffsetsCoverDelimiters(t *testing.T) {
	tests := []struct {
		src  string
		want [][2]event.Offset
	}{
		{"[![img](i.png)](link)", [][2]event.Offset{{0, 21}, {1, 14}}},
		{"***x***", [][2]event.Offset{{0, 7}, {1, 6}}},
		{"![](x.png)", [][2]event.Offset{{0, 10}}},
		{"[[Page|label]]", [][2]event.Offset{{0, 14}}},
		{"[**b**](u)", [][2]event.Offset{{0, 10}, {1, 6}}},
		{"a *b **c***", [][2]event.Offset{{2, 11}, {5, 10}}},
		{"x [](u) y", [][2]event.Offset{{2, 7}}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			r := &spanRecorder{}
			opts := Options{GFM: true, Wikilinks: true}
			require.NoError(t, New(opts).Emit(context.Background(), []byte(tt.src), r))
			require.Len(t, r.spans, len(tt.want))
			for i, sp := range r.spans {
				assert.Equal(t, tt.want[i], [2]event.Offset{sp.beg, sp.end}, "%s span %d", sp.kind, i)
			}
		})
	}
}

func TestEmit_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &recorder{}
	err := New(DefaultOptions).Emit(ctx, []byte("# a\n\nb\n"), r)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"[doc"}, r.events)
}

func TestSplitText(t *testing.T) {
	var got []string
	splitText([]byte("x\x00y&lt;\\#z&bogus;"), func(kind event.TextKind, run []byte, pos, n int) {
		got = append(got, fmt.Sprintf("%s:%q@%d+%d", kind, run, pos, n))
	})
	assert.Equal(t, []string{
		`normal:"x"@0+1`,
		`nullchar:"\x00"@1+1`,
		`normal:"y"@2+1`,
		`entity:"<"@3+4`,
		`normal:"#"@8+1`,
		`normal:"z&bogus;"@9+8`,
	}, got)
}

func TestAttribute(t *testing.T) {
	tests := []struct {
		raw   string
		want  string
		kinds []event.TextKind
	}{
		{raw: "", want: ""},
		{raw: "/plain", want: "/plain", kinds: []event.TextKind{event.TextNormal}},
		{raw: "<a b>", want: "a b", kinds: []event.TextKind{event.TextNormal}},
		{
			raw:   `/a\_b&amp;c`,
			want:  "/a_b&c",
			kinds: []event.TextKind{event.TextNormal, event.TextMarkup, event.TextNormal, event.TextEntity, event.TextNormal},
		},
		{raw: `\\`, want: `\`, kinds: []event.TextKind{event.TextMarkup, event.TextNormal}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			a := attribute([]byte(tt.raw))
			assert.Equal(t, tt.want, a.Decode())
			var kinds []event.TextKind
			for _, s := range a.Substrs {
				kinds = append(kinds, s.Kind)
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}
