package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttribute_Decode(t *testing.T) {
	tests := []struct {
		name string
		attr Attribute
		want string
	}{
		{
			name: "empty",
			attr: Attribute{},
			want: "",
		},
		{
			name: "no substrs is verbatim",
			attr: Attribute{Text: []byte("a&amp;b")},
			want: "a&amp;b",
		},
		{
			name: "markup range skipped",
			attr: Attribute{
				Text: []byte("ab\\cd"),
				Substrs: []Substr{
					{Kind: TextNormal, Beg: 0, End: 2},
					{Kind: TextMarkup, Beg: 2, End: 3},
					{Kind: TextNormal, Beg: 3, End: 5},
				},
			},
			want: "abcd",
		},
		{
			name: "entity and null are literal",
			attr: Attribute{
				Text: []byte("x&\x00"),
				Substrs: []Substr{
					{Kind: TextNormal, Beg: 0, End: 1},
					{Kind: TextEntity, Beg: 1, End: 2},
					{Kind: TextNullChar, Beg: 2, End: 3},
				},
			},
			want: "x&\x00",
		},
		{
			name: "end clipped to length",
			attr: Attribute{
				Text:    []byte("abc"),
				Substrs: []Substr{{Kind: TextNormal, Beg: 1, End: 40}},
			},
			want: "bc",
		},
		{
			name: "start past end terminates",
			attr: Attribute{
				Text: []byte("abcdef"),
				Substrs: []Substr{
					{Kind: TextNormal, Beg: 0, End: 2},
					{Kind: TextNormal, Beg: 5, End: 3},
					{Kind: TextNormal, Beg: 3, End: 6},
				},
			},
			want: "ab",
		},
		{
			name: "start past clipped end terminates",
			attr: Attribute{
				Text: []byte("abc"),
				Substrs: []Substr{
					{Kind: TextNormal, Beg: 0, End: 1},
					{Kind: TextNormal, Beg: 9, End: 12},
				},
			},
			want: "a",
		},
		{
			name: "all markup falls back to raw",
			attr: Attribute{
				Text:    []byte("<x>"),
				Substrs: []Substr{{Kind: TextHTML, Beg: 0, End: 3}},
			},
			want: "<x>",
		},
		{
			name: "empty substr list falls back to raw",
			attr: Attribute{Text: []byte("raw"), Substrs: []Substr{}},
			want: "raw",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.attr.Decode())
		})
	}
}

func TestAttributeBuilder_MergesAdjacentRanges(t *testing.T) {
	var b AttributeBuilder
	b.Add(TextNormal, []byte("foo"))
	b.Add(TextNormal, []byte("bar"))
	b.Add(TextMarkup, []byte(`\`))
	b.Add(TextNormal, []byte("("))
	b.Add(TextEntity, nil)

	attr := b.Attribute()
	assert.Equal(t, `foobar\(`, string(attr.Text))
	assert.Equal(t, []Substr{
		{Kind: TextNormal, Beg: 0, End: 6},
		{Kind: TextMarkup, Beg: 6, End: 7},
		{Kind: TextNormal, Beg: 7, End: 8},
	}, attr.Substrs)
	assert.Equal(t, "foobar(", attr.Decode())
}

func TestPlainAttribute(t *testing.T) {
	assert.Equal(t, "", PlainAttribute("").Decode())
	assert.Equal(t, 0, PlainAttribute("").Len())
	assert.Equal(t, "go", PlainAttribute("go").Decode())
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "li", BlockLI.String())
	assert.Equal(t, "block(99)", BlockKind(99).String())
	assert.Equal(t, "wikilink", SpanWikiLink.String())
	assert.Equal(t, "span(42)", SpanKind(42).String())
	assert.Equal(t, "entity", TextEntity.String())
	assert.True(t, TextNullChar.Literal())
	assert.False(t, TextMarkup.Literal())
	assert.False(t, TextHTML.Literal())
}

func TestCallbacks_NilSlotsAreIgnored(t *testing.T) {
	var got []string
	cb := Callbacks{
		OnEnterBlock: func(kind BlockKind, _ Detail, _ Offset) { got = append(got, "enter "+kind.String()) },
		OnText:       func(_ TextKind, text []byte, _ Offset) { got = append(got, string(text)) },
	}
	var h Handler = cb
	h.EnterBlock(BlockP, nil, 0)
	h.Text(TextNormal, []byte("hi"), 0)
	h.LeaveBlock(BlockP, nil, 2)
	h.EnterSpan(SpanEm, nil, 0)
	h.LeaveSpan(SpanEm, nil, 0)

	assert.Equal(t, []string{"enter p", "hi"}, got)
}
