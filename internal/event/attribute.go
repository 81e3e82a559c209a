package event

import "strings"

// Attribute is a composite value such as a link destination: raw bytes plus
// typed sub-ranges that say which parts belong to the value.
type Attribute struct {
	Text    []byte
	Substrs []Substr // nil means Text is used verbatim
}

// Substr types the byte range Text[Beg:End] of an attribute.
type Substr struct {
	Kind TextKind
	Beg  Offset
	End  Offset
}

// PlainAttribute returns an attribute made of a single normal range.
func PlainAttribute(s string) Attribute {
	if s == "" {
		return Attribute{}
	}
	return Attribute{
		Text:    []byte(s),
		Substrs: []Substr{{Kind: TextNormal, Beg: 0, End: Offset(len(s))}},
	}
}

// Len returns the size of the raw text.
func (a Attribute) Len() int {
	return len(a.Text)
}

// Decode returns the attribute's value. Ranges are visited in order; each
// end is clipped to the raw text and a range whose start lies past its end
// terminates decoding. Literal ranges are copied and markup ranges are
// skipped. When decoding yields nothing from a non-empty attribute the raw
// text is returned instead.
func (a Attribute) Decode() string {
	if len(a.Text) == 0 {
		return ""
	}
	if a.Substrs == nil {
		return string(a.Text)
	}

	size := Offset(len(a.Text))
	var sb strings.Builder
	sb.Grow(len(a.Text))
	for _, s := range a.Substrs {
		end := min(s.End, size)
		if s.Beg > end {
			break
		}
		if s.Kind.Literal() {
			sb.Write(a.Text[s.Beg:end])
		}
	}

	if sb.Len() == 0 {
		return string(a.Text)
	}
	return sb.String()
}

// AttributeBuilder assembles an Attribute range by range.
type AttributeBuilder struct {
	attr Attribute
}

// Add appends p as a range of the given kind. Adjacent ranges of the same
// kind are merged.
func (b *AttributeBuilder) Add(kind TextKind, p []byte) {
	if len(p) == 0 {
		return
	}
	beg := Offset(len(b.attr.Text))
	b.attr.Text = append(b.attr.Text, p...)
	end := Offset(len(b.attr.Text))

	if n := len(b.attr.Substrs); n > 0 && b.attr.Substrs[n-1].Kind == kind && b.attr.Substrs[n-1].End == beg {
		b.attr.Substrs[n-1].End = end
		return
	}
	b.attr.Substrs = append(b.attr.Substrs, Substr{Kind: kind, Beg: beg, End: end})
}

// Attribute returns the assembled attribute.
func (b *AttributeBuilder) Attribute() Attribute {
	return b.attr
}
