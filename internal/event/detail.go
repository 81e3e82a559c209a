package event

// Detail is the kind-specific payload of a structural event. Most kinds
// carry none and pass nil.
type Detail interface {
	detail()
}

// Align is a table cell alignment as reported by the engine.
type Align uint8

const (
	AlignDefault Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// HeadingDetail accompanies BlockH.
type HeadingDetail struct {
	Level int
}

// ListDetail accompanies BlockUL and BlockOL.
type ListDetail struct {
	Start int  // first item number, ordered lists only
	Tight bool // items are not separated by blank lines
	Mark   byte // '-', '+', '*' for bullets; '.' or ')' for ordered lists
}

// ItemDetail accompanies BlockLI.
type ItemDetail struct {
	IsTask   bool
	TaskMark byte // ' ', 'x' or 'X' when IsTask
}

// CodeDetail accompanies BlockCode. Both attributes are empty for indented
// code blocks.
type CodeDetail struct {
	Info Attribute
	Lang Attribute
}

// CellDetail accompanies BlockTH and BlockTD.
type CellDetail struct {
	Align Align
}

// LinkDetail accompanies SpanA.
type LinkDetail struct {
	Href     Attribute
	Title    Attribute
	Autolink bool
}

// ImageDetail accompanies SpanImg.
type ImageDetail struct {
	Src   Attribute
	Title Attribute
}

// WikiLinkDetail accompanies SpanWikiLink.
type WikiLinkDetail struct {
	Target Attribute
}

func (*HeadingDetail) detail()  {}
func (*ListDetail) detail()     {}
func (*ItemDetail) detail()     {}
func (*CodeDetail) detail()     {}
func (*CellDetail) detail()     {}
func (*LinkDetail) detail()     {}
func (*ImageDetail) detail()    {}
func (*WikiLinkDetail) detail() {}
