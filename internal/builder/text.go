package builder

import "github.com/dgallion1/mdast/internal/ast"

// accumulator buffers contiguous text runs until a structural boundary.
type accumulator struct {
	buf []byte
	beg ast.Offset // offset of the first byte since the last flush
	end ast.Offset // running end, updated on every append
}

func (a *accumulator) reset() {
	a.buf = a.buf[:0]
	a.beg = 0
	a.end = 0
}

func (a *accumulator) empty() bool {
	return len(a.buf) == 0
}

func (a *accumulator) append(p []byte, off ast.Offset) {
	if len(a.buf) == 0 {
		a.beg = off
	}
	a.buf = append(a.buf, p...)
	a.end = addOffset(off, len(p))
}

func (a *accumulator) appendByte(c byte, off ast.Offset) {
	if len(a.buf) == 0 {
		a.beg = off
	}
	a.buf = append(a.buf, c)
	a.end = addOffset(off, 1)
}

// take returns the buffered text and clears the buffer. The running end is
// kept so later out-of-range events can fall back to it.
func (a *accumulator) take() string {
	s := string(a.buf)
	a.buf = a.buf[:0]
	return s
}

// addOffset adds n to off, saturating at ast.MaxOffset.
func addOffset(off ast.Offset, n int) ast.Offset {
	if n <= 0 {
		return off
	}
	if uint64(off)+uint64(n) > uint64(ast.MaxOffset) {
		return ast.MaxOffset
	}
	return off + ast.Offset(n)
}
