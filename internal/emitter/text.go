package emitter

import (
	"bytes"
	"regexp"

	"golang.org/x/net/html"

	"github.com/dgallion1/mdast/internal/event"
)

// entityRe matches a complete character reference at the start of a slice.
var entityRe = regexp.MustCompile(`^&(?:#[xX][0-9a-fA-F]{1,6}|#[0-9]{1,7}|[A-Za-z][A-Za-z0-9]{1,31});`)

// entity returns the decoded form of the character reference at the start
// of p and its length in p, or ok=false when p does not start with a
// reference that decodes.
func entity(p []byte) (decoded []byte, n int, ok bool) {
	m := entityRe.Find(p)
	if m == nil {
		return nil, 0, false
	}
	dec := html.UnescapeString(string(m))
	if dec == string(m) {
		return nil, 0, false
	}
	return []byte(dec), len(m), true
}

func isPunct(c byte) bool {
	return c >= '!' && c <= '/' || c >= ':' && c <= '@' || c >= '[' && c <= '`' || c >= '{' && c <= '~'
}

// splitText walks p and reports each run with the kind the builder expects:
// ordinary runs, decoded entities, NUL bytes and the character after an
// escaping backslash. pos is the position of the run within p.
func splitText(p []byte, fn func(kind event.TextKind, run []byte, pos, srcLen int)) {
	start := 0
	flush := func(i int) {
		if i > start {
			fn(event.TextNormal, p[start:i], start, i-start)
		}
	}
	for i := 0; i < len(p); {
		switch c := p[i]; {
		case c == 0:
			flush(i)
			fn(event.TextNullChar, p[i:i+1], i, 1)
			i++
			start = i
		case c == '\\' && i+1 < len(p) && isPunct(p[i+1]):
			flush(i)
			fn(event.TextNormal, p[i+1:i+2], i+1, 1)
			i += 2
			start = i
		case c == '&':
			if dec, n, ok := entity(p[i:]); ok {
				flush(i)
				fn(event.TextEntity, dec, i, n)
				i += n
				start = i
				continue
			}
			i++
		default:
			i++
		}
	}
	flush(len(p))
}

// attribute builds a typed attribute from a raw link destination, title or
// info string. Escaping backslashes become markup ranges and character
// references are stored decoded.
func attribute(raw []byte) event.Attribute {
	if len(raw) >= 2 && raw[0] == '<' && raw[len(raw)-1] == '>' {
		raw = raw[1 : len(raw)-1]
	}
	var b event.AttributeBuilder
	start := 0
	for i := 0; i < len(raw); {
		switch c := raw[i]; {
		case c == '\\' && i+1 < len(raw) && isPunct(raw[i+1]):
			b.Add(event.TextNormal, raw[start:i])
			b.Add(event.TextMarkup, raw[i:i+1])
			i++
			start = i
			i++
		case c == '&':
			if dec, n, ok := entity(raw[i:]); ok {
				b.Add(event.TextNormal, raw[start:i])
				b.Add(event.TextEntity, dec)
				i += n
				start = i
				continue
			}
			i++
		case c == 0:
			b.Add(event.TextNormal, raw[start:i])
			b.Add(event.TextNullChar, raw[i:i+1])
			i++
			start = i
		default:
			i++
		}
	}
	b.Add(event.TextNormal, raw[start:])
	return b.Attribute()
}

func lineStart(src []byte, pos int) int {
	pos = min(pos, len(src))
	if i := bytes.LastIndexByte(src[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

func lineEnd(src []byte, pos int) int {
	pos = min(pos, len(src))
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i
	}
	return len(src)
}

func skipBlank(src []byte, pos int) int {
	for pos < len(src) {
		switch src[pos] {
		case ' ', '\t', '\n', '\r':
			pos++
		default:
			return pos
		}
	}
	return len(src)
}
