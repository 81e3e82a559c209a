package ast

import (
	"regexp"
	"strings"
)

var allowedLinkProtocols = map[string]bool{
	"http:":   true,
	"https:":  true,
	"mailto:": true,
	"tel:":    true,
	"sms:":    true,
}

var protocolRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9+.-]*):`)

// NormalizeHref trims surrounding whitespace. It returns "" for an empty
// href.
func NormalizeHref(href string) string {
	return strings.TrimSpace(href)
}

// AllowedExternalHref returns href unchanged when it carries an allowed
// external protocol (http, https, mailto, tel, sms) and "" otherwise.
// Relative hrefs have no protocol and are not external.
func AllowedExternalHref(href string) string {
	m := protocolRe.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	if !allowedLinkProtocols[strings.ToLower(m[1])+":"] {
		return ""
	}
	return href
}

// SanitizeLinks blanks the href of every link and image whose href carries
// a protocol outside the allowed set, e.g. "javascript:". Relative hrefs
// are kept. It returns the number of hrefs removed.
func SanitizeLinks(root *Node) int {
	removed := 0
	Walk(root, func(n *Node, _ int) bool {
		if n.Kind != KindLink && n.Kind != KindImage {
			return true
		}
		href := NormalizeHref(n.Href)
		if href == "" {
			n.Href = ""
			return true
		}
		if protocolRe.MatchString(href) && AllowedExternalHref(href) == "" {
			n.Href = ""
			removed++
			return true
		}
		n.Href = href
		return true
	})
	return removed
}
