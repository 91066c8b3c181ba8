package resolver

import (
	"strings"

	"golang.org/x/net/html"
)

// Elements that carry no interactive or textual signal for the model.
var prunedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"svg":      {},
	"iframe":   {},
	"link":     {},
	"meta":     {},
	"template": {},
}

// PruneSnapshot strips scripts, styles and other non-semantic subtrees from a
// raw HTML document and caps the result at limit bytes. An unparseable
// document falls back to a plain truncation of the input so the resolver
// always gets something to look at.
func PruneSnapshot(rawHTML string, limit int) string {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return truncate(rawHTML, limit)
	}

	prune(doc)

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return truncate(rawHTML, limit)
	}
	return truncate(sb.String(), limit)
}

func prune(n *html.Node) {
	var next *html.Node
	for child := n.FirstChild; child != nil; child = next {
		next = child.NextSibling
		switch {
		case child.Type == html.CommentNode:
			n.RemoveChild(child)
		case child.Type == html.ElementNode && isPruned(child.Data):
			n.RemoveChild(child)
		default:
			prune(child)
		}
	}
}

func isPruned(tag string) bool {
	_, ok := prunedElements[strings.ToLower(tag)]
	return ok
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	// Back up to a rune boundary so we never emit a torn UTF-8 sequence.
	cut := limit
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
