package decoder

import (
	"strings"

	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"keygen": true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// elements whose content is rendered as is
var preformatted = map[string]bool{
	"pre":      true,
	"textarea": true,
}

// prettify renders one node per line, indented by one space per level.
func prettify(doc *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node, depth int)
	walk = func(n *html.Node, depth int) {
		indent := strings.Repeat(" ", depth)
		switch n.Type {
		case html.DocumentNode:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c, depth)
			}
		case html.DoctypeNode:
			b.WriteString(indent)
			html.Render(&b, n)
			b.WriteByte('\n')
		case html.TextNode:
			text := strings.TrimFunc(n.Data, isSpace)
			if text == "" {
				return
			}
			b.WriteString(indent)
			b.WriteString(html.EscapeString(text))
			b.WriteByte('\n')
		case html.ElementNode:
			b.WriteString(indent)
			if preformatted[n.Data] {
				html.Render(&b, n)
				b.WriteByte('\n')
				return
			}
			writeStartTag(&b, n)
			b.WriteByte('\n')
			if voidElements[n.Data] {
				return
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				walk(c, depth+1)
			}
			b.WriteString(indent)
			b.WriteString("</" + n.Data + ">\n")
		}
	}
	walk(doc, 0)
	return b.String()
}

func writeStartTag(b *strings.Builder, n *html.Node) {
	b.WriteByte('<')
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteByte(' ')
		if a.Namespace != "" {
			b.WriteString(a.Namespace + ":")
		}
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(a.Val))
		b.WriteByte('"')
	}
	if voidElements[n.Data] {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
}
