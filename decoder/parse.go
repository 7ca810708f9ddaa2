package decoder

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type parseMode int

const (
	// parseFragment parses the input in the context of a given element.
	parseFragment parseMode = iota
	// parseDocument keeps the html/head/body skeleton of a full document.
	parseDocument
	// parseSections parses head and body sections without an html element,
	// they become the roots of the tree.
	parseSections
)

// parse builds a tree for src. Only the first significant tag decides how
// src is parsed, markup inside text, scripts or attributes never does.
func parse(src string) (*html.Node, error) {
	mode, context := parseContext(src)
	switch mode {
	case parseDocument:
		return html.Parse(strings.NewReader(src))
	case parseSections:
		doc, err := html.Parse(strings.NewReader(src))
		if err != nil {
			return nil, err
		}
		unwrapDocument(doc)
		return doc, nil
	}
	nodes, err := html.ParseFragment(strings.NewReader(src), &html.Node{
		Type:     html.ElementNode,
		Data:     context.String(),
		DataAtom: context,
	})
	if err != nil {
		return nil, err
	}
	doc := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		doc.AppendChild(n)
	}
	return doc, nil
}

// parseContext skips whitespace, comments and doctypes and looks at the
// first tag. Table parts and options need their parent as fragment context,
// the html5 body context would drop them.
func parseContext(src string) (mode parseMode, context atom.Atom) {
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return parseFragment, atom.Body
		case html.CommentToken, html.DoctypeToken:
			continue
		case html.TextToken:
			if strings.TrimFunc(string(z.Raw()), isSpace) == "" {
				continue
			}
			return parseFragment, atom.Body
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Html:
				return parseDocument, 0
			case atom.Head, atom.Body:
				return parseSections, 0
			case atom.Tr:
				return parseFragment, atom.Tbody
			case atom.Td, atom.Th:
				return parseFragment, atom.Tr
			case atom.Tbody, atom.Thead, atom.Tfoot, atom.Caption, atom.Colgroup:
				return parseFragment, atom.Table
			case atom.Col:
				return parseFragment, atom.Colgroup
			case atom.Option, atom.Optgroup:
				return parseFragment, atom.Select
			default:
				return parseFragment, atom.Body
			}
		default:
			return parseFragment, atom.Body
		}
	}
}

// unwrapDocument moves the children of the implied html element up to the
// document. Empty head or body elements the parser had to add are dropped.
func unwrapDocument(doc *html.Node) {
	var root *html.Node
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Html {
			root = c
			break
		}
	}
	if root == nil {
		return
	}
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		root.RemoveChild(c)
		if !isImpliedSection(c) {
			doc.InsertBefore(c, root)
		}
		c = next
	}
	doc.RemoveChild(root)
}

func isImpliedSection(n *html.Node) bool {
	if n.Type != html.ElementNode || (n.DataAtom != atom.Head && n.DataAtom != atom.Body) {
		return false
	}
	return n.FirstChild == nil && len(n.Attr) == 0
}
