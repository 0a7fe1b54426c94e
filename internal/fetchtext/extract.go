// Package fetchtext fills the url_text table: it fetches pages referenced by
// ingested bookmarks and history and extracts searchable text from them.
package fetchtext

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Extraction is the searchable text pulled out of one HTML page.
type Extraction struct {
	Title   string
	Headers string // h1..h6 text, space-joined
	Body    string
}

// skipAtoms are subtrees that contribute no searchable text.
var skipAtoms = map[atom.Atom]struct{}{
	atom.Script:   {},
	atom.Style:    {},
	atom.Iframe:   {},
	atom.Noscript: {},
	atom.Template: {},
}

var headingAtoms = map[atom.Atom]struct{}{
	atom.H1: {}, atom.H2: {}, atom.H3: {},
	atom.H4: {}, atom.H5: {}, atom.H6: {},
}

// Extract parses the page and pulls out its title, heading text and body
// text. The content root is the first <article>, else the first [role=main]
// element, else <body>; generic readability heuristics do not work on every
// site (documentation pages in particular), so the landmark scan stays
// simple.
func Extract(r io.Reader) (Extraction, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Extraction{}, err
	}

	root := findNode(doc, func(n *html.Node) bool { return n.DataAtom == atom.Article })
	if root == nil {
		root = findNode(doc, func(n *html.Node) bool { return attrVal(n, "role") == "main" })
	}
	if root == nil {
		root = findNode(doc, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	}
	if root == nil {
		root = doc
	}

	var headings []string
	walk(root, func(n *html.Node) {
		if _, ok := headingAtoms[n.DataAtom]; ok {
			if t := collectText(n); t != "" {
				headings = append(headings, t)
			}
		}
	})

	title := ""
	if tn := findNode(doc, func(n *html.Node) bool { return n.DataAtom == atom.Title }); tn != nil {
		title = collectText(tn)
	}
	if title == "" {
		if h1 := findNode(doc, func(n *html.Node) bool { return n.DataAtom == atom.H1 }); h1 != nil {
			title = collectText(h1)
		}
	}

	return Extraction{
		Title:   title,
		Headers: strings.Join(headings, " "),
		Body:    collectText(root),
	}, nil
}

// walk visits every element under n depth-first, skipping boilerplate
// subtrees.
func walk(n *html.Node, visit func(*html.Node)) {
	if n.Type == html.ElementNode {
		if _, skip := skipAtoms[n.DataAtom]; skip {
			return
		}
		visit(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// findNode returns the first element in document order matching pred.
func findNode(n *html.Node, pred func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && pred(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// collectText gathers the visible text under n, whitespace-normalized.
func collectText(n *html.Node) string {
	var parts []string
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipAtoms[n.DataAtom]; skip {
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, strings.Join(strings.Fields(t), " "))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return strings.Join(parts, " ")
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
