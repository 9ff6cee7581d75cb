// Package search extracts the search records of a rendered page body.
package search

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Record is one searchable section of a page: the text found under the
// innermost heading, with the enclosing headings and their anchors.
type Record struct {
	H1       string `json:"h1,omitempty"`
	H2       string `json:"h2,omitempty"`
	H3       string `json:"h3,omitempty"`
	Body     string `json:"body"`
	AnchorH1 string `json:"anchorH1,omitempty"`
	AnchorH2 string `json:"anchorH2,omitempty"`
	AnchorH3 string `json:"anchorH3,omitempty"`
}

// Extract walks the top-level elements of a page body in document order and
// emits one record per heading scope. Text preceding the first heading
// belongs to no scope and is dropped.
func Extract(body string) ([]Record, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(body), ctx)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRender, "failed to parse HTML").Build()
	}

	var (
		s    scope
		prev *html.Node
	)
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		switch n.DataAtom {
		case atom.A:
			// Anchor markers carry no searchable text.
		case atom.H1, atom.H2, atom.H3:
			s.flush()
			s.open(level(n.DataAtom), textOf(n), anchorOf(n, prev))
		default:
			if text := flatten(textOf(n)); text != "" {
				s.body = append(s.body, text)
			}
		}
		prev = n
	}
	s.flush()
	return s.records, nil
}

type heading struct {
	text, anchor string
}

type scope struct {
	headings [3]heading
	// level is the depth of the open scope, 0 before the first heading.
	level   int
	body    []string
	records []Record
}

func (s *scope) open(level int, text, anchor string) {
	for i := level - 1; i < len(s.headings); i++ {
		s.headings[i] = heading{}
	}
	s.headings[level-1] = heading{text: text, anchor: anchor}
	s.level = level
}

func (s *scope) flush() {
	if s.level > 0 {
		r := Record{
			H1:       s.headings[0].text,
			AnchorH1: s.headings[0].anchor,
			Body:     strings.Join(s.body, " "),
		}
		if s.level >= 2 {
			r.H2, r.AnchorH2 = s.headings[1].text, s.headings[1].anchor
		}
		if s.level == 3 {
			r.H3, r.AnchorH3 = s.headings[2].text, s.headings[2].anchor
		}
		s.records = append(s.records, r)
	}
	s.body = s.body[:0]
}

func level(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	default:
		return 3
	}
}

// anchorOf returns the heading's id, falling back to the name of an <a>
// marker placed right before it.
func anchorOf(h, prev *html.Node) string {
	if id := getAttr(h, "id"); id != "" {
		return id
	}
	if prev != nil && prev.DataAtom == atom.A {
		return getAttr(prev, "name")
	}
	return ""
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}

func flatten(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
}
