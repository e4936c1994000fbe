// Package goquery implements webchunk.Extractor on top of goquery.
package goquery

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/webchunk"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// Ensure Extractor implements webchunk.Extractor at compile time.
var _ webchunk.Extractor = (*Extractor)(nil)

// Extractor selects elements by tag and class and returns their text.
//
// Markup is parsed with the HTML5 tree construction algorithm, which never
// rejects input: unclosed tags are closed implicitly, stray end tags are
// dropped and unknown elements are kept as generic elements. Extraction
// therefore degrades to partial or empty text instead of failing.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the text of every element selected by policy, in document
// order, each followed by a newline. An element nested inside another
// selected element is not visited separately.
func (e *Extractor) Extract(markup string, policy webchunk.SelectionPolicy) *webchunk.ExtractResult {
	result := &webchunk.ExtractResult{}

	doc, ok := parse(markup)
	if !ok {
		return result
	}

	result.Title = strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")

	if len(policy.Tags) == 0 {
		return result
	}

	m := policyMatcher{policy: policy}
	var b strings.Builder
	offset := 0

	doc.FindMatcher(m).Each(func(_ int, sel *goquery.Selection) {
		// The ancestor's text already includes this element.
		if sel.ParentsMatcher(m).Length() > 0 {
			return
		}

		node := sel.Get(0)
		text := elementText(node)

		result.Fragments = append(result.Fragments, webchunk.Fragment{
			Tag:    node.Data,
			Offset: offset,
			Text:   text,
		})
		b.WriteString(text)
		b.WriteByte('\n')
		offset += utf8.RuneCountInString(text) + 1
	})

	result.Text = b.String()
	return result
}

// parse builds a document from markup. Markup that is not valid UTF-8 is
// decoded using its <meta> charset declaration, falling back to
// windows-1252. It only reports false when the parser returns an error.
func parse(markup string) (*goquery.Document, bool) {
	var r io.Reader = strings.NewReader(markup)
	if !utf8.ValidString(markup) {
		enc, _, _ := charset.DetermineEncoding([]byte(markup), "")
		r = enc.NewDecoder().Reader(r)
	}
	node, err := html.Parse(r)
	if err != nil {
		return nil, false
	}
	return goquery.NewDocumentFromNode(node), true
}

// policyMatcher adapts a selection policy to goquery.Matcher so tag and
// class names never pass through a CSS selector parser.
type policyMatcher struct {
	policy webchunk.SelectionPolicy
}

func (m policyMatcher) Match(n *html.Node) bool {
	if n.Type != html.ElementNode || !m.policy.MatchesTag(n.Data) {
		return false
	}
	return m.policy.MatchesClass(attr(n, "class"))
}

func (m policyMatcher) MatchAll(n *html.Node) []*html.Node {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if m.Match(n) {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return nodes
}

func (m policyMatcher) Filter(nodes []*html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range nodes {
		if m.Match(n) {
			out = append(out, n)
		}
	}
	return out
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// skipped elements hold no human-readable text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

// blocks separate their text from surrounding text.
var blocks = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Aside: true, atom.Blockquote: true,
	atom.Dd: true, atom.Div: true, atom.Dl: true, atom.Dt: true,
	atom.Figcaption: true, atom.Figure: true, atom.Footer: true, atom.Form: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Header: true, atom.Hr: true, atom.Li: true, atom.Main: true, atom.Nav: true,
	atom.Ol: true, atom.P: true, atom.Pre: true, atom.Section: true, atom.Table: true,
	atom.Td: true, atom.Th: true, atom.Tr: true, atom.Ul: true,
}

// elementText returns the descendant text of n with tags stripped.
// Whitespace runs collapse to a single space, and the boundaries between
// block elements and around <br> become spaces so words never merge.
func elementText(n *html.Node) string {
	w := &textWriter{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			w.write(n.Data)
			return
		case html.ElementNode:
			if skipped[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.Br {
				w.space()
				return
			}
		}
		block := n.Type == html.ElementNode && blocks[n.DataAtom]
		if block {
			w.space()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			w.space()
		}
	}
	walk(n)
	return strings.TrimSpace(w.b.String())
}

// textWriter accumulates text, collapsing whitespace as it goes.
type textWriter struct {
	b         strings.Builder
	lastSpace bool
}

func (w *textWriter) write(s string) {
	for _, r := range s {
		if unicode.IsSpace(r) {
			w.space()
			continue
		}
		w.b.WriteRune(r)
		w.lastSpace = false
	}
}

func (w *textWriter) space() {
	if w.lastSpace || w.b.Len() == 0 {
		return
	}
	w.b.WriteByte(' ')
	w.lastSpace = true
}
