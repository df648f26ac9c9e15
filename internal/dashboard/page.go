// Package dashboard renders completion statistics into a dashboard page:
// one status table per visible category, links to each entity's management
// page and the sidebar state.
//
// The package works on a parsed document so the same render pass applies to
// the server-rendered page and to offline renders. It never loads data
// itself; statistics arrive through a Source.
package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is an HTML document the render pass mutates in place.
type Page struct {
	doc *goquery.Document
}

// ParsePage parses an HTML document.
func ParsePage(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Page{doc: doc}, nil
}

// ParsePageString is ParsePage for an in-memory document.
func ParsePageString(s string) (*Page, error) {
	return ParsePage(strings.NewReader(s))
}

// Container returns the element with the given id (empty when absent).
func (p *Page) Container(id string) *goquery.Selection {
	return p.doc.FindMatcher(idMatcher(id))
}

// Find runs a CSS selector against the document.
func (p *Page) Find(selector string) *goquery.Selection {
	return p.doc.Find(selector)
}

// WriteTo renders the document.
func (p *Page) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for _, n := range p.doc.Nodes {
		if err := html.Render(cw, n); err != nil {
			return cw.n, fmt.Errorf("render page: %w", err)
		}
	}
	return cw.n, nil
}

// String renders the document, returning "" on failure.
func (p *Page) String() string {
	var b bytes.Buffer
	if _, err := p.WriteTo(&b); err != nil {
		return ""
	}
	return b.String()
}

// OuterHTML renders only the element with the given id.
func (p *Page) OuterHTML(id string) (string, error) {
	el := p.Container(id)
	if el.Length() == 0 {
		return "", fmt.Errorf("%w: #%s", ErrContainerNotFound, id)
	}
	return goquery.OuterHtml(el)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}

// idMatcher matches elements by exact id without building a CSS selector,
// so ids never need escaping.
type idMatcher string

func (m idMatcher) Match(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == "id" {
			return a.Val == string(m)
		}
	}
	return false
}

func (m idMatcher) MatchAll(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if m.Match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func (m idMatcher) Filter(nodes []*html.Node) []*html.Node {
	var out []*html.Node
	for _, n := range nodes {
		if m.Match(n) {
			out = append(out, n)
		}
	}
	return out
}
