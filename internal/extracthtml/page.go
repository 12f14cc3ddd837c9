package extracthtml

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pricetrack/internal/priceparse"
)

// page wraps the parsed document for one extraction call. JSON-LD blocks are
// decoded on first use and reused by later strategies of the same call.
type page struct {
	doc *goquery.Document

	blocks        []map[string]any
	blocksDecoded bool
}

func newPage(doc *goquery.Document) *page {
	return &page{doc: doc}
}

func (p *page) structuredBlocks() []map[string]any {
	if !p.blocksDecoded {
		p.blocks = priceparse.DecodeStructuredBlocks(p.doc)
		p.blocksDecoded = true
	}
	return p.blocks
}

// metaContent returns the content attribute of the first
// <meta property="..."> and whether it is non-empty.
func (p *page) metaContent(property string) (string, bool) {
	sel := p.doc.Find(`meta[property="` + property + `"]`).First()
	if sel.Length() == 0 {
		return "", false
	}
	content, _ := sel.Attr("content")
	return content, content != ""
}

// metaCurrency resolves a currency marker, falling back to DefaultCurrency.
func (p *page) metaCurrency(property string) string {
	if c, ok := p.metaContent(property); ok {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return DefaultCurrency
}

// visibleText is the whole document text with every text node trimmed and
// joined by single spaces.
func (p *page) visibleText() string {
	return collapsedText(p.doc.Nodes)
}

// collapsedText joins the trimmed text nodes below nodes with single spaces,
// collapsing any remaining internal whitespace. Script-like containers and
// comments are not visible text and are skipped. <noscript> content is what a
// client without JavaScript sees, so it counts.
func collapsedText(nodes []*html.Node) string {
	var parts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		case html.CommentNode:
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Template:
				return
			case atom.Noscript:
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type != html.TextNode {
						walk(c)
						continue
					}
					// With scripting on, the parser keeps noscript markup as raw text.
					for _, f := range noscriptNodes(c.Data) {
						walk(f)
					}
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// noscriptNodes parses raw noscript content as a body fragment. Unparseable
// content yields nothing.
func noscriptNodes(raw string) []*html.Node {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(raw), body)
	if err != nil {
		return nil
	}
	return nodes
}
