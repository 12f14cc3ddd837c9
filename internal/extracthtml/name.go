package extracthtml

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"pricetrack/internal/priceparse"
)

// titleSeparators are tried in this order; the first one present in the
// title decides where it is cut, regardless of where the others occur.
var titleSeparators = []string{" | ", " – ", " - "}

// nameCascade lists the product name strategies in priority order.
var nameCascade = []nameStrategy{
	{name: "json-ld", find: nameFromStructuredData},
	{name: "og:title", find: nameFromOpenGraph},
	{name: "h1", find: nameFromHeading},
	{name: "title", find: nameFromTitle},
}

// nameFromStructuredData uses the first JSON-LD Product carrying a string
// name. That Product decides: a name that trims to nothing is a miss.
func nameFromStructuredData(p *page) (string, bool) {
	for _, obj := range p.structuredBlocks() {
		if !priceparse.HasType(obj, "Product") {
			continue
		}
		name, ok := obj["name"].(string)
		if !ok || name == "" {
			continue
		}
		return cleanName(name)
	}
	return "", false
}

func nameFromOpenGraph(p *page) (string, bool) {
	content, ok := p.metaContent("og:title")
	if !ok {
		return "", false
	}
	return cleanName(content)
}

func nameFromHeading(p *page) (string, bool) {
	h1 := p.doc.Find("h1").First()
	if h1.Length() == 0 {
		return "", false
	}
	return cleanName(collapsedText(h1.Nodes))
}

func nameFromTitle(p *page) (string, bool) {
	sel := p.doc.Find("title").First()
	if sel.Length() == 0 {
		return "", false
	}
	return cleanName(splitTitle(sel.Text()))
}

// splitTitle drops the store suffix from a page title:
//
//	"Caneca Azul | Loja X" -> "Caneca Azul"
//	"Widget - Acme | Store" -> "Widget - Acme"  (" | " outranks " - ")
func splitTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, sep := range titleSeparators {
		if i := strings.Index(title, sep); i >= 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return title
}

// cleanName trims and NFC-normalises a candidate name; empty is a miss.
func cleanName(s string) (string, bool) {
	s = norm.NFC.String(strings.TrimSpace(validText(s)))
	return s, s != ""
}
