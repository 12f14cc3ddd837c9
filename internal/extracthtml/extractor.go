package extracthtml

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExtractProduct parses html and returns the product name and price found in
// it. sourceURL is only carried through to the result for row correlation.
//
// Each field is resolved by its own cascade of strategies; the first strategy
// producing a non-empty value wins:
//
//	name:  JSON-LD Product.name, og:title, first <h1>, <title> (store suffix cut)
//	price: product:price:amount meta, itemprop="price", og:price:amount /
//	       product:sale_price:amount metas, first "R$ ..." in visible text
//
// Missing or malformed markup never produces an error; it produces nil fields.
// The call is pure: identical input yields an identical Result.
func ExtractProduct(html, sourceURL string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{SourceURL: sourceURL}
	}
	return ExtractProductDocument(doc, sourceURL)
}

// ExtractProductDocument is ExtractProduct for an already parsed document.
// The document is only read.
func ExtractProductDocument(doc *goquery.Document, sourceURL string) Result {
	res := Result{SourceURL: sourceURL}
	if doc == nil {
		return res
	}

	p := newPage(doc)

	for _, s := range nameCascade {
		if name, ok := s.find(p); ok {
			source := s.name
			res.Name = &name
			res.NameSource = &source
			break
		}
	}

	for _, s := range priceCascade {
		if m, ok := s.find(p); ok {
			res.PriceText = &m.text
			res.PriceValue = &m.value
			res.Currency = &m.currency
			res.StrategyHint = &m.hint
			source := s.name
			res.PriceSource = &source
			break
		}
	}

	return res
}

// Trace runs every strategy of both cascades without short-circuiting and
// reports what each one found. It is a diagnostic companion to
// ExtractProduct for working out why a page resolves the way it does.
func Trace(html string) []StrategyOutcome {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	p := newPage(doc)

	out := make([]StrategyOutcome, 0, len(nameCascade)+len(priceCascade))
	for _, s := range nameCascade {
		name, ok := s.find(p)
		out = append(out, StrategyOutcome{
			Field:    "name",
			Strategy: s.name,
			Matched:  ok,
			Value:    name,
		})
	}
	for _, s := range priceCascade {
		m, ok := s.find(p)
		o := StrategyOutcome{Field: "price", Strategy: s.name, Matched: ok}
		if ok {
			o.Value = m.text
			o.Currency = m.currency
			o.Hint = m.hint
		}
		out = append(out, o)
	}
	return out
}
