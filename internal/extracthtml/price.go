package extracthtml

import (
	"strings"

	"pricetrack/internal/priceparse"
)

// altPriceProps are the secondary meta markers, tried in order. Each one's
// currency lives in the same property with ":currency" in place of ":amount".
var altPriceProps = []string{"og:price:amount", "product:sale_price:amount"}

// priceCascade lists the price strategies in priority order.
var priceCascade = []priceStrategy{
	{name: "product-meta", find: priceFromProductMeta},
	{name: "itemprop", find: priceFromItemprop},
	{name: "alt-meta", find: priceFromAltMeta},
	{name: "regex-dom", find: priceFromVisibleText},
}

func priceFromProductMeta(p *page) (priceMatch, bool) {
	raw, ok := p.metaContent("product:price:amount")
	if !ok {
		return priceMatch{}, false
	}
	v, ok := priceparse.ParseAmount(raw)
	if !ok {
		return priceMatch{}, false
	}
	return newPriceMatch(v, p.metaCurrency("product:price:currency"), `meta[property="product:price:amount"]`)
}

// priceFromItemprop reads the first microdata price. The content attribute
// wins over the element text; a plain number is tried before BRL text.
func priceFromItemprop(p *page) (priceMatch, bool) {
	el := p.doc.Find(`[itemprop="price"]`).First()
	if el.Length() == 0 {
		return priceMatch{}, false
	}

	raw, _ := el.Attr("content")
	if raw == "" {
		raw = collapsedText(el.Nodes)
	}
	if raw == "" {
		return priceMatch{}, false
	}

	if v, ok := priceparse.ParseAmount(raw); ok {
		if m, ok := newPriceMatch(v, DefaultCurrency, `itemprop="price"`); ok {
			return m, true
		}
	}
	if v, ok := priceparse.ParseBRLPrice(raw); ok {
		return newPriceMatch(v, DefaultCurrency, `itemprop="price" (regex)`)
	}
	return priceMatch{}, false
}

func priceFromAltMeta(p *page) (priceMatch, bool) {
	for _, prop := range altPriceProps {
		raw, ok := p.metaContent(prop)
		if !ok {
			continue
		}
		v, ok := priceparse.ParseAmount(raw)
		if !ok {
			continue
		}
		currency := p.metaCurrency(strings.Replace(prop, ":amount", ":currency", 1))
		if m, ok := newPriceMatch(v, currency, `meta[property="`+prop+`"]`); ok {
			return m, true
		}
	}
	return priceMatch{}, false
}

func priceFromVisibleText(p *page) (priceMatch, bool) {
	v, ok := priceparse.ParseBRLPrice(p.visibleText())
	if !ok {
		return priceMatch{}, false
	}
	return newPriceMatch(v, DefaultCurrency, "regex-dom")
}

// newPriceMatch canonicalises v through the BRL text form so the stored
// value and text always agree.
func newPriceMatch(v float64, currency, hint string) (priceMatch, bool) {
	text, value, ok := priceparse.Canonical(v)
	if !ok {
		return priceMatch{}, false
	}
	return priceMatch{text: text, value: value, currency: currency, hint: hint}, true
}
