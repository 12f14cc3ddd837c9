package extracthtml

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DebugPrintSelector prints the outer HTML (or collapsed text) of every
// element matching selector, each followed by a blank line. This backs the
// command's "-selector" mode, used when checking why a storefront's markup
// does or does not reach a strategy.
func DebugPrintSelector(w io.Writer, html, selector string, textOnly bool) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	var werr error
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		block := collapsedText(s.Nodes)
		if !textOnly {
			out, err := goquery.OuterHtml(s)
			if err != nil {
				out, _ = s.Html()
			}
			block = out
		}
		_, werr = fmt.Fprintf(w, "%s\n\n", block)
		return werr == nil
	})
	return werr
}

// DebugPrintTrace prints one line per cascade strategy:
//
//	name   json-ld      miss
//	name   og:title     hit   "Caneca Azul"
//	price  product-meta hit   "R$ 129,90" BRL meta[property="product:price:amount"]
//
// Strategies after the winning one are still evaluated and shown.
func DebugPrintTrace(w io.Writer, html string) error {
	for _, o := range Trace(html) {
		status := "miss"
		if o.Matched {
			status = "hit"
		}
		line := fmt.Sprintf("%-6s %-12s %-4s", o.Field, o.Strategy, status)
		if o.Matched {
			line += fmt.Sprintf(" %q", o.Value)
			if o.Currency != "" {
				line += " " + o.Currency
			}
			if o.Hint != "" {
				line += " " + o.Hint
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}
