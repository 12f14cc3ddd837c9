// Package parser holds what the URL list readers in parser/csv and
// parser/json have in common.
package parser

import "strings"

// Record is one URL read from a list, with the 1-based line (CSV) or element
// index (JSON) it came from.
type Record struct {
	Line int
	URL  string
}

// DefaultColumn is the URL column looked up when none is configured.
const DefaultColumn = "url"

// NormalizeHeader folds a header or key name for matching: BOM and edge
// space trimmed, lowercased, inner spaces replaced by underscores.
//
//	"\ufeff Product URL " -> "product_url"
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSpace(h)
	return strings.ReplaceAll(strings.ToLower(h), " ", "_")
}

// CleanURL trims a raw cell and reports whether anything is left.
func CleanURL(raw string) (string, bool) {
	u := strings.TrimSpace(raw)
	return u, u != ""
}
