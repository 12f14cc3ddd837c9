// Package priceparse holds the locale-aware value primitives used by the
// product extractor: Brazilian Real text <-> float conversion and decoding of
// embedded JSON-LD blocks.
//
// Everything here is pure. Parsers report failure through a bool and never
// panic on malformed input.
package priceparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// brlPriceRe matches "R$ 1.234,56": an integer part grouped in thousands by
// '.', and exactly two decimals after ','. \p{Zs} covers the non-breaking
// space most storefronts put between the symbol and the amount.
var brlPriceRe = regexp.MustCompile(`(?i)R\$[\s\p{Zs}]*\d{1,3}(?:\.\d{3})*,\d{2}`)

// FindBRLPrice returns the first "R$ ..." substring of text.
func FindBRLPrice(text string) (string, bool) {
	m := brlPriceRe.FindString(text)
	return m, m != ""
}

// ParseBRLPrice converts the first BRL price found in text to a float.
//
// Examples:
//
//	ParseBRLPrice("por apenas R$ 12,34 à vista") -> 12.34, true
//	ParseBRLPrice("R$ 1.234,56")                 -> 1234.56, true
//	ParseBRLPrice("12.34")                       -> 0, false
func ParseBRLPrice(text string) (float64, bool) {
	raw, ok := FindBRLPrice(text)
	if !ok {
		return 0, false
	}

	// The match starts with "R$" or "r$", both two bytes.
	num := strings.TrimSpace(raw[2:])
	num = strings.ReplaceAll(num, ".", "")
	num = strings.Replace(num, ",", ".", 1)

	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// FormatBRLPrice renders v as "R$ 1.234,56".
//
// Negative values keep their sign after the symbol ("R$ -12,34"); such text
// does not parse back, which callers use to reject negative amounts.
func FormatBRLPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "R$ " + strconv.FormatFloat(v, 'f', 2, 64)
	}

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	s := strconv.FormatFloat(v, 'f', 2, 64)
	intPart, frac := s[:len(s)-3], s[len(s)-2:]

	return "R$ " + sign + groupThousands(intPart) + "," + frac
}

// groupThousands inserts '.' every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3)

	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// ParseAmount is the plain numeric parse used for machine-readable amounts
// (meta content, microdata): surrounding space is trimmed and every ','
// becomes '.' before parsing. NaN and infinities are rejected.
func ParseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Canonical formats v as BRL text and parses it back, so the returned pair
// always satisfies value == ParseBRLPrice(text). ok is false when the text
// cannot be parsed back (negative or non-finite v).
func Canonical(v float64) (text string, value float64, ok bool) {
	text = FormatBRLPrice(v)
	value, ok = ParseBRLPrice(text)
	if !ok {
		return "", 0, false
	}
	return text, value, true
}
