package priceparse

import (
	"math"
	"testing"
)

// TestParseBRLPrice covers the accepted grammar and the "first match wins" rule.
func TestParseBRLPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		want   float64
		wantOK bool
	}{
		{name: "simple", in: "R$ 12,34", want: 12.34, wantOK: true},
		{name: "thousands", in: "R$ 1.234,56", want: 1234.56, wantOK: true},
		{name: "millions", in: "R$ 12.345.678,90", want: 12345678.90, wantOK: true},
		{name: "no_space", in: "R$9,99", want: 9.99, wantOK: true},
		{name: "nbsp", in: "R$\u00a0129,90", want: 129.90, wantOK: true},
		{name: "lowercase_symbol", in: "r$ 5,00", want: 5.00, wantOK: true},
		{name: "embedded_first_match", in: "de R$ 199,90 por R$ 149,90", want: 199.90, wantOK: true},
		{name: "empty", in: "", wantOK: false},
		{name: "no_symbol", in: "1.234,56", wantOK: false},
		{name: "dot_decimal", in: "R$ 12.34", wantOK: false},
		{name: "one_decimal", in: "R$ 12,3", wantOK: false},
		{name: "dollar", in: "US$ 12.34", wantOK: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseBRLPrice(tc.in)
			if ok != tc.wantOK {
				t.Fatalf("ParseBRLPrice(%q) ok=%v, want %v", tc.in, ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("ParseBRLPrice(%q)=%v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatBRLPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0,00"},
		{12.34, "R$ 12,34"},
		{129.9, "R$ 129,90"},
		{999.99, "R$ 999,99"},
		{1000, "R$ 1.000,00"},
		{1234.56, "R$ 1.234,56"},
		{1234567.891, "R$ 1.234.567,89"},
		{-12.34, "R$ -12,34"},
	}
	for _, tc := range tests {
		tc := tc
		if got := FormatBRLPrice(tc.in); got != tc.want {
			t.Fatalf("FormatBRLPrice(%v)=%q, want %q", tc.in, got, tc.want)
		}
	}
}

// TestFormatParse_RoundTrip checks ParseBRLPrice(FormatBRLPrice(v)) == v for
// two-decimal values across several magnitudes.
func TestFormatParse_RoundTrip(t *testing.T) {
	t.Parallel()

	check := func(v float64) {
		got, ok := ParseBRLPrice(FormatBRLPrice(v))
		if !ok {
			t.Fatalf("round trip of %v: parse failed on %q", v, FormatBRLPrice(v))
		}
		if got != v {
			t.Fatalf("round trip of %v: got %v (text %q)", v, got, FormatBRLPrice(v))
		}
	}

	for c := int64(0); c <= 200000; c++ {
		check(float64(c) / 100)
	}
	for _, c := range []int64{123456789, 9876543210, 100000000001, 99999999999999} {
		check(float64(c) / 100)
	}
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"129.90", 129.90, true},
		{" 129,90 ", 129.90, true},
		{"10", 10, true},
		{"", 0, false},
		{"   ", 0, false},
		{"1.234,56", 0, false},
		{"R$ 10,00", 0, false},
		{"NaN", 0, false},
		{"inf", 0, false},
	}
	for _, tc := range tests {
		tc := tc
		got, ok := ParseAmount(tc.in)
		if ok != tc.wantOK || (ok && got != tc.want) {
			t.Fatalf("ParseAmount(%q)=(%v,%v), want (%v,%v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

// TestCanonical verifies the value/text pair always agrees and that amounts
// which cannot be expressed as BRL text are rejected.
func TestCanonical(t *testing.T) {
	t.Parallel()

	text, v, ok := Canonical(129.9)
	if !ok || text != "R$ 129,90" || v != 129.9 {
		t.Fatalf("Canonical(129.9)=(%q,%v,%v)", text, v, ok)
	}

	// More than two decimals is rounded to centavos, and the value follows the text.
	text, v, ok = Canonical(10.005001)
	if !ok || text != "R$ 10,01" || v != 10.01 {
		t.Fatalf("Canonical(10.005001)=(%q,%v,%v)", text, v, ok)
	}

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		if _, _, ok := Canonical(bad); ok {
			t.Fatalf("Canonical(%v) ok=true, want false", bad)
		}
	}
}
