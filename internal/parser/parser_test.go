package parser

import "testing"

func TestNormalizeHeader(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"URL":            "url",
		"\ufeffURL":      "url",
		"  Product URL ": "product_url",
		"source_url":     "source_url",
		"":               "",
	}
	for in, want := range tests {
		if got := NormalizeHeader(in); got != want {
			t.Fatalf("NormalizeHeader(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestCleanURL(t *testing.T) {
	t.Parallel()

	if u, ok := CleanURL("  https://a.example/p \t"); !ok || u != "https://a.example/p" {
		t.Fatalf("got %q %v", u, ok)
	}
	if _, ok := CleanURL("   "); ok {
		t.Fatalf("blank cell must be rejected")
	}
}
