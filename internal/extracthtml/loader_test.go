package extracthtml

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestLoader_Stdin verifies stdin input is read and returned as string.
//
// This is the most common mode when piping HTML from another program.
func TestLoader_Stdin(t *testing.T) {
	t.Parallel()

	l := NewLoader(http.DefaultClient, 1*time.Second)
	html, err := l.Load(context.Background(), Input{
		Stdin: bytes.NewBufferString("<p>x</p>"),
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if html != "<p>x</p>" {
		t.Fatalf("unexpected html: %q", html)
	}
}

// TestLoader_URL_Non2xx verifies we include status code and a body snippet.
// This dramatically improves debuggability when scraping.
func TestLoader_URL_Non2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(&http.Client{Timeout: 2 * time.Second}, 2*time.Second)
	_, err := l.Load(context.Background(), Input{URL: srv.URL})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "http status 403") || !strings.Contains(msg, "nope") {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestLoader_Fetch_SendsBrowserHeaders verifies the request carries a browser
// user agent and a Brazilian Accept-Language.
func TestLoader_Fetch_SendsBrowserHeaders(t *testing.T) {
	t.Parallel()

	headers := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<h1>Caneca</h1>"))
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(srv.Client(), 2*time.Second)
	html, err := l.Fetch(context.Background(), "  "+srv.URL+"  ")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if html != "<h1>Caneca</h1>" {
		t.Fatalf("unexpected html: %q", html)
	}
	h := <-headers
	gotUA, gotLang := h.Get("User-Agent"), h.Get("Accept-Language")
	if !strings.Contains(gotUA, "Mozilla/5.0") {
		t.Fatalf("user agent=%q", gotUA)
	}
	if !strings.HasPrefix(gotLang, "pt-BR") {
		t.Fatalf("accept-language=%q", gotLang)
	}
}

// TestLoader_Fetch_DecodesLatin1 verifies bodies declared as ISO-8859-1 are
// returned as UTF-8.
func TestLoader_Fetch_DecodesLatin1(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "Pão" in Latin-1.
		_, _ = w.Write([]byte{'<', 'h', '1', '>', 'P', 0xe3, 'o', '<', '/', 'h', '1', '>'})
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(srv.Client(), 2*time.Second)
	html, err := l.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if html != "<h1>Pão</h1>" {
		t.Fatalf("unexpected html: %q", html)
	}
	got := ExtractProduct(html, srv.URL)
	if got.Name == nil || *got.Name != "Pão" {
		t.Fatalf("name=%v", got.Name)
	}
}

func TestLoader_Fetch_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	l := NewLoader(srv.Client(), 50*time.Millisecond)
	_, err := l.Fetch(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "http get") {
		t.Fatalf("expected http get error, got %v", err)
	}
}

func TestLoader_Fetch_BadURL(t *testing.T) {
	t.Parallel()

	l := NewLoader(nil, 0)
	if l.timeout != DefaultTimeout || l.client != http.DefaultClient {
		t.Fatalf("defaults not applied: %+v", l)
	}
	_, err := l.Fetch(context.Background(), "://nope")
	if err == nil || !strings.Contains(err.Error(), "new request") {
		t.Fatalf("expected new request error, got %v", err)
	}
}

func TestLoader_EmptyInput(t *testing.T) {
	t.Parallel()

	html, err := NewLoader(nil, 0).Load(context.Background(), Input{URL: "   "})
	if err != nil || html != "" {
		t.Fatalf("html=%q err=%v", html, err)
	}
}
