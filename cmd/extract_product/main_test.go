package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const productPage = `<html><head>
<title>Caneca Azul - Loja Exemplo</title>
<meta property="product:price:amount" content="129.90">
</head><body><h1>Caneca   Azul</h1></body></html>`

// TestRun_StdinSingleObject checks the default mode: stdin in, one JSON object out.
func TestRun_StdinSingleObject(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), nil, strings.NewReader(productPage), &stdout, &stderr, http.DefaultClient)
	if code != 0 {
		t.Fatalf("run returned %d; stderr=%s", code, stderr.String())
	}

	var got map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not valid json: %v; out=%s", err, stdout.String())
	}
	if got["name"] != "Caneca Azul" {
		t.Fatalf("name=%#v", got["name"])
	}
	if got["price_value"] != 129.9 || got["price_text"] != "R$ 129,90" || got["currency"] != "BRL" {
		t.Fatalf("unexpected price fields: %#v", got)
	}
	if got["source_url"] != "" {
		t.Fatalf("source_url=%#v, want empty for stdin", got["source_url"])
	}
}

// TestRun_URL fetches through httptest so no real network is touched.
func TestRun_URL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(productPage))
	}))
	t.Cleanup(srv.Close)

	var stdout, stderr bytes.Buffer
	client := &http.Client{Timeout: 2 * time.Second}
	code := run(context.Background(), []string{"-url", srv.URL + "/p/1"}, bytes.NewBuffer(nil), &stdout, &stderr, client)
	if code != 0 {
		t.Fatalf("run returned %d; stderr=%s", code, stderr.String())
	}

	var got map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not valid json: %v", err)
	}
	if got["source_url"] != srv.URL+"/p/1" {
		t.Fatalf("source_url=%#v", got["source_url"])
	}
}

func TestRun_URLFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "fora do ar", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-url", srv.URL}, nil, &stdout, &stderr, srv.Client())
	if code != 1 {
		t.Fatalf("exit=%d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "http status 503") {
		t.Fatalf("stderr=%q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("stdout must stay empty, got %q", stdout.String())
	}
}

func TestRun_DebugSelectorText(t *testing.T) {
	t.Parallel()

	stdin := bytes.NewBufferString(`<div id="x">  A  </div><div id="x">B</div>`)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-selector", "div#x", "-text"}, stdin, &stdout, &stderr, http.DefaultClient)
	if code != 0 {
		t.Fatalf("run returned %d; stderr=%s", code, stderr.String())
	}
	if out := stdout.String(); out != "A\n\nB\n\n" {
		t.Fatalf("unexpected debug output: %q", out)
	}
}

func TestRun_Trace(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-trace"}, strings.NewReader(productPage), &stdout, &stderr, http.DefaultClient)
	if code != 0 {
		t.Fatalf("run returned %d; stderr=%s", code, stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{`"Caneca Azul"`, `"R$ 129,90" BRL`, "miss"} {
		if !strings.Contains(out, want) {
			t.Fatalf("trace output missing %q:\n%s", want, out)
		}
	}
}

func TestRun_Dir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.html"), []byte(productPage), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.html"), []byte(`<html></html>`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-dir", dir}, nil, &stdout, &stderr, http.DefaultClient)
	if code != 0 {
		t.Fatalf("run returned %d; stderr=%s", code, stderr.String())
	}

	var got []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not a json array: %v; out=%s", err, stdout.String())
	}
	if len(got) != 2 || got[0]["source_file"] != "a.html" || got[1]["name"] != nil {
		t.Fatalf("unexpected dir output: %#v", got)
	}
}

func TestRun_UsageErrors(t *testing.T) {
	t.Parallel()

	cases := [][]string{
		{"-nope"},
		{"extra"},
		{"-dir", ".", "-trace"},
		{"-text"},
	}
	for _, args := range cases {
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), args, nil, &stdout, &stderr, http.DefaultClient); code != 2 {
			t.Fatalf("args=%v: exit=%d, want 2; stderr=%s", args, code, stderr.String())
		}
	}
}
