package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeList(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestRun_EnvLines(t *testing.T) {
	t.Parallel()

	p := writeList(t, "links.csv", "nome;link\nCaneca;https://a.example/1\n")
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-source", p}, &stdout, &stderr, http.DefaultClient); code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr.String())
	}

	want := "PRICETRACK_URLS=" + p + "\nPRICETRACK_URL_COLUMN=link\nPRICETRACK_URL_DELIMITER=;\n"
	if stdout.String() != want {
		t.Fatalf("stdout=%q, want %q", stdout.String(), want)
	}
	if !strings.Contains(stderr.String(), "sampled 1 rows, 1 URLs across 1 hosts") {
		t.Fatalf("stderr=%q", stderr.String())
	}
}

func TestRun_Report(t *testing.T) {
	t.Parallel()

	p := writeList(t, "links.json", `["https://a.example/1","https://b.example/2"]`)
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-source", p, "-report"}, &stdout, &stderr, http.DefaultClient); code != 0 {
		t.Fatalf("exit=%d stderr=%s", code, stderr.String())
	}

	var got struct {
		Format   string   `json:"format"`
		URLCells int      `json:"url_cells"`
		Hosts    []string `json:"hosts"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("report is not json: %v; out=%s", err, stdout.String())
	}
	if got.Format != "json" || got.URLCells != 2 || len(got.Hosts) != 2 {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestRun_Warnings(t *testing.T) {
	t.Parallel()

	p := writeList(t, "links.csv", "https://a.example/1\n")
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-source", p}, &stdout, &stderr, http.DefaultClient); code != 0 {
		t.Fatalf("exit=%d", code)
	}
	if !strings.Contains(stderr.String(), "no header row") {
		t.Fatalf("stderr=%q", stderr.String())
	}
}

func TestRun_ExitCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		args []string
		want int
	}{
		{nil, 2},
		{[]string{"-source", "x.csv", "-bytes", "0"}, 2},
		{[]string{"-bogus"}, 2},
		{[]string{"-source", filepath.Join(t.TempDir(), "missing.csv")}, 1},
	}
	for _, tc := range cases {
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), tc.args, &stdout, &stderr, http.DefaultClient); code != tc.want {
			t.Fatalf("args=%v: exit=%d, want %d", tc.args, code, tc.want)
		}
	}
}
