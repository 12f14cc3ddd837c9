package extracthtml

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// TestStreamFromDir verifies:
//   - stable filename ordering
//   - one JSON object per file, including files where nothing was found
//   - source_file is injected next to the extraction fields
//   - subdirectories are ignored
func TestStreamFromDir(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()

	// Note: We create files out of order to ensure sorting is correct.
	files := map[string]string{
		"b.html": `<h1>Garrafa</h1><p>R$ 49,90</p>`,
		"a.html": `<meta property="og:title" content="Caneca"><meta property="product:price:amount" content="29.9">`,
		"c.html": `<html></html>`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(tmp, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmp, "nested"), 0o700); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := StreamFromDir(&buf, tmp, enc); err != nil {
		t.Fatalf("StreamFromDir: %v", err)
	}

	var arr []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &arr); err != nil {
		t.Fatalf("invalid json: %v; out=%s", err, buf.String())
	}

	if len(arr) != 3 {
		t.Fatalf("want 3 records got %d", len(arr))
	}

	if arr[0]["source_file"] != "a.html" || arr[0]["name"] != "Caneca" || arr[0]["price_value"] != 29.9 {
		t.Fatalf("unexpected first record: %#v", arr[0])
	}
	if arr[1]["source_file"] != "b.html" || arr[1]["name"] != "Garrafa" || arr[1]["price_text"] != "R$ 49,90" {
		t.Fatalf("unexpected second record: %#v", arr[1])
	}
	if arr[2]["source_file"] != "c.html" || arr[2]["name"] != nil || arr[2]["price_value"] != nil {
		t.Fatalf("unexpected third record: %#v", arr[2])
	}
	if arr[0]["source_url"] != filepath.Join(tmp, "a.html") {
		t.Fatalf("source_url should carry the file path, got %#v", arr[0]["source_url"])
	}
}

func TestStreamFromDir_MissingDir(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := StreamFromDir(&buf, filepath.Join(t.TempDir(), "nope"), json.NewEncoder(&buf))
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
