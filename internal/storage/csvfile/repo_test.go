package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pricetrack/internal/storage"
)

func newRepo(t *testing.T, path string) storage.Repository {
	t.Helper()
	repo, err := storage.New(context.Background(), storage.Config{Kind: "csv", DSN: path})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(repo.Close)
	return repo
}

func TestRepo_AppendAcrossRuns(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "database_price.csv")
	ts := time.Date(2026, 5, 2, 14, 0, 0, 0, time.UTC)
	name := "Caneca, Azul"
	price := 1234.56

	first := newRepo(t, path)
	if err := first.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	n, err := first.AppendRows(ctx, []storage.Row{
		{SourceURL: "https://a.example/p", ProductName: &name, PriceValue: &price, TimestampUTC: ts},
	})
	if err != nil || n != 1 {
		t.Fatalf("AppendRows: n=%d err=%v", n, err)
	}

	// A second process appends without rewriting the header.
	second := newRepo(t, path)
	if _, err := second.AppendRows(ctx, []storage.Row{
		{SourceURL: "https://b.example/p", Comment: "Issue occurred during fetch/parse - boom", TimestampUTC: ts},
	}); err != nil {
		t.Fatalf("AppendRows: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "source_url,product_name,price_value,comment,timestamp_utc\n" +
		"https://a.example/p,\"Caneca, Azul\",1234.56,,2026-05-02T14:00:00Z\n" +
		"https://b.example/p,,,Issue occurred during fetch/parse - boom,2026-05-02T14:00:00Z\n"
	if string(b) != want {
		t.Fatalf("file=\n%s\nwant\n%s", b, want)
	}
}

func TestRepo_EmptyFileGetsHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := newRepo(t, path).EnsureTable(context.Background()); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != strings.Join(storage.Columns, ",")+"\n" {
		t.Fatalf("file=%q", b)
	}
}

func TestRepo_RejectsForeignHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := os.WriteFile(path, []byte("URL,Name\nx,y\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	repo := newRepo(t, path)
	if err := repo.EnsureTable(context.Background()); err == nil || !strings.Contains(err.Error(), "has header") {
		t.Fatalf("expected header error, got %v", err)
	}
	if _, err := repo.AppendRows(context.Background(), []storage.Row{{SourceURL: "u"}}); err == nil {
		t.Fatalf("append must not write to a foreign file")
	}
	b, _ := os.ReadFile(path)
	if string(b) != "URL,Name\nx,y\n" {
		t.Fatalf("file modified: %q", b)
	}
}

func TestRepo_AcceptsBOMHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prices.csv")
	header := "\ufeff" + strings.Join(storage.Columns, ",") + "\n"
	if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := newRepo(t, path).EnsureTable(context.Background()); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
}

func TestNew_EmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), storage.Config{Kind: "csv", DSN: " "}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRepo_CanceledContext(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prices.csv")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newRepo(t, path).AppendRows(ctx, []storage.Row{{SourceURL: "u"}}); err == nil {
		t.Fatalf("expected context error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file should not be created, stat err=%v", err)
	}
}
