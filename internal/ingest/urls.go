package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pricetrack/internal/parser"
	csvparser "pricetrack/internal/parser/csv"
	jsonparser "pricetrack/internal/parser/json"
)

// ListOptions describes how a URL list is laid out.
type ListOptions struct {
	// Column names the CSV column or JSON object key holding the URL.
	Column string
	// Delimiter separates CSV fields; zero means ','. Ignored for JSON.
	Delimiter rune
}

// LoadURLs reads the URL list at path, choosing the reader by extension:
// .csv goes through parser/csv, .json and .jsonl through parser/json.
//
// Unusable lines are passed to onErr (when non-nil) and skipped; they do not
// fail the load.
func LoadURLs(ctx context.Context, path string, opt ListOptions, onErr func(line int, err error)) ([]string, error) {
	var stream func(ctx context.Context, r io.Reader, out chan<- parser.Record) error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		stream = func(ctx context.Context, r io.Reader, out chan<- parser.Record) error {
			return csvparser.StreamURLs(ctx, io.NopCloser(r), csvparser.Options{Column: opt.Column, Comma: opt.Delimiter}, out, onErr)
		}
	case ".json", ".jsonl":
		stream = func(ctx context.Context, r io.Reader, out chan<- parser.Record) error {
			return jsonparser.StreamURLs(ctx, r, jsonparser.Options{Key: opt.Column}, out, onErr)
		}
	default:
		return nil, fmt.Errorf("url list %s: unsupported extension %q (want .csv, .json or .jsonl)", path, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer f.Close()

	out := make(chan parser.Record, 64)
	done := make(chan error, 1)
	go func() {
		defer close(out)
		done <- stream(ctx, f, out)
	}()

	var urls []string
	for rec := range out {
		urls = append(urls, rec.URL)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("read url list %s: %w", path, err)
	}
	return urls, nil
}
