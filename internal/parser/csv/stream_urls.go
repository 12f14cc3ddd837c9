package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"pricetrack/internal/parser"
)

// Options controls how a URL list CSV is read.
type Options struct {
	// Column names the URL column; matched after parser.NormalizeHeader, so
	// "URL", "url" and " Url " are the same column. Empty means parser.DefaultColumn.
	Column string

	// Comma is the field delimiter; zero means ','.
	Comma rune

	// NoHeader treats every line as data and reads the URL from the first field.
	NoHeader bool
}

// StreamURLs reads a URL list from src and sends one parser.Record per
// non-blank URL cell to out, in file order. src is closed on return.
//
// Malformed lines and blank cells are reported through onErr (when non-nil)
// and skipped. A missing header or URL column is a hard error.
//
// NOTE on cancellation: StreamURLs stops at the next line once ctx is done and
// returns ctx.Err().
func StreamURLs(
	ctx context.Context,
	src io.ReadCloser,
	opt Options,
	out chan<- parser.Record,
	onErr func(line int, err error),
) error {
	defer src.Close()

	cr := csv.NewReader(src)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	col := 0
	if !opt.NoHeader {
		hdr, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("csv: empty url list")
			}
			return fmt.Errorf("csv: read header: %w", err)
		}
		want := parser.NormalizeHeader(opt.Column)
		if want == "" {
			want = parser.DefaultColumn
		}
		col = -1
		for i, h := range hdr {
			if parser.NormalizeHeader(h) == want {
				col = i
				break
			}
		}
		if col < 0 {
			return fmt.Errorf("csv: column %q not found in header %q", want, hdr)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return fmt.Errorf("csv read: %w", err)
			}
			if onErr != nil {
				onErr(pe.StartLine, fmt.Errorf("csv read: %w", err))
			}
			continue
		}
		// Blank lines are skipped by the reader, so count from its positions.
		line, _ := cr.FieldPos(0)

		if col >= len(rec) {
			if onErr != nil {
				onErr(line, fmt.Errorf("csv: line has %d fields, url is field %d", len(rec), col+1))
			}
			continue
		}
		u, ok := parser.CleanURL(rec[col])
		if !ok {
			if onErr != nil {
				onErr(line, fmt.Errorf("csv: blank url"))
			}
			continue
		}

		select {
		case out <- parser.Record{Line: line, URL: u}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
