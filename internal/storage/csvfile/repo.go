// Package csvfile stores price rows by appending to a CSV file. It is the
// zero-infrastructure backend: the file is created with a header on first use
// and only ever appended to afterwards.
package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"pricetrack/internal/storage"
)

// Repo implements storage.Repository over a single CSV file.
type Repo struct {
	path string

	mu    sync.Mutex
	ready bool
}

func init() {
	storage.Register("csv", New)
}

// New returns a Repo appending to the file at cfg.DSN. cfg.Table is not used.
// The file is not touched until EnsureTable or AppendRows.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	path := strings.TrimSpace(cfg.DSN)
	if path == "" {
		return nil, fmt.Errorf("csv: empty file path")
	}
	return &Repo{path: path}, nil
}

func (r *Repo) Close() {}

// EnsureTable writes the header to a new or empty file, or checks that an
// existing file starts with the expected header.
func (r *Repo) EnsureTable(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensureHeaderLocked()
}

// AppendRows appends rows with a single write, after making sure the header
// is in place.
func (r *Repo) AppendRows(ctx context.Context, rows []storage.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureHeaderLocked(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := w.Write(record(row)); err != nil {
			return 0, fmt.Errorf("csv: encode row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("csv: encode rows: %w", err)
	}

	if err := r.appendBytes(buf.Bytes()); err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (r *Repo) ensureHeaderLocked() error {
	if r.ready {
		return nil
	}

	f, err := os.Open(r.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := r.writeHeader(); err != nil {
			return err
		}
		r.ready = true
		return nil
	case err != nil:
		return fmt.Errorf("csv: open %s: %w", r.path, err)
	}
	defer f.Close()

	got, err := csv.NewReader(f).Read()
	if errors.Is(err, io.EOF) {
		if err := r.writeHeader(); err != nil {
			return err
		}
		r.ready = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("csv: read header of %s: %w", r.path, err)
	}
	if len(got) > 0 {
		got[0] = strings.TrimPrefix(got[0], "\ufeff")
	}
	if strings.Join(got, ",") != strings.Join(storage.Columns, ",") {
		return fmt.Errorf("csv: %s has header %q, want %q", r.path, got, storage.Columns)
	}
	r.ready = true
	return nil
}

func (r *Repo) writeHeader() error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(storage.Columns)
	w.Flush()
	return r.appendBytes(buf.Bytes())
}

func (r *Repo) appendBytes(b []byte) error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("csv: open %s: %w", r.path, err)
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return fmt.Errorf("csv: write %s: %w", r.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("csv: close %s: %w", r.path, err)
	}
	return nil
}

// record renders a row in storage.Columns order. Absent values are empty
// cells; the price keeps full float precision.
func record(row storage.Row) []string {
	name, price := "", ""
	if row.ProductName != nil {
		name = storage.CleanText(*row.ProductName)
	}
	if row.PriceValue != nil {
		price = strconv.FormatFloat(*row.PriceValue, 'f', -1, 64)
	}
	return []string{
		storage.CleanText(row.SourceURL),
		name,
		price,
		storage.CleanText(row.Comment),
		row.TimestampUTC.UTC().Format(time.RFC3339Nano),
	}
}
