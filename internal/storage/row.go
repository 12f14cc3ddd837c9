package storage

import (
	"strings"
	"time"
)

// DefaultTable is the destination table when none is configured.
const DefaultTable = "database_price"

// Columns is the fixed column order of the price table, shared by every
// backend and by the CSV header.
var Columns = []string{"source_url", "product_name", "price_value", "comment", "timestamp_utc"}

// Row is one stored extraction outcome.
//
// ProductName and PriceValue are nil when extraction did not find them; SQL
// backends store NULL and the CSV backend an empty cell. Comment is empty on
// success and carries the failure reason otherwise.
type Row struct {
	SourceURL    string
	ProductName  *string
	PriceValue   *float64
	Comment      string
	TimestampUTC time.Time
}

// Values returns the row in Columns order, with absent fields as untyped nil.
// The timestamp is normalised to UTC and text is made safe for TEXT columns.
func (r Row) Values() []any {
	var name, price any
	if r.ProductName != nil {
		name = CleanText(*r.ProductName)
	}
	if r.PriceValue != nil {
		price = *r.PriceValue
	}
	return []any{CleanText(r.SourceURL), name, price, CleanText(r.Comment), r.TimestampUTC.UTC()}
}

// CleanText replaces invalid UTF-8 with U+FFFD and drops NUL bytes. Postgres
// rejects both in TEXT, which would fail the whole batch for one bad row.
func CleanText(s string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "\uFFFD")
}

// Chunk splits rows so that each part stays under maxParams bind parameters
// given len(Columns) parameters per row. It always returns parts of at least
// one row.
func Chunk(rows []Row, maxParams int) [][]Row {
	per := maxParams / len(Columns)
	if per < 1 {
		per = 1
	}

	var out [][]Row
	for start := 0; start < len(rows); start += per {
		end := start + per
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}
