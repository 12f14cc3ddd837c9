// Package probe samples a URL list and works out how pricetrack should read
// it: the file format, the CSV delimiter and which column holds the URLs.
package probe

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"pricetrack/internal/config"
	"pricetrack/internal/parser"
	jsonparser "pricetrack/internal/parser/json"
)

// DefaultMaxBytes is how much of the list is sampled when Options.MaxBytes is unset.
const DefaultMaxBytes = 20000

// Options controls a probe.
type Options struct {
	// Source is a local path or an http(s) URL.
	Source string
	// MaxBytes to sample from the start of the source.
	MaxBytes int
	// Client fetches http(s) sources; nil means http.DefaultClient.
	Client *http.Client
}

// Report is what Probe found. Column is empty when no column looked like it
// holds URLs.
type Report struct {
	Format      string   `json:"format"`
	Delimiter   string   `json:"delimiter,omitempty"`
	Headers     []string `json:"headers,omitempty"`
	NoHeader    bool     `json:"no_header,omitempty"`
	Column      string   `json:"column"`
	SampledRows int      `json:"sampled_rows"`
	URLCells    int      `json:"url_cells"`
	Hosts       []string `json:"hosts"`
}

// Env renders the report as the settings pricetrack reads, for pasting into
// a .env file.
func (r Report) Env(source string) []string {
	out := []string{config.EnvURLs + "=" + source}
	if r.Column != "" && !r.NoHeader {
		out = append(out, config.EnvURLColumn+"="+r.Column)
	}
	return out
}

// URL column names tried before falling back to cell contents, in order.
var columnNames = []string{"url", "product_url", "link", "href", "website_link", "website"}

// peekFn reads up to n bytes from the start of source. Tests replace it.
var peekFn = func(ctx context.Context, client *http.Client, source string, n int) ([]byte, error) {
	var rc io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("new request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("http get: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("http status %d", resp.StatusCode)
		}
		rc = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		rc = f
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, int64(n)))
}

// Probe samples opt.Source and reports how to read it.
func Probe(ctx context.Context, opt Options) (Report, error) {
	if strings.TrimSpace(opt.Source) == "" {
		return Report{}, fmt.Errorf("probe: empty source")
	}
	n := opt.MaxBytes
	if n <= 0 {
		n = DefaultMaxBytes
	}
	client := opt.Client
	if client == nil {
		client = http.DefaultClient
	}

	sample, err := peekFn(ctx, client, opt.Source, n)
	if err != nil {
		return Report{}, fmt.Errorf("probe: sample %s: %w", opt.Source, err)
	}
	// A cut sample ends mid-line; drop the partial tail.
	if len(sample) == n {
		if i := bytes.LastIndexByte(sample, '\n'); i > 0 {
			sample = sample[:i+1]
		}
	}

	switch sniffFormat(sample) {
	case "json":
		return probeJSON(ctx, sample), nil
	case "csv":
		return probeCSV(sample)
	default:
		return Report{}, fmt.Errorf("probe: %s is empty", opt.Source)
	}
}

// sniffFormat infers the list format from a byte sample.
func sniffFormat(sample []byte) string {
	trim := bytes.TrimSpace(bytes.TrimPrefix(sample, []byte("\xef\xbb\xbf")))
	switch {
	case len(trim) == 0:
		return ""
	case trim[0] == '{' || trim[0] == '[':
		return "json"
	default:
		return "csv"
	}
}

// detectDelimiter picks the candidate occurring most often in the first line.
// Ties go to the earlier candidate, so ',' wins when nothing stands out.
func detectDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	best, bestN := ',', 0
	for _, c := range []rune{',', ';', '\t', '|'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}

// readCSVSample parses the sample into a header and data rows. It is
// best-effort: malformed records end the sample instead of failing it.
func readCSVSample(sample []byte, delimiter rune) ([]string, [][]string) {
	r := csv.NewReader(bytes.NewReader(sample))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], rows[1:]
}

func probeCSV(sample []byte) (Report, error) {
	delim := detectDelimiter(sample)
	header, rows := readCSVSample(sample, delim)
	if header == nil {
		return Report{}, fmt.Errorf("probe: no csv records in sample")
	}

	rep := Report{Format: "csv", Delimiter: string(delim)}

	// A header row that is itself a URL means there is no header.
	if col := urlColumn(append([][]string{header}, rows...)); col >= 0 && col < len(header) && looksLikeURL(header[col]) {
		rep.NoHeader = true
		rows = append([][]string{header}, rows...)
		rep.Column = fmt.Sprintf("#%d", col+1)
		fillURLStats(&rep, rows, col)
		return rep, nil
	}

	rep.Headers = header
	col := -1
	for _, want := range columnNames {
		for i, h := range header {
			if parser.NormalizeHeader(h) == want {
				col = i
				break
			}
		}
		if col >= 0 {
			break
		}
	}
	if col < 0 {
		col = urlColumn(rows)
	}
	if col >= 0 {
		rep.Column = parser.NormalizeHeader(header[col])
	}
	fillURLStats(&rep, rows, col)
	return rep, nil
}

// urlColumn returns the column with the most URL-looking cells, or -1.
func urlColumn(rows [][]string) int {
	counts := map[int]int{}
	for _, row := range rows {
		for i, cell := range row {
			if looksLikeURL(cell) {
				counts[i]++
			}
		}
	}
	best, bestN := -1, 0
	for i, n := range counts {
		if n > bestN || (n == bestN && i < best) {
			best, bestN = i, n
		}
	}
	return best
}

func fillURLStats(rep *Report, rows [][]string, col int) {
	rep.SampledRows = len(rows)
	hosts := map[string]struct{}{}
	for _, row := range rows {
		if col < 0 || col >= len(row) {
			continue
		}
		addURL(rep, hosts, row[col])
	}
	rep.Hosts = sortedHosts(hosts)
}

func probeJSON(ctx context.Context, sample []byte) Report {
	best := Report{Format: "json"}
	bestURLs := []string(nil)
	for _, key := range columnNames {
		urls := sampleJSON(ctx, sample, key)
		if len(urls) > len(bestURLs) {
			best.Column, bestURLs = key, urls
		}
	}

	hosts := map[string]struct{}{}
	for _, u := range bestURLs {
		addURL(&best, hosts, u)
	}
	best.SampledRows = len(bestURLs)
	best.Hosts = sortedHosts(hosts)
	return best
}

// sampleJSON collects what the JSON list reader yields for key. The sample
// may be cut mid-document, so the reader's final error is expected.
func sampleJSON(ctx context.Context, sample []byte, key string) []string {
	out := make(chan parser.Record, 64)
	done := make(chan struct{})
	go func() {
		defer close(out)
		_ = jsonparser.StreamURLs(ctx, bytes.NewReader(sample), jsonparser.Options{Key: key}, out, nil)
	}()

	var urls []string
	go func() {
		defer close(done)
		for rec := range out {
			urls = append(urls, rec.URL)
		}
	}()
	<-done
	return urls
}

func addURL(rep *Report, hosts map[string]struct{}, cell string) {
	if !looksLikeURL(cell) {
		return
	}
	rep.URLCells++
	if u, err := url.Parse(strings.TrimSpace(cell)); err == nil {
		hosts[strings.ToLower(u.Hostname())] = struct{}{}
	}
}

func looksLikeURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func sortedHosts(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
