// Package ingest runs a batch: fetch every URL of a list, extract name and
// price from each page, and append one row per URL to a store.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"pricetrack/internal/extracthtml"
	"pricetrack/internal/metrics"
	"pricetrack/internal/storage"
)

// DefaultWorkers is the fetch concurrency used when Runner.Workers is unset.
const DefaultWorkers = 4

// FailureCommentPrefix starts the comment of every row whose page could not
// be fetched or parsed. The error text follows it.
const FailureCommentPrefix = "Issue occurred during fetch/parse - "

// Fetcher returns the HTML of a page. *extracthtml.Loader satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Limiter delays a request until the domain's rate allows it.
// *DomainLimiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context, domain string) error
}

// Logger is the minimal logging interface used by Runner.
// *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

// Runner processes URL batches. Fetcher and Store are required; everything
// else has a default.
type Runner struct {
	Fetcher Fetcher
	Store   storage.Repository

	// Workers bounds concurrent fetches; <= 0 means DefaultWorkers.
	Workers int

	// Limiter, when set, is consulted before every fetch with the URL's host.
	Limiter Limiter

	Logger Logger

	// test seams
	now     func() time.Time
	extract func(html, sourceURL string) extracthtml.Result
}

// Summary reports what a Run did.
type Summary struct {
	URLs      int       `json:"urls"`
	Failed    int       `json:"failed"`
	WithName  int       `json:"with_name"`
	WithPrice int       `json:"with_price"`
	Stored    int64     `json:"stored"`
	Timestamp time.Time `json:"timestamp_utc"`
}

// Run ensures the store's table exists, processes urls and appends the rows.
//
// Per-URL failures never fail the run; they end up in the row comment. Store
// errors and cancellation do, and when ctx is canceled nothing is appended.
func (r *Runner) Run(ctx context.Context, urls []string) (Summary, error) {
	if r.Fetcher == nil {
		return Summary{}, fmt.Errorf("ingest: Fetcher is required")
	}
	if r.Store == nil {
		return Summary{}, fmt.Errorf("ingest: Store is required")
	}
	logf := r.logger()

	ddlStart := time.Now()
	if err := r.Store.EnsureTable(ctx); err != nil {
		return Summary{}, fmt.Errorf("ensure table: %w", err)
	}
	observeStep("ddl", ddlStart)
	logf("stage=ddl ok duration=%s", durMS(ddlStart))

	extractStart := time.Now()
	rows := r.Process(ctx, urls)
	if err := ctx.Err(); err != nil {
		return summarize(rows), fmt.Errorf("ingest: %w", err)
	}
	sum := summarize(rows)
	observeStep("extract", extractStart)
	logf("stage=extract ok urls=%d failed=%d with_name=%d with_price=%d duration=%s",
		sum.URLs, sum.Failed, sum.WithName, sum.WithPrice, durMS(extractStart))

	if len(rows) == 0 {
		return sum, nil
	}

	loadStart := time.Now()
	n, err := r.Store.AppendRows(ctx, rows)
	if err != nil {
		return sum, fmt.Errorf("append rows: %w", err)
	}
	sum.Stored = n
	metrics.IncCounter(metrics.RowsStoredTotal, float64(n), nil)
	observeStep("load", loadStart)
	logf("stage=load ok rows=%d duration=%s", n, durMS(loadStart))

	return sum, nil
}

// Process fetches and extracts every URL with bounded concurrency and returns
// one row per URL in input order. All rows carry the same UTC timestamp,
// taken once every extraction has finished.
func (r *Runner) Process(ctx context.Context, urls []string) []storage.Row {
	rows := make([]storage.Row, len(urls))

	var g errgroup.Group
	g.SetLimit(r.workers())
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			rows[i] = r.processOne(ctx, u)
			return nil
		})
	}
	_ = g.Wait()

	ts := r.clock().UTC()
	for i := range rows {
		rows[i].TimestampUTC = ts
	}
	return rows
}

// processOne never fails: fetch errors and extraction panics become the row
// comment, with name and price left empty.
func (r *Runner) processOne(ctx context.Context, rawURL string) (row storage.Row) {
	defer func() {
		if p := recover(); p != nil {
			row = failedRow(rawURL, fmt.Errorf("panic: %v", p))
		}
	}()

	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx, domainOf(rawURL)); err != nil {
			return failedRow(rawURL, fmt.Errorf("rate limit: %w", err))
		}
	}

	html, err := r.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return failedRow(rawURL, err)
	}

	res := r.extractFn()(html, rawURL)
	metrics.IncCounter(metrics.PagesTotal, 1, metrics.Labels{"status": "ok"})
	observeStrategy("name", res.NameSource)
	observeStrategy("price", res.PriceSource)

	return storage.Row{
		SourceURL:   rawURL,
		ProductName: res.Name,
		PriceValue:  res.PriceValue,
	}
}

func failedRow(rawURL string, err error) storage.Row {
	metrics.IncCounter(metrics.PagesTotal, 1, metrics.Labels{"status": "error"})
	return storage.Row{
		SourceURL: rawURL,
		Comment:   storage.CleanText(FailureCommentPrefix + err.Error()),
	}
}

func summarize(rows []storage.Row) Summary {
	s := Summary{URLs: len(rows)}
	for _, row := range rows {
		if row.Comment != "" {
			s.Failed++
		}
		if row.ProductName != nil {
			s.WithName++
		}
		if row.PriceValue != nil {
			s.WithPrice++
		}
		s.Timestamp = row.TimestampUTC
	}
	return s
}

// domainOf returns the lowercased host of rawURL, or rawURL itself when it
// does not parse to something with a host.
func domainOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.ToLower(u.Hostname())
}

func observeStrategy(field string, source *string) {
	strategy := "none"
	if source != nil {
		strategy = *source
	}
	metrics.IncCounter(metrics.FieldStrategyTotal, 1, metrics.Labels{"field": field, "strategy": strategy})
}

func observeStep(step string, start time.Time) {
	metrics.ObserveHistogram(metrics.StepDuration, time.Since(start).Seconds(), metrics.Labels{"step": step})
}

func (r *Runner) workers() int {
	if r.Workers <= 0 {
		return DefaultWorkers
	}
	return r.Workers
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) extractFn() func(html, sourceURL string) extracthtml.Result {
	if r.extract != nil {
		return r.extract
	}
	return extracthtml.ExtractProduct
}

func (r *Runner) logger() func(format string, v ...any) {
	if r.Logger == nil {
		return log.New(io.Discard, "", 0).Printf
	}
	return r.Logger.Printf
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }
