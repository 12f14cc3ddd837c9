// Command pricetrack runs one batch: it reads a URL list, extracts product name
// and BRL price from every page, and appends one row per URL to the configured
// store, all rows sharing one UTC timestamp.
//
// Settings come from the environment (optionally seeded by .env files) and
// command-line flags override them: flag → env → default.
//
// Usage:
//
//	pricetrack -urls website_links.csv
//	pricetrack -urls links.json -store sqlite -dsn prices.db -workers 8 -rps 1
//	pricetrack -validate
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"pricetrack/internal/config"
	"pricetrack/internal/extracthtml"
	"pricetrack/internal/ingest"
	"pricetrack/internal/metrics"
	"pricetrack/internal/metrics/datadog"
	"pricetrack/internal/storage"

	// register every store backend with the storage factory; the settings
	// pick which one is used.
	_ "pricetrack/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, http.DefaultClient)
	stop()
	os.Exit(code)
}

// run returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage/config errors
//   - 1 for operational/runtime errors
func run(ctx context.Context, args []string, stdout, stderr io.Writer, httpClient *http.Client) int {
	fs := flag.NewFlagSet("pricetrack", flag.ContinueOnError)
	fs.SetOutput(stderr)

	envFiles := fs.String("env", ".env", "comma-separated .env files (missing files are ignored)")
	urls := fs.String("urls", "", "URL list (.csv, .json or .jsonl); overrides "+config.EnvURLs)
	column := fs.String("column", "", "URL column or key; overrides "+config.EnvURLColumn)
	delimiter := fs.String("delimiter", "", "CSV list field separator; overrides "+config.EnvURLDelimiter)
	storeKind := fs.String("store", "", "store kind (csv, sqlite, postgres, mssql); overrides "+config.EnvStoreKind)
	dsn := fs.String("dsn", "", "store DSN or file path; overrides "+config.EnvStoreDSN)
	table := fs.String("table", "", "table name for SQL stores; overrides "+config.EnvStoreTable)
	workers := fs.Int("workers", 0, "concurrent fetches; overrides "+config.EnvWorkers)
	rps := fs.Float64("rps", 0, "requests per second per domain, 0 for no limit; overrides "+config.EnvRPS)
	timeout := fs.Duration("timeout", 0, "per-page fetch timeout; overrides "+config.EnvFetchTimeout)
	metricsBackend := fs.String("metrics-backend", "", "metrics backend (datadog, none); overrides "+config.EnvMetricsBackend)
	job := fs.String("job", "", "job name tagged on metrics; overrides "+config.EnvJob)
	validate := fs.Bool("validate", false, "validate the configuration and exit")
	verbose := fs.Bool("v", false, "enable verbose logs")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return 2
	}

	logger := log.New(stderr, "", log.LstdFlags)

	s, err := config.Load(splitList(*envFiles)...)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 2
	}

	// Flags that were set win over env and defaults.
	prevKind := s.StoreKind
	dsnSet := false
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "urls":
			s.URLsPath = *urls
		case "column":
			s.URLColumn = *column
		case "delimiter":
			s.URLDelimiter = *delimiter
		case "store":
			s.StoreKind = strings.ToLower(strings.TrimSpace(*storeKind))
		case "dsn":
			s.StoreDSN = *dsn
			dsnSet = true
		case "table":
			s.StoreTable = *table
		case "workers":
			s.Workers = *workers
		case "rps":
			s.RPS = *rps
		case "timeout":
			s.FetchTimeout = *timeout
		case "metrics-backend":
			s.MetricsBackend = strings.ToLower(strings.TrimSpace(*metricsBackend))
		case "job":
			s.Job = *job
		}
	})
	// A default DSN belongs to the kind it was derived from.
	if !dsnSet && s.StoreKind != prevKind && s.StoreDSN == config.DefaultDSN(prevKind) {
		s.StoreDSN = config.DefaultDSN(s.StoreKind)
	}

	issues := config.Validate(s)
	for _, iss := range issues {
		fmt.Fprintln(stderr, iss.String())
	}
	if config.HasErrors(issues) {
		logger.Printf("configuration is invalid")
		return 2
	}
	if *validate {
		logger.Printf("configuration is valid: store=%s urls=%s", s.StoreKind, s.URLsPath)
		return 0
	}

	closeMetrics := setupMetrics(ctx, logger, s, *verbose)
	defer closeMetrics()

	start := time.Now()
	if *verbose {
		logger.Printf("run: store=%s table=%s urls=%s workers=%d rps=%v timeout=%s",
			s.StoreKind, s.StoreTable, s.URLsPath, s.Workers, s.RPS, s.FetchTimeout)
	}

	delim, _ := utf8.DecodeRuneInString(s.URLDelimiter)
	list, err := ingest.LoadURLs(ctx, s.URLsPath, ingest.ListOptions{Column: s.URLColumn, Delimiter: delim}, func(line int, err error) {
		logger.Printf("url list: skip line %d: %v", line, err)
	})
	if err != nil {
		logger.Printf("%v", err)
		return 1
	}

	repo, err := storage.New(ctx, storage.Config{
		Kind:  s.StoreKind,
		DSN:   s.StoreDSN,
		Table: s.StoreTable,
	})
	if err != nil {
		logger.Printf("open store: %v", err)
		return 1
	}
	defer repo.Close()

	runner := &ingest.Runner{
		Fetcher: extracthtml.NewLoader(httpClient, s.FetchTimeout),
		Store:   repo,
		Workers: s.Workers,
	}
	if s.RPS > 0 {
		runner.Limiter = ingest.NewDomainLimiter(s.RPS)
	}
	if *verbose {
		runner.Logger = logger
	}

	sum, err := runner.Run(ctx, list)
	if err != nil {
		logger.Printf("run: %v", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	if err := enc.Encode(sum); err != nil {
		logger.Printf("encode summary: %v", err)
		return 1
	}
	if *verbose {
		logger.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return 0
}

// setupMetrics installs the configured metrics backend and returns its
// shutdown function. Backend init failures fall back to the no-op backend.
func setupMetrics(ctx context.Context, logger *log.Logger, s config.Settings, verbose bool) func() {
	switch s.MetricsBackend {
	case "datadog":
		extraTags := datadog.ParseTagsCSV(s.MetricsTags)

		// The backend flushes periodically and once more on Close.
		b, err := datadog.NewBackend(context.WithoutCancel(ctx), datadog.Options{
			JobName:    s.Job,
			Tags:       extraTags,
			FlushEvery: 60 * time.Second,
		})
		if err != nil {
			logger.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return func() {}
		}
		logger.Printf("metrics: backend=datadog job_name=%v tags=%v", s.Job, extraTags)
		metrics.SetBackend(b)
		return func() {
			if err := b.Close(); err != nil {
				logger.Printf("metrics: datadog close/flush error: %v", err)
			}
			metrics.SetBackend(nil)
		}

	case "", "none":
		if verbose {
			logger.Printf("metrics: disabled")
		}

	default:
		logger.Printf("metrics: unknown backend %q; metrics disabled", s.MetricsBackend)
	}
	return func() {}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
