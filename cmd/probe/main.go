// Command probe samples a URL list and prints the settings pricetrack needs
// to read it: which column holds the URLs and, for CSV, the delimiter.
//
// Usage:
//
//	probe -source website_links.csv
//	probe -source https://intranet.example/links.csv -bytes 50000
//	probe -source links.json -report
//
// Default output is .env lines on stdout; -report prints the full JSON report
// instead.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"pricetrack/internal/config"
	"pricetrack/internal/probe"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, http.DefaultClient))
}

// run returns 0 on success, 2 on usage errors and 1 when the source cannot
// be sampled.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, client *http.Client) int {
	fs := flag.NewFlagSet("probe", flag.ContinueOnError)
	fs.SetOutput(stderr)

	source := fs.String("source", "", "URL list path or http(s) URL (required)")
	maxBytes := fs.Int("bytes", probe.DefaultMaxBytes, "number of bytes to sample from the start of the list")
	timeout := fs.Duration("timeout", 30*time.Second, "timeout for http(s) sources")
	report := fs.Bool("report", false, "print the full JSON report instead of .env lines")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *source == "" {
		fmt.Fprintln(stderr, "missing -source")
		return 2
	}
	if *maxBytes <= 0 {
		fmt.Fprintln(stderr, "-bytes must be > 0")
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	rep, err := probe.Probe(ctx, probe.Options{Source: *source, MaxBytes: *maxBytes, Client: client})
	if err != nil {
		fmt.Fprintf(stderr, "probe: %v\n", err)
		return 1
	}

	if *report {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(stderr, "encode report: %v\n", err)
			return 1
		}
		return 0
	}

	for _, line := range rep.Env(*source) {
		fmt.Fprintln(stdout, line)
	}
	if rep.Format == "csv" && rep.Delimiter != "," {
		fmt.Fprintf(stdout, "%s=%s\n", config.EnvURLDelimiter, rep.Delimiter)
	}
	switch {
	case rep.Column == "":
		fmt.Fprintln(stderr, "warning: no column looks like it holds http(s) URLs")
	case rep.NoHeader:
		fmt.Fprintln(stderr, "warning: the list has no header row; add one (e.g. URL) before running pricetrack")
	}
	fmt.Fprintf(stderr, "sampled %d rows, %d URLs across %d hosts\n", rep.SampledRows, rep.URLCells, len(rep.Hosts))
	return 0
}
