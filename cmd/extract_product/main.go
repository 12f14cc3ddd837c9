// Command extract-product reads one product page (from stdin, a URL, or a
// directory of saved pages), extracts the product name and BRL price, and
// prints JSON.
//
// Usage (stdin):
//
//	cat page.html | extract-product
//
// Usage (fetch URL):
//
//	extract-product -url "https://loja.example/produto/123"
//
// Usage (directory mode):
//
//	extract-product -dir "./pages"
//
// Debug (show what every strategy of the cascade finds):
//
//	cat page.html | extract-product -trace
//
// Debug (print outer HTML blocks, or their text with -text):
//
//	cat page.html | extract-product -selector "span[itemprop=price]" -text
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"pricetrack/internal/extracthtml"
)

func main() {
	os.Exit(run(
		context.Background(),
		os.Args[1:],
		os.Stdin,
		os.Stdout,
		os.Stderr,
		http.DefaultClient,
	))
}

// run returns a Unix-style exit code:
//   - 0 for success
//   - 2 for usage errors
//   - 1 for operational/runtime errors
func run(
	ctx context.Context,
	args []string,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	httpClient *http.Client,
) int {
	fs := flag.NewFlagSet("extract-product", flag.ContinueOnError)
	fs.SetOutput(stderr)

	onlyText := fs.Bool("text", false, "Debug: print text blocks for -selector matches (not JSON)")
	debugSelector := fs.String("selector", "", "Debug: CSS selector to print matches for (not JSON)")
	trace := fs.Bool("trace", false, "Debug: print the outcome of every extraction strategy (not JSON)")
	urlFlag := fs.String("url", "", "Optional: fetch HTML from URL instead of stdin")
	timeout := fs.Duration("timeout", extracthtml.DefaultTimeout, "Timeout for -url fetch")
	dirFlag := fs.String("dir", "", "Optional: directory of saved HTML pages (one result per file)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return 2
	}
	if *dirFlag != "" && (*urlFlag != "" || *debugSelector != "" || *trace) {
		fmt.Fprintf(stderr, "-dir cannot be combined with -url, -selector or -trace\n")
		return 2
	}
	if *onlyText && *debugSelector == "" {
		fmt.Fprintf(stderr, "-text requires -selector\n")
		return 2
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)

	// Directory mode: stream output as a single JSON array.
	if *dirFlag != "" {
		if err := extracthtml.StreamFromDir(stdout, *dirFlag, enc); err != nil {
			fmt.Fprintf(stderr, "dir extract: %v\n", err)
			return 1
		}
		return 0
	}

	loader := extracthtml.NewLoader(httpClient, *timeout)
	html, err := loader.Load(ctx, extracthtml.Input{
		URL:   *urlFlag,
		Stdin: stdin,
	})
	if err != nil {
		fmt.Fprintf(stderr, "load html: %v\n", err)
		return 1
	}

	switch {
	case *debugSelector != "":
		if err := extracthtml.DebugPrintSelector(stdout, html, *debugSelector, *onlyText); err != nil {
			fmt.Fprintf(stderr, "debug selector: %v\n", err)
			return 1
		}
	case *trace:
		if err := extracthtml.DebugPrintTrace(stdout, html); err != nil {
			fmt.Fprintf(stderr, "trace: %v\n", err)
			return 1
		}
	default:
		if err := enc.Encode(extracthtml.ExtractProduct(html, *urlFlag)); err != nil {
			fmt.Fprintf(stderr, "encode json: %v\n", err)
			return 1
		}
	}
	return 0
}
