package extracthtml

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html/charset"

	"pricetrack/internal/metrics"
)

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 20 * time.Second

// requestHeaders make the request look like a regular browser visit from a
// Brazilian locale; several storefronts serve a stripped page otherwise.
var requestHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Accept-Language": "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Cache-Control":   "no-cache",
	"Pragma":          "no-cache",
}

// Input describes where HTML should come from.
type Input struct {
	// URL, if provided, is fetched via HTTP GET.
	URL string

	// Stdin is used when URL is empty. If nil, stdin reads as empty.
	Stdin io.Reader
}

// Loader fetches or reads HTML with a consistent timeout policy. Fetches are
// single attempts; retrying is left to the caller.
type Loader struct {
	client  *http.Client
	timeout time.Duration
}

// NewLoader creates a Loader. If client is nil, http.DefaultClient is used;
// a non-positive timeout means DefaultTimeout.
func NewLoader(client *http.Client, timeout time.Duration) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Loader{
		client:  client,
		timeout: timeout,
	}
}

// Load returns the HTML source for either stdin (when input.URL is empty)
// or a fetched URL.
func (l *Loader) Load(ctx context.Context, input Input) (string, error) {
	if strings.TrimSpace(input.URL) == "" {
		if input.Stdin == nil {
			return "", nil
		}
		b, err := io.ReadAll(input.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	return l.Fetch(ctx, input.URL)
}

// Fetch GETs rawURL and returns the body decoded to UTF-8.
//
// On non-2xx HTTP responses, Fetch returns an error that includes the status
// code and up to 4KB of the response body for debugging.
func (l *Loader) Fetch(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(rawURL), nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	for k, v := range requestHeaders {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		observeHTTP("error", start, 0, true)
		return "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		observeHTTP(status, start, len(body), true)
		return "", fmt.Errorf("http status %d: %s", resp.StatusCode, validText(strings.TrimSpace(string(body))))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		observeHTTP(status, start, len(b), true)
		return "", fmt.Errorf("read body: %w", err)
	}
	observeHTTP(status, start, len(b), false)

	return decodeBody(b, resp.Header.Get("Content-Type")), nil
}

// decodeBody converts b to UTF-8 using the charset declared in the
// Content-Type header or sniffed from the document (<meta charset>, BOM).
// The result is always valid UTF-8, even when the declared charset lies.
func decodeBody(b []byte, contentType string) string {
	enc, name, _ := charset.DetermineEncoding(b, contentType)
	if name == "utf-8" || enc == nil {
		return validText(string(b))
	}
	decoded, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return validText(string(b))
	}
	return validText(string(decoded))
}

// validText replaces invalid UTF-8 with U+FFFD and drops NUL bytes; SQL TEXT
// columns reject both.
func validText(s string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "\uFFFD")
}

func observeHTTP(status string, start time.Time, size int, failed bool) {
	labels := metrics.Labels{"status": status}
	metrics.IncCounter(metrics.HTTPRequestsTotal, 1, labels)
	if failed {
		metrics.IncCounter(metrics.HTTPErrorsTotal, 1, labels)
	}
	metrics.ObserveHistogram(metrics.HTTPRequestDuration, time.Since(start).Seconds(), labels)
	metrics.ObserveHistogram(metrics.HTTPDownloadBytes, float64(size), labels)
}
