// Package metrics is the process-wide metrics facade. Code records through the
// package-level functions; a concrete backend (Datadog, or the default no-op)
// is installed once at startup with SetBackend.
package metrics

import "sync"

// Labels are dimension key/value pairs attached to a single observation.
type Labels map[string]string

// Backend receives observations. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

// Metric names recorded by this module.
const (
	HTTPRequestsTotal   = "pricetrack_http_requests_total"
	HTTPErrorsTotal     = "pricetrack_http_errors_total"
	HTTPRequestDuration = "pricetrack_http_request_duration_seconds"
	HTTPDownloadBytes   = "pricetrack_http_download_bytes"

	PagesTotal         = "pricetrack_pages_total"
	FieldStrategyTotal = "pricetrack_field_strategy_total"
	RowsStoredTotal    = "pricetrack_rows_stored_total"
	StepDuration       = "pricetrack_step_duration_seconds"
)

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the active backend. nil restores the no-op backend.
func SetBackend(b Backend) {
	if b == nil {
		b = nopBackend{}
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter adds delta to a counter on the active backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram records one sample on the active backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush asks the active backend to submit whatever it has buffered.
func Flush() error {
	return current().Flush()
}
