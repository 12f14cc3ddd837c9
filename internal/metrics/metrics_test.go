package metrics

import (
	"errors"
	"sync"
	"testing"
)

type recordingBackend struct {
	mu       sync.Mutex
	counters map[string]float64
	samples  map[string][]float64
	flushErr error
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{
		counters: map[string]float64{},
		samples:  map[string][]float64{},
	}
}

func (r *recordingBackend) IncCounter(name string, delta float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name+"/"+labels["status"]] += delta
}

func (r *recordingBackend) ObserveHistogram(name string, value float64, labels Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[name] = append(r.samples[name], value)
}

func (r *recordingBackend) Flush() error { return r.flushErr }

// TestFacade_RoutesToBackend verifies the package functions reach the
// installed backend and that SetBackend(nil) restores the no-op default.
//
// Not parallel: the backend is process-wide.
func TestFacade_RoutesToBackend(t *testing.T) {
	rb := newRecordingBackend()
	rb.flushErr = errors.New("submit failed")
	SetBackend(rb)
	t.Cleanup(func() { SetBackend(nil) })

	IncCounter(PagesTotal, 1, Labels{"status": "ok"})
	IncCounter(PagesTotal, 2, Labels{"status": "ok"})
	ObserveHistogram(HTTPRequestDuration, 0.25, nil)

	if got := rb.counters[PagesTotal+"/ok"]; got != 3 {
		t.Fatalf("counter=%v, want 3", got)
	}
	if got := rb.samples[HTTPRequestDuration]; len(got) != 1 || got[0] != 0.25 {
		t.Fatalf("samples=%v, want [0.25]", got)
	}
	if err := Flush(); err == nil {
		t.Fatalf("expected backend flush error to surface")
	}

	SetBackend(nil)
	IncCounter(PagesTotal, 1, Labels{"status": "ok"})
	if got := rb.counters[PagesTotal+"/ok"]; got != 3 {
		t.Fatalf("counter changed after backend reset: %v", got)
	}
	if err := Flush(); err != nil {
		t.Fatalf("nop flush: %v", err)
	}
}
