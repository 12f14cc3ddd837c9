package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Config is the minimal configuration needed to open a Repository.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is backend-specific
//     (a file path for "csv" and "sqlite", a connection URL for the servers).
//   - An empty Table means DefaultTable.
type Config struct {
	Kind  string
	DSN   string
	Table string
}

// Repository is the append-only store for extraction rows.
//
// Each backend implements these semantics in its own idiomatic way (CSV append,
// multi-row INSERT inside a transaction, etc).
type Repository interface {
	// Close releases any backend resources (file handles, connection pools).
	// Callers should treat Close as "call once".
	Close()

	// EnsureTable creates the destination table (or file header) if it does
	// not exist yet. It is idempotent and safe to run on every batch.
	EnsureTable(ctx context.Context) error

	// AppendRows appends rows in order and reports how many were written.
	// A batch is written atomically where the backend supports it.
	AppendRows(ctx context.Context, rows []Row) (int64, error)
}

// Factory opens a Repository for a backend kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "csv").
//
// Call Register from an init() function in a backend package. Registering the
// same kind twice, an empty kind, or a nil factory panics.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// Kinds lists the registered backend kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// New constructs a Repository using the registered backend factory.
//
// Errors:
//   - Returns an error if cfg.Kind is empty or unsupported.
//   - Returns whatever error the registered factory returns.
func New(ctx context.Context, cfg Config) (Repository, error) {
	cfg.Kind = strings.ToLower(strings.TrimSpace(cfg.Kind))
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing store kind")
	}
	if strings.TrimSpace(cfg.Table) == "" {
		cfg.Table = DefaultTable
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s (registered: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	return f(ctx, cfg)
}
