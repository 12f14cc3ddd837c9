// Package config resolves run settings for the pricetrack commands from the
// environment, optionally seeded by .env files. Command-line flags are
// applied on top by the commands themselves (flag → env → default).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment keys.
const (
	EnvStoreKind      = "PRICETRACK_STORE_KIND"
	EnvStoreDSN       = "PRICETRACK_STORE_DSN"
	EnvStoreTable     = "PRICETRACK_STORE_TABLE"
	EnvURLs           = "PRICETRACK_URLS"
	EnvURLColumn      = "PRICETRACK_URL_COLUMN"
	EnvURLDelimiter   = "PRICETRACK_URL_DELIMITER"
	EnvFetchTimeout   = "PRICETRACK_FETCH_TIMEOUT"
	EnvWorkers        = "PRICETRACK_WORKERS"
	EnvRPS            = "PRICETRACK_RPS"
	EnvMetricsBackend = "METRICS_BACKEND"
	EnvMetricsTags    = "DD_TAGS"
	EnvJob            = "PRICETRACK_JOB"
)

// Settings is everything a batch run needs.
type Settings struct {
	StoreKind  string
	StoreDSN   string
	StoreTable string

	// URLsPath is the URL list file (.csv, .json or .jsonl).
	URLsPath  string
	URLColumn string
	// URLDelimiter is the field separator of CSV lists, one character.
	URLDelimiter string

	FetchTimeout time.Duration
	Workers      int
	// RPS is the per-domain request rate; 0 disables limiting.
	RPS float64

	MetricsBackend string
	MetricsTags    string
	Job            string
}

// Defaults returns the settings used when nothing is configured. They
// reproduce the original single-machine setup: a CSV list in, a CSV file out.
func Defaults() Settings {
	return Settings{
		StoreKind:      "csv",
		StoreTable:     "database_price",
		URLsPath:       "website_links.csv",
		URLColumn:      "URL",
		URLDelimiter:   ",",
		FetchTimeout:   20 * time.Second,
		Workers:        4,
		MetricsBackend: "none",
		Job:            "pricetrack",
	}
}

// DefaultDSN is the store location used when none is configured. The
// server-backed kinds have no default.
func DefaultDSN(kind string) string {
	switch kind {
	case "csv":
		return "database_price.csv"
	case "sqlite":
		return "database_price.db"
	default:
		return ""
	}
}

// Load reads envFiles (".env" when none are given; missing files are
// ignored) and resolves Settings. Real environment variables win over file
// values, and earlier files win over later ones.
func Load(envFiles ...string) (Settings, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	fileVals := map[string]string{}
	for _, name := range envFiles {
		vals, err := godotenv.Read(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Settings{}, fmt.Errorf("read %s: %w", name, err)
		}
		for k, v := range vals {
			if _, seen := fileVals[k]; !seen {
				fileVals[k] = v
			}
		}
	}

	return FromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	})
}

// FromLookup resolves Settings through lookup, falling back to Defaults for
// unset or blank keys. Malformed numbers and durations are errors.
func FromLookup(lookup func(string) (string, bool)) (Settings, error) {
	d := Defaults()
	getEnv := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	s := Settings{
		StoreKind:      strings.ToLower(getEnv(EnvStoreKind, d.StoreKind)),
		StoreTable:     getEnv(EnvStoreTable, d.StoreTable),
		URLsPath:       getEnv(EnvURLs, d.URLsPath),
		URLColumn:      getEnv(EnvURLColumn, d.URLColumn),
		URLDelimiter:   getEnv(EnvURLDelimiter, d.URLDelimiter),
		MetricsBackend: strings.ToLower(getEnv(EnvMetricsBackend, d.MetricsBackend)),
		MetricsTags:    getEnv(EnvMetricsTags, ""),
		Job:            getEnv(EnvJob, d.Job),
	}
	s.StoreDSN = getEnv(EnvStoreDSN, DefaultDSN(s.StoreKind))

	var err error
	if s.FetchTimeout, err = ParseTimeout(getEnv(EnvFetchTimeout, d.FetchTimeout.String())); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", EnvFetchTimeout, err)
	}
	if s.Workers, err = strconv.Atoi(getEnv(EnvWorkers, strconv.Itoa(d.Workers))); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", EnvWorkers, err)
	}
	if s.RPS, err = strconv.ParseFloat(getEnv(EnvRPS, "0"), 64); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", EnvRPS, err)
	}
	return s, nil
}

// ParseTimeout accepts a Go duration ("20s", "1m30s") or a bare number of
// seconds ("20", "2.5").
func ParseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", v)
	}
	return d, nil
}
