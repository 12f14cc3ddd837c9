package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Severity grades a validation Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding of Validate. Path names the offending setting by its
// environment key.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

var (
	knownStores  = map[string]bool{"csv": true, "sqlite": true, "postgres": true, "mssql": true}
	knownMetrics = map[string]bool{"none": true, "datadog": true}
)

// Validate reports every problem with s. The run must not start when any
// Issue has SeverityError.
func Validate(s Settings) []Issue {
	var issues []Issue
	add := func(sev Severity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if !knownStores[s.StoreKind] {
		add(SeverityError, EnvStoreKind, "unknown store kind %q (want csv, sqlite, postgres or mssql)", s.StoreKind)
	}
	if strings.TrimSpace(s.StoreDSN) == "" {
		add(SeverityError, EnvStoreDSN, "required for store kind %q", s.StoreKind)
	}
	if s.StoreKind == "csv" && strings.TrimSpace(s.StoreTable) != "" && s.StoreTable != Defaults().StoreTable {
		add(SeverityWarning, EnvStoreTable, "ignored by the csv store")
	}

	if strings.TrimSpace(s.URLsPath) == "" {
		add(SeverityError, EnvURLs, "url list path is empty")
	} else if ext := strings.ToLower(filepath.Ext(s.URLsPath)); ext != ".csv" && ext != ".json" && ext != ".jsonl" {
		add(SeverityError, EnvURLs, "unsupported url list extension %q (want .csv, .json or .jsonl)", ext)
	}

	if utf8.RuneCountInString(s.URLDelimiter) != 1 {
		add(SeverityError, EnvURLDelimiter, "must be a single character, got %q", s.URLDelimiter)
	}

	if s.FetchTimeout <= 0 {
		add(SeverityError, EnvFetchTimeout, "must be positive, got %s", s.FetchTimeout)
	}
	if s.Workers < 1 {
		add(SeverityError, EnvWorkers, "must be at least 1, got %d", s.Workers)
	} else if s.Workers > 64 {
		add(SeverityWarning, EnvWorkers, "%d workers is likely to get the crawler blocked", s.Workers)
	}
	if s.RPS < 0 {
		add(SeverityError, EnvRPS, "must not be negative, got %v", s.RPS)
	}

	if !knownMetrics[s.MetricsBackend] {
		add(SeverityWarning, EnvMetricsBackend, "unknown metrics backend %q; metrics disabled", s.MetricsBackend)
	}
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}
