package extracthtml

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// fileResult is one element of the StreamFromDir output.
type fileResult struct {
	SourceFile string `json:"source_file"`
	Result
}

// StreamFromDir streams a single JSON array to w, emitting one extraction
// result per regular file in dir, each tagged with "source_file".
//
// Behavior:
//   - stable ordering by filename
//   - unreadable files are skipped
//   - files where nothing was found are still emitted, with null fields
//
// The result's source_url is the file path, so saved pages can later be
// correlated with the rows they produced.
func StreamFromDir(w io.Writer, dir string, enc *json.Encoder) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	if _, err := io.WriteString(w, "["); err != nil {
		return fmt.Errorf("write [: %w", err)
	}

	first := true
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		full := filepath.Join(dir, e.Name())
		b, err := os.ReadFile(full)
		if err != nil {
			continue
		}

		if !first {
			if _, err := io.WriteString(w, ","); err != nil {
				return fmt.Errorf("write comma: %w", err)
			}
		}
		first = false

		rec := fileResult{SourceFile: e.Name(), Result: ExtractProduct(string(b), full)}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
	}

	if _, err := io.WriteString(w, "]"); err != nil {
		return fmt.Errorf("write ]: %w", err)
	}
	return nil
}
