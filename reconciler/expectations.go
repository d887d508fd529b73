package reconciler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpectationPath returns the expectation file for a module.
func ExpectationPath(dir, module string) string {
	return filepath.Join(dir, fmt.Sprintf("expected_%s.txt", module))
}

// LoadExpectations reads a previously persisted expectation file: one
// structured result line per test, newline-terminated, no header. A missing
// file yields an empty baseline (every current result reconciles as NEW).
func LoadExpectations(path string, parser *LineParser) (map[string]Record, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return make(map[string]Record), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading expectation file %s: %w", path, err)
	}

	records := make(map[string]Record)
	for _, line := range strings.Split(string(data), "\n") {
		if rec, ok := parser.Parse(line); ok {
			records[rec.Name] = rec
		}
	}
	return records, nil
}

// WriteExpectations overwrites the expectation file with the current run's
// records, one original line per test. Ordering follows map iteration; the
// file format carries no ordering guarantee.
func WriteExpectations(path string, records map[string]Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating expectation directory: %w", err)
	}

	var b strings.Builder
	for _, rec := range records {
		b.WriteString(rec.Text)
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing expectation file %s: %w", path, err)
	}
	return nil
}
