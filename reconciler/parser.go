// Package reconciler runs test modules through the external runner binary,
// parses the structured result lines it emits and diffs them against the
// recorded expectation baseline.
package reconciler

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// DefaultLinePrefix is the tag carried by structured result lines.
const DefaultLinePrefix = "wpt"

// Record is one parsed structured result line: the per-test success/fail
// counts plus the original line text, which is what the expectation file
// stores. Records are immutable; equality compares the counts.
type Record struct {
	Name   string
	Passed int
	Failed int
	Total  int
	Text   string
}

// Equal reports whether two records describe the same outcome.
func (r Record) Equal(o Record) bool {
	return r.Passed == o.Passed && r.Failed == o.Failed && r.Total == o.Total
}

// LineParser matches structured result lines of the form
//
//	[<prefix>] [<passed>/<failed>/<total>] <name>
//
// Anything else on the stream is diagnostic noise and is skipped without
// corrupting the parse of subsequent valid lines.
type LineParser struct {
	re *regexp.Regexp
}

// NewLineParser builds a parser for the given line prefix.
func NewLineParser(prefix string) *LineParser {
	if prefix == "" {
		prefix = DefaultLinePrefix
	}
	return &LineParser{
		re: regexp.MustCompile(`^\[` + regexp.QuoteMeta(prefix) + `\] \[(\d+)/(\d+)/(\d+)\] (.*)$`),
	}
}

// Parse parses a single line. The second return value is false for lines
// that are not structured result lines.
func (p *LineParser) Parse(line string) (Record, bool) {
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}
	passed, _ := strconv.Atoi(m[1])
	failed, _ := strconv.Atoi(m[2])
	total, _ := strconv.Atoi(m[3])
	return Record{
		Name:   m[4],
		Passed: passed,
		Failed: failed,
		Total:  total,
		Text:   line,
	}, true
}

// ParseAll consumes a stream line by line and returns the records keyed by
// test name. Later lines for the same name overwrite earlier ones.
func (p *LineParser) ParseAll(r io.Reader) (map[string]Record, error) {
	records := make(map[string]Record)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if rec, ok := p.Parse(scanner.Text()); ok {
			records[rec.Name] = rec
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading result stream: %w", err)
	}
	return records, nil
}
