package reconciler

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// PerfPrefix tags performance log lines: [PERF],key,value
const PerfPrefix = "[PERF]"

// PerfRecord holds the fields reported for one testcase run. Values are the
// raw strings from the log; the literal token "undefined" maps to nil.
type PerfRecord map[string]any

// ParsePerfLines parses a performance log stream into records. A "testcase"
// key starts a new record; non-matching lines are skipped.
func ParsePerfLines(r io.Reader) ([]PerfRecord, error) {
	var records []PerfRecord
	var current PerfRecord

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, PerfPrefix+",") {
			continue
		}
		parts := strings.SplitN(line, ",", 3)
		if len(parts) != 3 {
			continue
		}
		key, value := parts[1], parts[2]

		if key == "testcase" {
			current = make(PerfRecord)
			records = append(records, current)
		}
		if current == nil {
			continue
		}
		if value == "undefined" {
			current[key] = nil
		} else {
			current[key] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading perf stream: %w", err)
	}
	return records, nil
}

// ReduceMedian reduces multiple records per testcase to a single record whose
// numeric fields hold the median of the observed values. With an even number
// of samples the median is the arithmetic mean of the two middle values.
// Testcases keep their order of first appearance.
func ReduceMedian(records []PerfRecord) []PerfRecord {
	var order []string
	grouped := make(map[string][]PerfRecord)

	for _, rec := range records {
		name, ok := rec["testcase"].(string)
		if !ok {
			continue
		}
		if _, seen := grouped[name]; !seen {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], rec)
	}

	reduced := make([]PerfRecord, 0, len(order))
	for _, name := range order {
		group := grouped[name]
		out := PerfRecord{"testcase": name}

		for _, key := range fieldKeys(group) {
			var values []float64
			for _, rec := range group {
				s, ok := rec[key].(string)
				if !ok {
					continue
				}
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					continue
				}
				values = append(values, v)
			}
			if len(values) > 0 {
				out[key] = median(values)
			}
		}
		reduced = append(reduced, out)
	}
	return reduced
}

// FilterByManifest keeps only the records whose testcase is in the allowed
// list, preserving the original order.
func FilterByManifest(records []PerfRecord, allowed []string) []PerfRecord {
	allowedSet := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		allowedSet[name] = true
	}

	var out []PerfRecord
	for _, rec := range records {
		if name, ok := rec["testcase"].(string); ok && allowedSet[name] {
			out = append(out, rec)
		}
	}
	return out
}

// fieldKeys collects the non-testcase field names across a group, sorted for
// deterministic output.
func fieldKeys(group []PerfRecord) []string {
	seen := make(map[string]bool)
	for _, rec := range group {
		for key := range rec {
			if key != "testcase" {
				seen[key] = true
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
