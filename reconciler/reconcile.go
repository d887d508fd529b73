package reconciler

import (
	"fmt"
	"sort"
	"time"
)

// Outcome classifies one test's reconciliation against the baseline.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"         // present in both, equal
	OutcomeRegression Outcome = "regression" // present in both, changed
	OutcomeNew        Outcome = "new"        // only in the current run
	OutcomeMissing    Outcome = "missing"    // only in the baseline
)

// RunStatus is the overall pass/fail state of a run.
type RunStatus string

const (
	RunStatusPass RunStatus = "pass"
	RunStatusFail RunStatus = "fail"
)

// Mismatch is one unexpected result, with the baseline and current records
// where present.
type Mismatch struct {
	Name    string
	Outcome Outcome
	Before  *Record // nil for NEW
	After   *Record // nil for MISSING
}

// ModuleSummary aggregates the reconciliation of one module run.
type ModuleSummary struct {
	Module      string
	TestsRun    int
	OK          int
	Unexpected  int
	Mismatches  []Mismatch
	PassPercent float64
	Duration    time.Duration
}

// Reconcile diffs the current run's records against the persisted baseline.
// OK results are counted silently; regressions carry before/after values; a
// name only in the current run is NEW; a name only in the baseline is
// MISSING. All three non-OK outcomes count as unexpected.
func Reconcile(module string, current, expected map[string]Record) ModuleSummary {
	summary := ModuleSummary{
		Module:   module,
		TestsRun: len(current),
	}

	for _, name := range sortedKeys(current) {
		cur := current[name]
		exp, ok := expected[name]
		switch {
		case !ok:
			summary.Mismatches = append(summary.Mismatches, Mismatch{
				Name:    name,
				Outcome: OutcomeNew,
				After:   &cur,
			})
		case cur.Equal(exp):
			summary.OK++
		default:
			summary.Mismatches = append(summary.Mismatches, Mismatch{
				Name:    name,
				Outcome: OutcomeRegression,
				Before:  &exp,
				After:   &cur,
			})
		}
	}

	for _, name := range sortedKeys(expected) {
		if _, ok := current[name]; !ok {
			exp := expected[name]
			summary.Mismatches = append(summary.Mismatches, Mismatch{
				Name:    name,
				Outcome: OutcomeMissing,
				Before:  &exp,
			})
		}
	}

	summary.Unexpected = len(summary.Mismatches)
	summary.PassPercent = passPercent(current)
	return summary
}

// passPercent computes the aggregate pass percentage across all parsed
// records, guarding against a zero total.
func passPercent(records map[string]Record) float64 {
	var passed, total int
	for _, rec := range records {
		passed += rec.Passed
		total += rec.Total
	}
	if total == 0 {
		return 0
	}
	return 100 * float64(passed) / float64(total)
}

// RunStats tracks run-level counters.
type RunStats struct {
	TestsRun   int
	OK         int
	Unexpected int
	StartTime  time.Time
	EndTime    time.Time
}

// RunResult captures the complete reconciliation run.
type RunResult struct {
	RunID    string
	Modules  []ModuleSummary
	Status   RunStatus
	Duration time.Duration
	Stats    RunStats
}

// String renders the run's one-line summary.
func (r *RunResult) String() string {
	return fmt.Sprintf("%d modules, %d tests run, %d ok, %d unexpected (%s)",
		len(r.Modules), r.Stats.TestsRun, r.Stats.OK, r.Stats.Unexpected, r.Status)
}

func sortedKeys(m map[string]Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
