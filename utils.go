package harness

import (
	"fmt"
	"time"

	"github.com/webcompat/wptharness/reconciler"
)

// getResultString returns a string representing the run status
func getResultString(status reconciler.RunStatus) string {
	if status == reconciler.RunStatusPass {
		return "✓ pass"
	}
	return "✗ fail"
}

// outcomeLabel renders a reconciliation outcome for the results table
func outcomeLabel(outcome reconciler.Outcome) string {
	switch outcome {
	case reconciler.OutcomeRegression:
		return "✗ regression"
	case reconciler.OutcomeNew:
		return "+ new"
	case reconciler.OutcomeMissing:
		return "? missing"
	default:
		return string(outcome)
	}
}

// mismatchDetail summarizes what changed for one unexpected result
func mismatchDetail(m reconciler.Mismatch) string {
	switch m.Outcome {
	case reconciler.OutcomeRegression:
		return fmt.Sprintf("was %s, now %s", recordCounts(m.Before), recordCounts(m.After))
	case reconciler.OutcomeNew:
		return "not present in baseline"
	case reconciler.OutcomeMissing:
		return "absent from this run"
	default:
		return ""
	}
}

// recordCounts renders a record's counters in the wire format
func recordCounts(r *reconciler.Record) string {
	if r == nil {
		return "-"
	}
	return fmt.Sprintf("[%d/%d/%d]", r.Passed, r.Failed, r.Total)
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
