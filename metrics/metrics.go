package metrics

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "wptharness"
)

var (
	Debug                bool = true
	validOutcomes             = []string{"ok", "regression", "new", "missing"}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	reconciliationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "reconciliations_total",
		Help:      "Count of reconciled test results",
	}, []string{
		"run_id",
		"module",
		"name",
		"outcome",
	})

	runResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_results",
		Help:      "Result of harness runs",
	}, []string{
		"run_id",
		"result",
	})

	runTestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_tests_total",
		Help:      "Total number of tests observed in a run",
	}, []string{
		"run_id",
	})

	runUnexpectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "run_unexpected_total",
		Help:      "Number of unexpected results in a run",
	}, []string{
		"run_id",
	})

	runDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration",
		Help:      "Duration of harness runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		slog.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordReconciliation(runID string, module string, name string, outcome string) {
	if !isValidOutcome(outcome) {
		slog.Error("RecordReconciliation - invalid outcome", "outcome", outcome)
		return
	}
	if Debug {
		slog.Debug("metric inc",
			"m", "reconciliations_total",
			"run_id", runID,
			"module", module,
			"name", name,
			"outcome", outcome)
	}
	reconciliationsTotal.WithLabelValues(runID, module, name, outcome).Inc()
}

func RecordRun(
	runID string,
	result string,
	total int,
	unexpected int,
	duration time.Duration,
) {
	runResults.WithLabelValues(runID, result).Set(1)
	runTestsTotal.WithLabelValues(runID).Add(float64(total))
	runUnexpectedTotal.WithLabelValues(runID).Add(float64(unexpected))
	runDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func isValidOutcome(outcome string) bool {
	return slices.Contains(validOutcomes, outcome)
}
