package reconciler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/webcompat/wptharness/logging"
	"github.com/webcompat/wptharness/metrics"
)

// Module is one runnable unit: a named test page the runner binary is pointed
// at. Its structured output is reconciled against expected_<name>.txt.
type Module struct {
	Name string
	URL  string
}

// ModuleRunner runs a set of modules and reconciles their results.
type ModuleRunner interface {
	RunAll(ctx context.Context, modules []Module, update bool) (*RunResult, error)
}

// Config holds configuration for creating a new runner.
type Config struct {
	Binary          string   // Path to the runner (browser) binary
	BinaryArgs      []string // Extra flags passed after the URL
	ExpectationsDir string   // Directory holding expected_<module>.txt files
	LinePrefix      string   // Structured result line prefix
	Log             *slog.Logger
	FileLogger      *logging.FileLogger // Stores captured module output
}

// runner implements ModuleRunner.
type runner struct {
	cfg    Config
	parser *LineParser
	tracer trace.Tracer
	runID  string
}

// NewRunner creates a module runner. The runner binary must be resolvable on
// disk; without a working binary no result is meaningful, so a missing one is
// an immediate error rather than a per-module failure.
func NewRunner(cfg Config) (ModuleRunner, error) {
	if cfg.Binary == "" {
		return nil, fmt.Errorf("runner binary is required")
	}
	if cfg.ExpectationsDir == "" {
		return nil, fmt.Errorf("expectations directory is required")
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
		cfg.Log.Error("No logger provided, using default")
	}

	if _, err := exec.LookPath(cfg.Binary); err != nil {
		return nil, fmt.Errorf("runner binary not found: %w", err)
	}

	cfg.Log.Debug("NewRunner()", "binary", cfg.Binary, "args", cfg.BinaryArgs,
		"expectationsDir", cfg.ExpectationsDir, "linePrefix", cfg.LinePrefix)

	return &runner{
		cfg:    cfg,
		parser: NewLineParser(cfg.LinePrefix),
		tracer: otel.Tracer("module runner"),
	}, nil
}

// RunAll implements the ModuleRunner interface. In update mode the persisted
// expectations are overwritten with the current results and no comparison is
// made; otherwise each module is reconciled against its baseline. A spawn
// failure aborts the whole run immediately: no partial results are reported.
func (r *runner) RunAll(ctx context.Context, modules []Module, update bool) (*RunResult, error) {
	if r.cfg.FileLogger != nil {
		r.runID = r.cfg.FileLogger.GetRunID()
	} else {
		r.runID = uuid.New().String()
	}
	defer func() {
		r.runID = ""
	}()

	start := time.Now()
	r.cfg.Log.Debug("Running all modules", "run_id", r.runID, "modules", len(modules), "update", update)

	result := &RunResult{
		RunID:  r.runID,
		Status: RunStatusPass,
		Stats:  RunStats{StartTime: start},
	}

	for _, module := range modules {
		summary, err := r.processModule(ctx, module, update)
		if err != nil {
			return nil, fmt.Errorf("processing module %s: %w", module.Name, err)
		}
		result.Modules = append(result.Modules, summary)
		result.Stats.TestsRun += summary.TestsRun
		result.Stats.OK += summary.OK
		result.Stats.Unexpected += summary.Unexpected
	}

	if result.Stats.Unexpected > 0 {
		result.Status = RunStatusFail
	}
	result.Duration = time.Since(start)
	result.Stats.EndTime = time.Now()
	return result, nil
}

// processModule runs one module and reconciles (or records) its results.
func (r *runner) processModule(ctx context.Context, module Module, update bool) (ModuleSummary, error) {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("module %s", module.Name))
	defer span.End()

	start := time.Now()
	records, raw, err := r.runModule(ctx, module)
	if err != nil {
		return ModuleSummary{}, err
	}

	if r.cfg.FileLogger != nil {
		if err := r.cfg.FileLogger.WriteModuleOutput(module.Name, raw); err != nil {
			r.cfg.Log.Warn("Failed to store module output", "module", module.Name, "error", err)
		}
	}

	expectationFile := ExpectationPath(r.cfg.ExpectationsDir, module.Name)

	if update {
		if err := WriteExpectations(expectationFile, records); err != nil {
			return ModuleSummary{}, err
		}
		r.cfg.Log.Info("Updated expectations", "module", module.Name, "tests", len(records))
		return ModuleSummary{
			Module:      module.Name,
			TestsRun:    len(records),
			OK:          len(records),
			PassPercent: passPercent(records),
			Duration:    time.Since(start),
		}, nil
	}

	expected, err := LoadExpectations(expectationFile, r.parser)
	if err != nil {
		return ModuleSummary{}, err
	}

	summary := Reconcile(module.Name, records, expected)
	summary.Duration = time.Since(start)

	for _, mismatch := range summary.Mismatches {
		metrics.RecordReconciliation(r.runID, module.Name, mismatch.Name, string(mismatch.Outcome))
	}

	r.cfg.Log.Info("Module reconciled",
		"module", module.Name,
		"tests", summary.TestsRun,
		"unexpected", summary.Unexpected,
		"pass_percent", fmt.Sprintf("%.1f", summary.PassPercent))
	return summary, nil
}

// runModule spawns the runner binary against the module URL and consumes its
// stdout line by line until EOF. Only one child process is active at a time.
func (r *runner) runModule(ctx context.Context, module Module) (map[string]Record, []byte, error) {
	args := append([]string{module.URL}, r.cfg.BinaryArgs...)
	cmd := exec.CommandContext(ctx, r.cfg.Binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("opening runner stdout: %w", err)
	}

	r.cfg.Log.Info("Running module", "module", module.Name, "url", module.URL)
	r.cfg.Log.Debug("Running module command", "command", cmd.String())

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("spawning runner: %w", err)
	}

	// Parse while the child writes; raw tees off a copy for the file logger.
	var raw bytes.Buffer
	records, parseErr := r.parser.ParseAll(io.TeeReader(stdout, &raw))

	if err := cmd.Wait(); err != nil {
		// The browser's exit status is not part of the contract; the
		// structured lines are. Surface it but keep the parsed results.
		r.cfg.Log.Warn("Runner exited with error", "module", module.Name,
			"error", err, "stderr", stderr.String())
	}
	if parseErr != nil {
		return nil, nil, parseErr
	}
	return records, raw.Bytes(), nil
}
