// Package harness ties discovery, execution and reconciliation together: it
// builds the manifest for a test tree, resolves each item's metadata into a
// runnable test, and drives the module runner either once or on an interval.
package harness

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/webcompat/wptharness/exitcodes"
	"github.com/webcompat/wptharness/logging"
	"github.com/webcompat/wptharness/manifest"
	"github.com/webcompat/wptharness/metrics"
	"github.com/webcompat/wptharness/reconciler"
	"github.com/webcompat/wptharness/wpttest"
)

// Harness discovers tests and runs them against recorded expectations.
type Harness struct {
	ctx        context.Context
	config     *Config
	version    string
	items      []manifest.Item
	tests      map[string]*wpttest.Test
	modules    []reconciler.Module
	runner     reconciler.ModuleRunner
	fileLogger *logging.FileLogger
	result     *reconciler.RunResult

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Harness, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating harness with config",
		"testDir", config.TestDir,
		"expectationsDir", config.ExpectationsDir,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"update", config.Update)

	classifier := manifest.NewClassifier()
	if config.WebdriverGlob != "" {
		classifier.WebdriverGlob = config.WebdriverGlob
	}

	builder := manifest.NewBuilder(config.TestDir, config.URLBase, classifier, config.Log)
	items, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build manifest: %w", err)
	}

	tests, modules, err := assembleModules(config, items)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble modules: %w", err)
	}
	config.Log.Info("harness.New: discovered tests",
		"items", len(items), "runnable", len(modules))

	fileLogger, err := logging.NewFileLogger(config.LogDir, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}

	moduleRunner, err := reconciler.NewRunner(reconciler.Config{
		Binary:          config.RunnerBinary,
		BinaryArgs:      config.RunnerArgs,
		ExpectationsDir: config.ExpectationsDir,
		LinePrefix:      config.LinePrefix,
		Log:             config.Log,
		FileLogger:      fileLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create module runner: %w", err)
	}

	return &Harness{
		ctx:              ctx,
		config:           config,
		version:          version,
		items:            items,
		tests:            tests,
		modules:          modules,
		runner:           moduleRunner,
		fileLogger:       fileLogger,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// assembleModules resolves each manifest item into a runnable test with its
// metadata chain applied. Only testharness tests and reftests become runner
// modules; manual, wdspec and stub items are discovered but not executed.
// Disabled tests are dropped here with the reason logged.
func assembleModules(config *Config, items []manifest.Item) (map[string]*wpttest.Test, []reconciler.Module, error) {
	tests := make(map[string]*wpttest.Test)
	var modules []reconciler.Module

	serveBase := strings.TrimRight(config.ServeURL, "/")

	for _, item := range items {
		rel, err := filepath.Rel(config.TestDir, item.Path())
		if err != nil {
			return nil, nil, fmt.Errorf("test path %s outside tree: %w", item.Path(), err)
		}

		inherit, err := wpttest.LoadChain(config.TestDir, rel)
		if err != nil {
			return nil, nil, err
		}

		// The classifier yields TestharnessTest by value and RefTest by
		// pointer; both cases must match those shapes exactly.
		var timeoutClass string
		switch it := item.(type) {
		case manifest.TestharnessTest:
			timeoutClass = it.Timeout
		case *manifest.RefTest:
			timeoutClass = it.Timeout
		}

		t := wpttest.NewTest(testKind(item.Kind()), item.URL(), item.Path(), timeoutClass, inherit, wpttest.Metadata{})
		tests[item.URL()] = t

		if item.Kind() != manifest.KindTestharness && item.Kind() != manifest.KindReftest {
			continue
		}
		if reason := t.Disabled(); reason != "" {
			config.Log.Info("Skipping disabled test", "url", item.URL(), "reason", reason)
			continue
		}
		if exp := t.Expected(""); exp != wpttest.StatusOK && exp != wpttest.StatusPass {
			config.Log.Debug("Test carries non-default expectation",
				"url", item.URL(), "expected", string(exp))
		}

		modules = append(modules, reconciler.Module{
			Name: moduleName(item.URL()),
			URL:  serveBase + item.URL(),
		})
	}

	return tests, modules, nil
}

// testKind maps a manifest item kind onto the runtime test kind.
func testKind(k manifest.Kind) wpttest.Kind {
	switch k {
	case manifest.KindReftest:
		return wpttest.KindReftest
	case manifest.KindManual:
		return wpttest.KindManual
	case manifest.KindWdspec:
		return wpttest.KindWdspec
	case manifest.KindStub:
		return wpttest.KindStub
	default:
		return wpttest.KindTestharness
	}
}

// moduleName derives a filesystem-safe module name from a test URL. The name
// keys the expected_<name>.txt baseline file and the per-run log file.
// Folding separators alone can collide distinct URLs, so the original URL is
// pinned with a short hash.
func moduleName(url string) string {
	name := strings.TrimPrefix(url, "/")
	replacer := strings.NewReplacer(
		"/", "_",
		"?", "_",
		"#", "_",
		"=", "_",
		"&", "_",
	)
	h := fnv.New32a()
	h.Write([]byte(url)) //nolint:errcheck
	return fmt.Sprintf("%s-%08x", replacer.Replace(name), h.Sum32())
}

// Start runs the test modules, then either exits (run-once mode) or keeps
// re-running them at the configured interval.
func (h *Harness) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			h.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	h.ctx = ctx
	h.done = make(chan struct{})
	h.running.Store(true)

	if h.config.RunOnce {
		h.config.Log.Info("Starting wptharness in run-once mode")
	} else {
		h.config.Log.Info("Starting wptharness in continuous mode", "interval", h.config.RunInterval)
	}

	// Run modules immediately on startup
	err := h.runModules()
	if err != nil {
		h.config.Log.Error("Runtime error running modules", "error", err)
		return NewRuntimeError(err)
	}

	// If in run-once mode, trigger shutdown and return
	if h.config.RunOnce {
		h.config.Log.Info("Run completed, exiting (run-once mode)")

		if h.result != nil && h.result.Status == reconciler.RunStatusFail {
			h.config.Log.Warn("Run-once completed with unexpected results, returning exit code 1")
			return NewUnexpectedResultsError(h.result.String())
		}

		// Only need to call this when we're in run-once mode and everything matched
		go func() {
			h.shutdownCallback(nil)
		}()
		return nil // Success (exit code 0)
	}

	// Start a goroutine for periodic runs
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.config.Log.Debug("Starting periodic runner goroutine", "interval", h.config.RunInterval)

		for {
			select {
			case <-time.After(h.config.RunInterval):
				if !h.running.Load() {
					h.config.Log.Debug("Service stopped, exiting periodic runner")
					return
				}

				h.config.Log.Info("Running periodic modules")
				if err := h.runModules(); err != nil {
					h.config.Log.Error("Error running periodic modules", "error", err)
				}

			case <-h.done:
				h.config.Log.Debug("Done signal received, stopping periodic runner")
				return

			case <-ctx.Done():
				h.config.Log.Debug("Context canceled, stopping periodic runner")
				h.running.Store(false)
				return
			}
		}
	}()
	h.config.Log.Debug("wptharness started successfully")
	return nil
}

// runModules runs all modules and processes the results
func (h *Harness) runModules() error {
	h.config.Log.Info("Running all modules...")
	result, err := h.runner.RunAll(h.ctx, h.modules, h.config.Update)
	if err != nil {
		// This is a runtime error (not a reconciliation mismatch)
		return err
	}
	h.result = result

	h.printResultsTable(result.RunID)
	fmt.Println(h.result.String())
	if err := h.fileLogger.WriteSummary(h.result.String()); err != nil {
		h.config.Log.Warn("Failed to store run summary", "error", err)
	}
	h.config.Log.Info("Run completed", "run_id", result.RunID, "status", h.result.Status)
	return nil
}

// Stop stops the wptharness service.
func (h *Harness) Stop(ctx context.Context) error {
	h.config.Log.Info("Stopping wptharness")

	if !h.running.Load() {
		h.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	// Update running state first to prevent new runs
	h.running.Store(false)

	h.config.Log.Debug("Sending done signal to goroutines")
	close(h.done)

	h.config.Log.Info("wptharness stopped successfully")
	return nil
}

// Stopped returns true if the wptharness service is stopped.
func (h *Harness) Stopped() bool {
	return !h.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (h *Harness) WaitForShutdown(ctx context.Context) error {
	h.config.Log.Debug("Waiting for all goroutines to terminate")

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.config.Log.Debug("All goroutines terminated successfully")
		return nil
	case <-ctx.Done():
		h.config.Log.Warn("Timed out waiting for goroutines to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}

// printResultsTable prints the reconciliation results to the console.
func (h *Harness) printResultsTable(runID string) {
	h.config.Log.Info("Printing results...")
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Reconciliation Results (%s)", formatDuration(h.result.Duration)))

	t.AppendHeader(table.Row{
		"Type", "ID", "Duration", "Tests", "OK", "Unexpected", "Pass %", "Status", "Details",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "ID", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "OK", Align: text.AlignRight},
		{Name: "Unexpected", Align: text.AlignRight},
		{Name: "Pass %", Align: text.AlignRight},
		{Name: "Details", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, module := range h.result.Modules {
		moduleStatus := reconciler.RunStatusPass
		if module.Unexpected > 0 {
			moduleStatus = reconciler.RunStatusFail
		}

		t.AppendRow(table.Row{
			"Module",
			module.Module,
			formatDuration(module.Duration),
			module.TestsRun,
			module.OK,
			module.Unexpected,
			fmt.Sprintf("%.1f", module.PassPercent),
			getResultString(moduleStatus),
			"",
		})

		for i, mismatch := range module.Mismatches {
			prefix := "├──"
			if i == len(module.Mismatches)-1 {
				prefix = "└──"
			}

			t.AppendRow(table.Row{
				"Test",
				fmt.Sprintf("%s %s", prefix, mismatch.Name),
				"",
				1,
				0,
				1,
				"",
				outcomeLabel(mismatch.Outcome),
				mismatchDetail(mismatch),
			})
		}

		t.AppendSeparator()
	}

	if h.result.Status == reconciler.RunStatusPass {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(h.result.Duration),
		h.result.Stats.TestsRun,
		h.result.Stats.OK,
		h.result.Stats.Unexpected,
		"",
		getResultString(h.result.Status),
		"",
	})

	t.Render()

	// Emit metrics
	metrics.RecordRun(
		runID,
		string(h.result.Status),
		h.result.Stats.TestsRun,
		h.result.Stats.Unexpected,
		h.result.Duration,
	)
}
