package harness

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/webcompat/wptharness/flags"
)

// Config holds the application configuration
type Config struct {
	TestDir         string        // Root of the test tree to discover from
	URLBase         string        // URL prefix the tree is served under
	ServeURL        string        // Base URL the runner reaches the content server at
	ExpectationsDir string        // Directory holding expected_<module>.txt files
	RunnerBinary    string        // Browser/runtime binary
	RunnerArgs      []string      // Extra flags passed to the runner after the URL
	LinePrefix      string        // Structured result line prefix
	WebdriverGlob   string        // Filename glob for WebDriver spec tests
	RunInterval     time.Duration // Interval between runs
	RunOnce         bool          // Indicates if the service should exit after one run
	Update          bool          // Overwrite expectations instead of reconciling
	LogDir          string        // Directory to store captured runner output
	Log             *slog.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log *slog.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	testDir := ctx.String(flags.TestDir.Name)
	if testDir == "" {
		return nil, errors.New("test directory is required")
	}
	absTestDir, err := filepath.Abs(testDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for test directory '%s': %w", testDir, err)
	}

	runnerBinary := ctx.String(flags.RunnerBinary.Name)
	if runnerBinary == "" {
		return nil, errors.New("runner binary is required")
	}

	expectationsDir := ctx.String(flags.Expectations.Name)
	if expectationsDir == "" {
		expectationsDir = "expectations"
	}
	expectationsDir, err = filepath.Abs(expectationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for expectations directory: %w", err)
	}

	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}
	logDir, err = filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	return &Config{
		TestDir:         absTestDir,
		URLBase:         ctx.String(flags.URLBase.Name),
		ServeURL:        ctx.String(flags.ServeURL.Name),
		ExpectationsDir: expectationsDir,
		RunnerBinary:    runnerBinary,
		RunnerArgs:      ctx.StringSlice(flags.RunnerArg.Name),
		LinePrefix:      ctx.String(flags.LinePrefix.Name),
		WebdriverGlob:   ctx.String(flags.WebdriverGlob.Name),
		RunInterval:     runInterval,
		RunOnce:         runOnce,
		Update:          ctx.Bool(flags.Update.Name),
		LogDir:          logDir,
		Log:             log,
	}, nil
}
