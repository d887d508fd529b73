package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "WPTHARNESS"

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	TestDir = &cli.StringFlag{
		Name:     "testdir",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVar("TESTDIR"),
		Usage:    "Path to the test directory from which to discover tests",
	}
	RunnerBinary = &cli.StringFlag{
		Name:     "runner-binary",
		Value:    "",
		Required: true,
		EnvVars:  prefixEnvVar("RUNNER_BINARY"),
		Usage:    "Path to the browser/runtime binary invoked as '<binary> <url> [flags...]'",
	}
	RunnerArg = &cli.StringSliceFlag{
		Name:    "runner-arg",
		EnvVars: prefixEnvVar("RUNNER_ARG"),
		Usage:   "Extra flag passed to the runner binary after the URL (repeatable)",
	}
	URLBase = &cli.StringFlag{
		Name:    "url-base",
		Value:   "/",
		EnvVars: prefixEnvVar("URL_BASE"),
		Usage:   "URL prefix the test tree is served under",
	}
	ServeURL = &cli.StringFlag{
		Name:    "serve-url",
		Value:   "http://127.0.0.1:8000",
		EnvVars: prefixEnvVar("SERVE_URL"),
		Usage:   "Base URL the browser under test reaches the content server at",
	}
	Expectations = &cli.StringFlag{
		Name:    "expectations",
		Value:   "expectations",
		EnvVars: prefixEnvVar("EXPECTATIONS"),
		Usage:   "Directory holding expected_<module>.txt baseline files",
	}
	LinePrefix = &cli.StringFlag{
		Name:    "line-prefix",
		Value:   "wpt",
		EnvVars: prefixEnvVar("LINE_PREFIX"),
		Usage:   "Tag carried by structured result lines, e.g. '[wpt] [1/0/1] name'",
	}
	WebdriverGlob = &cli.StringFlag{
		Name:    "webdriver-glob",
		Value:   "*.py",
		EnvVars: prefixEnvVar("WEBDRIVER_GLOB"),
		Usage:   "Filename glob for WebDriver spec tests under webdriver/",
	}
	Update = &cli.BoolFlag{
		Name:    "update",
		Value:   false,
		EnvVars: prefixEnvVar("UPDATE"),
		Usage:   "Overwrite recorded expectations with this run's results instead of reconciling",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVar("RUN_INTERVAL"),
		Usage:   "Interval between runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: prefixEnvVar("LOGDIR"),
		Usage:   "Directory to store captured runner output",
	}
	LogLevel = &cli.StringFlag{
		Name:    "log-level",
		Value:   "info",
		EnvVars: prefixEnvVar("LOG_LEVEL"),
		Usage:   "Log level (debug, info, warn, error)",
	}
)

var requiredFlags = []cli.Flag{
	TestDir,
	RunnerBinary,
}

var optionalFlags = []cli.Flag{
	RunnerArg,
	URLBase,
	ServeURL,
	Expectations,
	LinePrefix,
	WebdriverGlob,
	Update,
	RunInterval,
	LogDir,
	LogLevel,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
