package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	harness "github.com/webcompat/wptharness"
	"github.com/webcompat/wptharness/exitcodes"
	"github.com/webcompat/wptharness/flags"
	"github.com/webcompat/wptharness/logging"
	"github.com/webcompat/wptharness/service"
)

var (
	Version   = "v0.3.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "wptharness"
	app.Usage = "Web Platform Test Harness Service"
	app.Description = "wptharness discovers tests in a directory tree, runs them in a browser and reconciles the results against recorded expectations"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			// Use the exit code from the ExitCoder
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			// Check for typed runtime errors
			if harness.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if harness.IsUnexpectedResultsError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.Unexpected))
			} else {
				// For other unspecified errors, default to exit code 1
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.Unexpected))
			}
		}
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "message", err)
		os.Exit(exitcodes.RuntimeErr)
	}
}

func run(cliCtx *cli.Context) error {
	log := logging.NewLogger(logging.ParseLevel(cliCtx.String(flags.LogLevel.Name)))
	logging.SetDefault(log)

	cfg, err := harness.NewConfig(cliCtx, log)
	if err != nil {
		// Wrap in RuntimeError to signal this should exit with code 2
		return harness.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	// Start telemetry
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(cliCtx.App.Name),
		otelconfig.WithServiceVersion(cliCtx.App.Version),
	)
	if err != nil {
		return harness.NewRuntimeError(fmt.Errorf("failed to setup open telemetry: %w", err))
	}
	defer otelShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the sidecar servers, serving the test tree itself on the content port
	svc := service.New(cfg.TestDir)
	svc.Start(ctx)
	defer svc.Shutdown()

	done := make(chan error, 1)
	h, err := harness.New(ctx, cfg, Version, func(err error) { done <- err })
	if err != nil {
		return harness.NewRuntimeError(fmt.Errorf("failed to create harness: %w", err))
	}

	if err := h.Start(ctx); err != nil {
		return err
	}

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.Stop(stopCtx); err != nil {
		return harness.NewRuntimeError(err)
	}
	return h.WaitForShutdown(stopCtx)
}
