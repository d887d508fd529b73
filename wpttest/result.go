// Package wpttest contains the runtime test entities shared across the
// harness: tests with resolved configuration, their metadata layers and the
// validated result values produced by a run.
package wpttest

import (
	"fmt"
	"slices"
)

// Status represents the outcome of a test or subtest.
type Status string

const (
	StatusOK              Status = "OK"
	StatusPass            Status = "PASS"
	StatusFail            Status = "FAIL"
	StatusError           Status = "ERROR"
	StatusTimeout         Status = "TIMEOUT"
	StatusExternalTimeout Status = "EXTERNAL-TIMEOUT"
	StatusCrash           Status = "CRASH"
	StatusNotRun          Status = "NOTRUN"
)

// Each result flavor accepts a closed status set. Constructing a result with
// a status outside the set is a logic bug in the producer and fails
// immediately instead of being absorbed.
var (
	harnessStatuses = []Status{
		StatusOK, StatusError, StatusTimeout, StatusExternalTimeout, StatusCrash,
	}
	reftestStatuses = []Status{
		StatusPass, StatusFail, StatusOK, StatusError, StatusTimeout, StatusExternalTimeout, StatusCrash,
	}
	subtestStatuses = []Status{
		StatusPass, StatusFail, StatusError, StatusTimeout, StatusNotRun,
	}
)

// Result is the harness-level outcome of a single test. Results are immutable
// value objects; equality is structural.
type Result struct {
	Status  Status
	Message string
}

// NewHarnessResult builds a testharness-level result.
func NewHarnessResult(status Status, message string) (Result, error) {
	if !slices.Contains(harnessStatuses, status) {
		return Result{}, fmt.Errorf("invalid testharness status %q", status)
	}
	return Result{Status: status, Message: message}, nil
}

// NewReftestResult builds a reftest-level result.
func NewReftestResult(status Status, message string) (Result, error) {
	if !slices.Contains(reftestStatuses, status) {
		return Result{}, fmt.Errorf("invalid reftest status %q", status)
	}
	return Result{Status: status, Message: message}, nil
}

// Equal reports structural equality.
func (r Result) Equal(o Result) bool {
	return r.Status == o.Status && r.Message == o.Message
}

// SubtestResult is the outcome of a single subtest reported by the in-page
// harness.
type SubtestResult struct {
	Name    string
	Status  Status
	Message string
}

// NewSubtestResult builds a subtest result.
func NewSubtestResult(name string, status Status, message string) (SubtestResult, error) {
	if !slices.Contains(subtestStatuses, status) {
		return SubtestResult{}, fmt.Errorf("invalid subtest status %q for %q", status, name)
	}
	return SubtestResult{Name: name, Status: status, Message: message}, nil
}

// Equal reports structural equality.
func (r SubtestResult) Equal(o SubtestResult) bool {
	return r.Name == o.Name && r.Status == o.Status && r.Message == o.Message
}
