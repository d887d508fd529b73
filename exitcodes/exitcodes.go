// Package exitcodes defines the standard exit codes used by wptharness.
package exitcodes

// Exit code constants used by wptharness
// These constants define the exit codes that the application uses to indicate
// various states when it exits:
//
// * Success (0): Used when every result matched the recorded expectations
// * Unexpected (1): Used when one or more results were unexpected (regressed, new or missing)
// * RuntimeErr (2): Used for runtime errors such as panics, a missing runner binary or bad configuration
const (
	Success    = 0 // All results matched expectations
	Unexpected = 1 // Unexpected results
	RuntimeErr = 2 // Runtime errors or misconfiguration
)
