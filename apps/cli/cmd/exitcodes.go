package cmd

import "errors"

// Exit codes for the branchspec CLI
const (
	// ExitSuccess indicates every check passed
	ExitSuccess = 0

	// ExitFailure covers failed checks, fatal errors and invalid input alike
	ExitFailure = 1
)

// errChecksFailed is returned by run after the report has been written, so
// Execute exits non-zero without printing anything else.
var errChecksFailed = errors.New("one or more checks failed")
