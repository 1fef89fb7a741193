// Package runner executes branchspec checks and records their outcomes.
//
// It provides functionality for:
//   - Running an ordered list of checks against a shared per-run State
//   - Recording each failure with its kind (assertion, http, transport, ...)
//   - Recovering panicking checks so the next check still runs
//   - Filtering checks by name pattern and tags
//   - Stopping early on the first failure (bail) or on transport errors
//
// Checks never touch globals: values one check fetches and later checks
// reuse live in the State passed to every Action.
package runner
