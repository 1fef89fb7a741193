// Package cmd implements the branchspec CLI commands using Cobra.
//
// Available commands:
//   - run: Execute built-in scenarios and suite files against the API
//   - list: Display scenarios, suites and their checks
//   - validate: Check the configuration and suite files without requests
//   - init: Write a default configuration and an example suite
//   - version: Show branchspec version information
//   - completion: Generate shell completion scripts
//
// Flags override BRANCHSPEC_* environment variables, which override the
// config file.
// The run command exits 1 when any check fails or the run is aborted.
package cmd
