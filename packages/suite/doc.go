// Package suite loads declarative check suites from YAML files.
//
// A suite names a repository and lists checks. Each check reads exactly one
// source (a branch, a comparison, a commit or a local file) and evaluates
// a list of expectations against it with the assertions package.
//
// Sources and expected values may reference {{variables}} and values that
// earlier checks captured. References resolve when the check runs.
package suite
