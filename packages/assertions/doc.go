// Package assertions provides check assertion functionality for branchspec.
//
// Supported assertions:
//   - Direct comparisons of values a check already holds (That, Ok)
//   - Status code checks (status == 200)
//   - Header validation (header Content-Type contains json)
//   - JSON path queries over response bodies (commit.sha matches ^[0-9a-f]{40}$)
//   - Substring checks over local file content (content contains 13217)
//   - Length and type checks
//
// Assertions support various operators: equals, contains, exists, matches, in, etc.
// A failed assertion is returned as an *Error so callers can tell an
// expected-versus-actual mismatch apart from a fetch failure.
package assertions
