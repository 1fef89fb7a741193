// Package http provides the fetch layer used by branchspec checks.
//
// It wraps the standard library's http package with additional features:
//   - Base URL resolution for API paths
//   - Default headers and bearer authentication
//   - Bounded retries with exponential backoff
//   - Client-side rate limiting
//   - Typed transport and HTTP status errors
package http
