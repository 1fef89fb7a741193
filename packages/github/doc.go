// Package github reads branch, compare and commit resources from the GitHub
// REST API. Responses are validated against JSON schemas before decoding so
// that a malformed payload fails with a ShapeError naming the missing fields.
package github
