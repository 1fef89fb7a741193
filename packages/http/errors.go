package http

import (
	"errors"
	"fmt"
)

// DefaultErrorBodyLimit is how many bytes of a failed response body are kept
// in an HTTPError.
const DefaultErrorBodyLimit = 200

// TransportError means no HTTP response was received: DNS failure, refused
// connection, timeout or cancellation.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Kind() string {
	return "transport"
}

// HTTPError is a response with a non-2xx status code.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

// NewHTTPError builds an HTTPError from resp, truncating the body.
func NewHTTPError(method, url string, resp *Response) *HTTPError {
	return &HTTPError{
		Method:     method,
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       Truncate(resp.BodyString(), DefaultErrorBodyLimit),
	}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("API returned %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) Kind() string {
	return "http"
}

// IsTransportError reports whether err wraps a TransportError
func IsTransportError(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// StatusCode returns the status of a wrapped HTTPError, or 0
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// Truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
