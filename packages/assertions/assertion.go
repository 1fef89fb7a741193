package assertions

import (
	"errors"
	"fmt"
	"strings"
)

type Assertion struct {
	Subject  string
	Operator Operator
	Expected any
}

type Result struct {
	Passed   bool
	Message  string
	Expected any
	Actual   any
	Subject  string
	Operator string
}

// That compares a value the caller already holds.
func That(subject string, actual any, op Operator, expected any) *Result {
	passed, msg := compare(actual, op, expected)
	result := &Result{
		Passed:   passed,
		Message:  msg,
		Expected: expected,
		Actual:   actual,
		Subject:  subject,
		Operator: op.String(),
	}
	if op == OpLength {
		result.Actual = computeLength(actual)
	}
	return result
}

// Ok records a boolean condition as a result.
func Ok(subject string, cond bool, msg string) *Result {
	r := &Result{Passed: cond, Subject: subject, Operator: "ok", Expected: true, Actual: cond}
	if !cond {
		r.Message = msg
	}
	return r
}

// Err returns nil for a passing result and an *Error otherwise.
func (r *Result) Err() error {
	if r.Passed {
		return nil
	}
	return &Error{Results: []*Result{r}}
}

// Errf is Err with a caller-supplied failure message.
func (r *Result) Errf(format string, args ...any) error {
	if r.Passed {
		return nil
	}
	return &Error{Results: []*Result{r}, Message: fmt.Sprintf(format, args...)}
}

// Error is an expected-versus-actual mismatch.
type Error struct {
	Results []*Result
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	var parts []string
	for _, r := range e.Results {
		if r.Passed {
			continue
		}
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("expected %v, got %v", r.Expected, r.Actual)
		}
		if r.Subject != "" {
			msg = r.Subject + ": " + msg
		}
		parts = append(parts, msg)
	}
	if len(parts) == 0 {
		return "assertion failed"
	}
	return strings.Join(parts, "; ")
}

func (e *Error) Kind() string {
	return "assertion"
}

// Failed returns the failing results carried by the error.
func (e *Error) Failed() []*Result {
	var failed []*Result
	for _, r := range e.Results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// All returns an *Error holding every result when any of them failed.
func All(results ...*Result) error {
	for _, r := range results {
		if !r.Passed {
			return &Error{Results: results}
		}
	}
	return nil
}

// First returns the error of the first failing result, in order.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// IsAssertionError reports whether err wraps an *Error.
func IsAssertionError(err error) bool {
	var assertionErr *Error
	return errors.As(err, &assertionErr)
}

// ResultsOf extracts assertion results from err, if any.
func ResultsOf(err error) []*Result {
	var assertionErr *Error
	if errors.As(err, &assertionErr) {
		return assertionErr.Results
	}
	return nil
}
