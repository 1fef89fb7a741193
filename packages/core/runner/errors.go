package runner

import (
	"errors"
	"fmt"
	"io/fs"
)

// Error kinds recorded on a CheckResult.
const (
	KindAssertion    = "assertion"
	KindHTTP         = "http"
	KindTransport    = "transport"
	KindFilesystem   = "filesystem"
	KindPrerequisite = "prerequisite"
	KindShape        = "shape"
	KindPanic        = "panic"
	KindError        = "error"
)

// PrerequisiteError reports that a check needed a value no earlier check
// stored, usually because that earlier check failed.
type PrerequisiteError struct {
	Key    string
	Reason string
}

func (e *PrerequisiteError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("prerequisite %q %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("prerequisite %q is not available", e.Key)
}

func (e *PrerequisiteError) Kind() string {
	return KindPrerequisite
}

// PanicError wraps a value recovered from a panicking check.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Kind() string {
	return KindPanic
}

// FatalError is returned by Run when a check failure stops the whole run.
type FatalError struct {
	Check string
	Err   error
}

func (e *FatalError) Error() string {
	return e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

type kinded interface {
	Kind() string
}

// Classify names the kind of a check failure.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return KindFilesystem
	}
	return KindError
}
