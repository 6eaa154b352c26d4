// Package tldrserr defines the stable error taxonomy shared by every
// pipeline component, so boundary code can serialize a single
// {error, code, message, ...details} shape regardless of which package
// raised it.
package tldrserr

import (
	"errors"
	"fmt"
)

// Code is a stable, machine-readable error classification.
type Code string

const (
	// CodeNotFound: an entry point, symbol, session, or blob does not exist.
	CodeNotFound Code = "not_found"
	// CodeAmbiguous: an entry point resolved to more than one symbol.
	CodeAmbiguous Code = "ambiguous"
	// CodeParseError: a language adapter failed to produce a usable AST.
	CodeParseError Code = "parse_error"
	// CodePathTraversal: a path escaped the workspace root.
	CodePathTraversal Code = "path_traversal"
	// CodeInternal: anything else — unexpected I/O, database, or invariant failure.
	CodeInternal Code = "internal"
)

// Error is the concrete error type returned across package boundaries.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, tldrserr.NotFound) style sentinel comparisons
// by comparing codes rather than identity.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func newErr(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a CodeNotFound error.
func NotFound(format string, args ...any) *Error { return newErr(CodeNotFound, format, args...) }

// Ambiguous builds a CodeAmbiguous error, attaching the candidate matches.
func Ambiguous(message string, candidates []string) *Error {
	return &Error{
		Code:    CodeAmbiguous,
		Message: message,
		Details: map[string]any{"candidates": candidates},
	}
}

// ParseError wraps a language-adapter failure as CodeParseError.
func ParseError(path string, cause error) *Error {
	return &Error{
		Code:    CodeParseError,
		Message: fmt.Sprintf("parsing %s: %v", path, cause),
		Err:     cause,
		Details: map[string]any{"path": path},
	}
}

// PathTraversal builds a CodePathTraversal error for an escaping path.
func PathTraversal(path string) *Error {
	return &Error{
		Code:    CodePathTraversal,
		Message: fmt.Sprintf("path escapes workspace root: %s", path),
		Details: map[string]any{"path": path},
	}
}

// Internal wraps an unexpected error as CodeInternal.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Message: cause.Error(), Err: cause}
}

// CodeOf extracts the Code from err if it is (or wraps) a *Error, and
// CodeInternal otherwise.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
