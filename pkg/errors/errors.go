// Package errors provides structured error types for stackscan.
//
// Errors carry a machine-readable [Code] so that callers can tell the
// scan-level failure categories apart without string matching:
//   - INVALID_*: malformed input (nil file maps, unparsable manifests)
//   - UNSUPPORTED: no extractor is registered for a file
//   - NETWORK_ERROR / TIMEOUT: outbound probes and registry lookups
//   - IDENTITY: a package URL could not be built for a dependency
//   - NOT_FOUND / INTERNAL_ERROR: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidManifest, "no <project> root in %s", path)
//	if errors.Is(err, errors.ErrCodeInvalidManifest) {
//	    // skip the entry
//	}
//
//	err = errors.Wrap(errors.ErrCodeTimeout, origErr, "probe %s", url)
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for the failure categories a scan can report.
const (
	// Input validation errors
	ErrCodeInvalidInput    Code = "INVALID_INPUT"
	ErrCodeInvalidManifest Code = "INVALID_MANIFEST"
	ErrCodeInvalidPath     Code = "INVALID_PATH"
	ErrCodeInvalidConfig   Code = "INVALID_CONFIG"

	// Resource errors
	ErrCodeNotFound    Code = "NOT_FOUND"
	ErrCodeUnsupported Code = "UNSUPPORTED"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Component identity errors
	ErrCodeIdentity Code = "IDENTITY"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Tally counts the failures aggregated in err (see multierr) by code.
// Failures without a code count as [ErrCodeInternal].
func Tally(err error) map[Code]int {
	counts := make(map[Code]int)
	for _, e := range multierr.Errors(err) {
		code := GetCode(e)
		if code == "" {
			code = ErrCodeInternal
		}
		counts[code]++
	}
	return counts
}

// Summary renders [Tally] as "2 INVALID_MANIFEST, 1 TIMEOUT", most
// frequent first. It returns "" for a nil error.
func Summary(err error) string {
	counts := Tally(err)
	codes := make([]Code, 0, len(counts))
	for c := range counts {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool {
		if counts[codes[i]] != counts[codes[j]] {
			return counts[codes[i]] > counts[codes[j]]
		}
		return codes[i] < codes[j]
	})
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fmt.Sprintf("%d %s", counts[c], c)
	}
	return strings.Join(parts, ", ")
}
