// Package errors provides structured error types for uptix.
//
// All failures surfaced by the engine belong to a single closed set of
// [Code] values so callers can branch on the kind of failure without
// parsing message text:
//   - Declaration errors: UNEXPECTED_ARGUMENT, INVALID_DECLARATION, SYNTAX
//   - Protocol errors: NETWORK_ERROR, TIMEOUT, UNAUTHORIZED, REGISTRY_ERROR,
//     DIGEST_NOT_FOUND, HASH_TOOL
//   - Payload errors: PAYLOAD
//   - Usage errors: NOT_FOUND, USAGE, INVALID_REFERENCE
//   - I/O errors: IO_ERROR, LOCK_CORRUPT
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidReference, "invalid image reference %q", name)
//	if errors.Is(err, errors.ErrCodeInvalidReference) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Declaration errors
	ErrCodeUnexpectedArgument Code = "UNEXPECTED_ARGUMENT"
	ErrCodeInvalidDeclaration Code = "INVALID_DECLARATION"
	ErrCodeSyntax             Code = "SYNTAX"

	// Usage errors
	ErrCodeInvalidReference Code = "INVALID_REFERENCE"
	ErrCodeNotFound         Code = "NOT_FOUND"
	ErrCodeUsage            Code = "USAGE"

	// Registry and API protocol errors
	ErrCodeNetwork        Code = "NETWORK_ERROR"
	ErrCodeTimeout        Code = "TIMEOUT"
	ErrCodeUnauthorized   Code = "UNAUTHORIZED"
	ErrCodeRegistry       Code = "REGISTRY_ERROR"
	ErrCodeDigestNotFound Code = "DIGEST_NOT_FOUND"
	ErrCodeHashTool       Code = "HASH_TOOL"

	// Payload errors
	ErrCodePayload Code = "PAYLOAD"

	// I/O errors
	ErrCodeIO          Code = "IO_ERROR"
	ErrCodeLockCorrupt Code = "LOCK_CORRUPT"

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

// coder is implemented by error types that carry their own code
// without being an *Error.
type coder interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for the outermost coded error.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if no error in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coder:
			return e.Code()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}

// Position is a byte span inside a source file.
type Position struct {
	Offset int
	Length int
}

// ArgumentError reports a recognized declaration function called with an
// argument of the wrong shape.
type ArgumentError struct {
	Function    string   // e.g. "uptix.dockerImage"
	File        string   // path of the offending source file
	Source      string   // full contents of File
	ArgumentPos Position // span of the offending argument node
	Expected    string   // expected node kind, e.g. "NODE_STRING"
	Help        string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("unexpected argument for %s in %s at offset %d: expected %s",
		e.Function, e.File, e.ArgumentPos.Offset, e.Expected)
}

// Code returns the error code for this error type.
func (e *ArgumentError) Code() Code {
	return ErrCodeUnexpectedArgument
}

// Span returns the offending bytes of Source.
func (e *ArgumentError) Span() string {
	end := e.ArgumentPos.Offset + e.ArgumentPos.Length
	if e.ArgumentPos.Offset < 0 || end > len(e.Source) {
		return ""
	}
	return e.Source[e.ArgumentPos.Offset:end]
}

// LineCol converts the argument offset into a 1-based line and column.
func (e *ArgumentError) LineCol() (line, col int) {
	return LineCol(e.Source, e.ArgumentPos.Offset)
}

// LineCol converts a byte offset in src into a 1-based line and column.
func LineCol(src string, offset int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
