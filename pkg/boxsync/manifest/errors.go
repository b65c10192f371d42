package manifest

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a stable category of manifest failure.
type ErrorCode string

// Error codes carried by Error values.
const (
	CodeValidation ErrorCode = "validation"
	CodePermission ErrorCode = "permission"
	CodeCorruption ErrorCode = "corruption"
	CodeIO         ErrorCode = "io"
	CodeRecovery   ErrorCode = "recovery"
	CodeInternal   ErrorCode = "internal"
)

// Error is the manifest error type. Every failure surfaced by this package
// carries a stable code plus enough context (directory, file path, or field
// name) to act on without reading the source.
type Error struct {
	// Code is the stable error category.
	Code ErrorCode

	// Path is the directory or file the failure relates to, when known.
	Path string

	// Field is the manifest field the failure relates to, when known.
	Field string

	// Msg describes what went wrong.
	Msg string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var where string
	switch {
	case e.Field != "":
		where = fmt.Sprintf(" (field %q)", e.Field)
	case e.Path != "":
		where = fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s%s: %v", e.Code, e.Msg, where, e.Err)
	}
	return fmt.Sprintf("%s: %s%s", e.Code, e.Msg, where)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// NewValidationError reports a malformed manifest schema.
func NewValidationError(field, msg string) *Error {
	return &Error{Code: CodeValidation, Field: field, Msg: msg}
}

// NewPermissionError reports a manifest storage location that cannot be
// created, read, or written.
func NewPermissionError(path string, err error) *Error {
	return &Error{Code: CodePermission, Path: path, Msg: "cannot access manifest storage", Err: err}
}

// NewCorruptionError reports an unparseable manifest/metadata file or a
// checksum mismatch.
func NewCorruptionError(path, msg string) *Error {
	return &Error{Code: CodeCorruption, Path: path, Msg: msg}
}

// NewIOError reports a contained I/O failure for a specific file.
func NewIOError(path string, err error) *Error {
	return &Error{Code: CodeIO, Path: path, Msg: "i/o failure", Err: err}
}

// hasCode reports whether err is (or wraps) a manifest Error with the code.
func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsPermission reports whether err is a permission error.
func IsPermission(err error) bool { return hasCode(err, CodePermission) }

// IsCorruption reports whether err is a corruption error.
func IsCorruption(err error) bool { return hasCode(err, CodeCorruption) }

// IsIO reports whether err is a contained I/O error.
func IsIO(err error) bool { return hasCode(err, CodeIO) }
