// Package apperrors defines the typed error taxonomy shared by the
// reconciliation service and its HTTP layer. Every failure a caller can see
// carries a stable code plus a human-readable message.
package apperrors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Code identifies a class of failure.
type Code string

const (
	CodeValidation             Code = "validation_error"
	CodeDuplicateRow           Code = "duplicate_row"
	CodeNotFound               Code = "not_found"
	CodeConflict               Code = "conflict"
	CodeBalanceMismatch        Code = "balance_mismatch"
	CodeUnresolvedItems        Code = "unresolved_items"
	CodeInvalidStateTransition Code = "invalid_state_transition"
	// CodeParse is reserved for errors surfaced from the upstream statement
	// extractor; the engine itself never produces it.
	CodeParse Code = "parse_error"
)

// Error is the concrete error type for all application errors.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error, capturing a
// stack trace on the cause. Returns nil if err is nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: errors.WithStack(err)}
}

// CodeOf extracts the Code from err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

func is(err error, code Code) bool {
	return CodeOf(err) == code
}

func IsValidation(err error) bool             { return is(err, CodeValidation) }
func IsDuplicateRow(err error) bool           { return is(err, CodeDuplicateRow) }
func IsNotFound(err error) bool               { return is(err, CodeNotFound) }
func IsConflict(err error) bool               { return is(err, CodeConflict) }
func IsBalanceMismatch(err error) bool        { return is(err, CodeBalanceMismatch) }
func IsUnresolvedItems(err error) bool        { return is(err, CodeUnresolvedItems) }
func IsInvalidStateTransition(err error) bool { return is(err, CodeInvalidStateTransition) }
func IsParse(err error) bool                  { return is(err, CodeParse) }

// HTTPStatus maps an error to the HTTP status code the handlers return.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeValidation, CodeDuplicateRow, CodeParse:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeBalanceMismatch, CodeUnresolvedItems, CodeInvalidStateTransition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
