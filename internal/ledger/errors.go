package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a service error so the transport layer can map it to a
// response without matching on message text.
type Kind int

const (
	KindUnexpected Kind = iota
	KindNotFound
	KindForbidden
	KindValidation
	KindConflict
)

// FieldError describes a single failed validation constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Error is the closed error type produced by the service layer.
type Error struct {
	Kind   Kind
	Msg    string
	Fields []FieldError
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound returns a KindNotFound error.
func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Msg: msg} }

// Forbidden returns a KindForbidden error.
func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Msg: msg} }

// Conflict returns a KindConflict error.
func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Msg: msg} }

// Validation returns a KindValidation error with optional per-field detail.
func Validation(msg string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Fields: fields}
}

// Unexpected wraps an internal failure. The message is safe to show to a
// caller; the wrapped cause is for logs only.
func Unexpected(msg string, err error) *Error {
	return &Error{Kind: KindUnexpected, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, or KindUnexpected for anything outside
// the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// Well-known error values. Stores and services return these exact values so
// callers can test with errors.Is.
var (
	ErrUserNotFound           = NotFound("user not found")
	ErrAccountNotFound        = NotFound("account not found")
	ErrTransactionNotFound    = NotFound("transaction not found")
	ErrForbidden              = Forbidden("caller does not own this resource")
	ErrInsufficientFunds      = Conflict("insufficient funds")
	ErrAccountHasTransactions = Conflict("account has transactions")
	ErrUserHasAccounts        = Conflict("user has open accounts")
	ErrDuplicateAccountNumber = Conflict("account number already allocated")
	ErrAllocationExhausted    = Conflict("account number allocation retries exhausted")
	ErrEmailTaken             = Conflict("email already registered")
)
