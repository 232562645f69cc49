package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error. The value is also the "error" field
// of every JSON error body.
type Kind string

const (
	KindNotFound           Kind = "NotFound"
	KindInvalidInput       Kind = "InvalidInput"
	KindInvalidQuantity    Kind = "InvalidQuantity"
	KindInvalidStatus      Kind = "InvalidStatus"
	KindInsufficientStock  Kind = "InsufficientStock"
	KindEmptyCart          Kind = "EmptyCart"
	KindTransactionFailure Kind = "TransactionFailure"
	KindPartialFailure     Kind = "PartialFailure"
	KindConflict           Kind = "Conflict"
	KindUnauthorized       Kind = "Unauthorized"
	KindForbidden          Kind = "Forbidden"
	KindInternal           Kind = "Internal"
)

// Error represents an application error
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so the sentinels
// below can be used with errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a new Error
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound           = New(KindNotFound, "not found", nil)
	ErrInvalidInput       = New(KindInvalidInput, "invalid input", nil)
	ErrInvalidQuantity    = New(KindInvalidQuantity, "quantity must be a positive integer", nil)
	ErrInvalidStatus      = New(KindInvalidStatus, "invalid status provided", nil)
	ErrInsufficientStock  = New(KindInsufficientStock, "insufficient stock", nil)
	ErrEmptyCart          = New(KindEmptyCart, "your cart is empty", nil)
	ErrTransactionFailure = New(KindTransactionFailure, "transaction failed", nil)
	ErrPartialFailure     = New(KindPartialFailure, "partial failure", nil)
	ErrConflict           = New(KindConflict, "conflict", nil)
	ErrUnauthorized       = New(KindUnauthorized, "unauthorized", nil)
	ErrForbidden          = New(KindForbidden, "forbidden", nil)
)

func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

func InvalidInput(message string) *Error {
	return New(KindInvalidInput, message, nil)
}

func Transaction(message string, err error) *Error {
	return New(KindTransactionFailure, message, err)
}

func Partial(message string, err error) *Error {
	return New(KindPartialFailure, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to the status code the API answers with.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput, KindInvalidQuantity, KindInvalidStatus, KindInsufficientStock, KindEmptyCart:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
