package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindAlreadyProcessed  Kind = "already_processed"
	KindPaymentGateway    Kind = "payment_gateway"
	KindPersistence       Kind = "persistence"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindInternal          Kind = "internal"
)

// Error carries a business classification alongside the underlying cause.
// Sentinel values are compared with errors.Is and may be wrapped with
// fmt.Errorf("%w: ...") to add context.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Wrap(kind Kind, code string, err error) *Error {
	return &Error{Kind: kind, Code: code, Err: err}
}

// KindOf reports the kind of the outermost *Error in err's chain, or
// KindInternal when err carries no classification.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInsufficientStock, KindAlreadyProcessed:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the caller may safely repeat the operation.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindPaymentGateway, KindPersistence:
		return true
	default:
		return false
	}
}
