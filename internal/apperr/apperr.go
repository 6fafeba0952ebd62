package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into one of the recoverable categories surfaced
// to callers. Every category maps to a distinct HTTP status.
type Kind string

const (
	KindValidation Kind = "validation"
	KindPermission Kind = "permission"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
)

// Reason codes carried alongside the human message.
const (
	ReasonInvalidInput      = "invalid_input"
	ReasonInvalidTransition = "invalid_transition"
	ReasonForbidden         = "forbidden"
	ReasonNoCarpets         = "no_carpets"
	ReasonAlreadyInvoiced   = "already_invoiced"
	ReasonNotEligibleStatus = "not_eligible_status"
	ReasonHasPayments       = "has_payments"
	ReasonCommissionExists  = "commission_exists"
	ReasonCommissionPaid    = "commission_paid"
	ReasonInvoicePaid       = "invoice_paid"
	ReasonOrderLocked       = "order_locked"
	ReasonNotFound          = "not_found"
)

// Error is a machine-readable application error: a category, a stable reason
// code, and a human message. It supports errors.Is/As and %w wrapping.
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Reason so sentinel-style comparisons work.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && (t.Reason == "" || e.Reason == t.Reason)
}

// HTTPStatus maps the error category to its transport status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindPermission:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func Validation(reason, msg string) *Error {
	return &Error{Kind: KindValidation, Reason: reason, Message: msg}
}

func Permission(reason, msg string) *Error {
	return &Error{Kind: KindPermission, Reason: reason, Message: msg}
}

func Conflict(reason, msg string) *Error {
	return &Error{Kind: KindConflict, Reason: reason, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Reason: ReasonNotFound, Message: msg}
}

// Wrap attaches an underlying cause to an application error.
func Wrap(err *Error, cause error) *Error {
	e := *err
	e.Err = cause
	return &e
}

// From extracts an *Error from err, or nil when err is not one.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
