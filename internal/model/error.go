package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorResponse is the error body exchanged with the backend. Detail is
// usually a string but validation failures may carry a list of objects.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// Message flattens Detail into a single human-readable string.
func (e ErrorResponse) Message() string {
	if len(e.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(e.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(e.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	if string(e.Detail) == "null" {
		return ""
	}
	return string(e.Detail)
}

// NewErrorResponse builds an error body carrying a string detail.
func NewErrorResponse(detail string) ErrorResponse {
	raw, _ := json.Marshal(detail)
	return ErrorResponse{Detail: raw}
}

// Standard error codes used by the order backend.
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeMissingField         = "MISSING_FIELD"
	ErrCodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	ErrCodeUnknownBook          = "UNKNOWN_BOOK"
	ErrCodePriceMismatch        = "PRICE_MISMATCH"
	ErrCodeInvalidQuantity      = "INVALID_QUANTITY"
	ErrCodeSessionNotFound      = "SESSION_NOT_FOUND"
	ErrCodeInvalidCode          = "INVALID_CODE"
	ErrCodeTooManyAttempts      = "TOO_MANY_ATTEMPTS"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// DomainError is a business rule violation raised by the backend services.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrUnknownBook          = NewDomainError(ErrCodeUnknownBook, "one or more books are not in the catalogue")
	ErrPriceMismatch        = NewDomainError(ErrCodePriceMismatch, "book prices do not match the catalogue")
	ErrInvalidQuantity      = NewDomainError(ErrCodeInvalidQuantity, "quantity must be greater than zero")
	ErrInvalidPaymentMethod = NewDomainError(ErrCodeInvalidPaymentMethod, "payment method must be cash_on_delivery, bkash or nagad")
	ErrSessionNotFound      = NewDomainError(ErrCodeSessionNotFound, "verification session expired or not found")
	ErrInvalidCode          = NewDomainError(ErrCodeInvalidCode, "invalid code")
	ErrTooManyAttempts      = NewDomainError(ErrCodeTooManyAttempts, "too many failed attempts, request a new code")
	ErrOrderNotFound        = NewDomainError(ErrCodeOrderNotFound, "order not found")
)

// Client-side protocol errors.
var (
	// ErrExpiredSession is returned when a code is submitted after the
	// locally computed expiry. No request is sent.
	ErrExpiredSession = errors.New("verification session expired")

	// ErrBusy is returned when a write operation is already in flight.
	ErrBusy = errors.New("another order operation is in progress")

	// ErrInvalidState is returned when an operation is not allowed in the
	// current state.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrSuperseded is returned for a response that arrived after its
	// session was cancelled or replaced; the response is discarded.
	ErrSuperseded = errors.New("response discarded: session superseded")
)

// ValidationError reports bad local input caught before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// TransportError reports a network failure or an unreadable response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BackendRejection reports a non-2xx response from the backend.
type BackendRejection struct {
	Status int
	Detail string
}

func (e *BackendRejection) Error() string {
	return e.Detail
}

// TransportReason is the user-facing reason for any TransportError.
const TransportReason = "network error occurred"

// Reason renders err as the reason shown to the user.
func Reason(err error) string {
	if err == nil {
		return ""
	}

	var rejection *BackendRejection
	if errors.As(err, &rejection) {
		return rejection.Detail
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Message
	}

	var transport *TransportError
	if errors.As(err, &transport) {
		return TransportReason
	}

	if errors.Is(err, ErrExpiredSession) {
		return "verification code expired, request a new one"
	}

	return err.Error()
}
