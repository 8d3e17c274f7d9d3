package models

import (
	"errors"
	"fmt"
)

// ErrSlotTaken is returned when a booking insert loses the race for a
// date+time slot, or when a gate re-check finds the slot no longer
// available.
var ErrSlotTaken = errors.New("selected time slot is no longer available")

// ValidationError reports a missing or invalid field at a wizard step.
// It never escapes the step it was raised in.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// PaymentErrorReason classifies payment authorization failures
type PaymentErrorReason string

const (
	PaymentDeclined          PaymentErrorReason = "declined"
	PaymentInvalidInstrument PaymentErrorReason = "invalid_instrument"
	PaymentNetworkFailure    PaymentErrorReason = "network_failure"
)

// PaymentError reports a failed payment authorization. The draft is
// retained and the caller may resubmit.
type PaymentError struct {
	Reason  PaymentErrorReason
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("payment failed (%s): %s", e.Reason, e.Message)
	}
	return fmt.Sprintf("payment failed (%s)", e.Reason)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a store write failure after a successful
// payment authorization. The payment has already been authorized, so
// the caller must be told explicitly and may retry.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save booking: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
