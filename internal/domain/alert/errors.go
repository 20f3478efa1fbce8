package alert

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks client input errors. Nothing is mutated.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks submissions that lost the arbitration.
	ErrConflict = errors.New("alert already decided")
	// ErrDelivery marks downstream notification failures.
	ErrDelivery = errors.New("delivery failed")
)

// ValidationError describes missing or invalid input.
type ValidationError struct {
	// Field is the offending input name.
	Field string
	// Message is shown to the client as is.
	Message string
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) work.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ConflictError is returned when the alert was already accepted by someone.
type ConflictError struct {
	// Winner is the responder whose acceptance was committed.
	Winner string
}

func (e *ConflictError) Error() string {
	return "Request already accepted by " + e.Winner
}

// Is makes errors.Is(err, ErrConflict) work.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// DeliveryError wraps a failure to reach a notification target.
type DeliveryError struct {
	// Target is the observer, phone number or sink that failed.
	Target string
	// Err is the underlying cause.
	Err error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to %s: %v", e.Target, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrDelivery) work.
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDelivery
}
