package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the bus.
var (
	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrInvalidSubscription is returned for an empty subscriber identity.
	ErrInvalidSubscription = errors.New("invalid subscription")

	// ErrHandlerPanic is matched by PanicError.
	ErrHandlerPanic = errors.New("handler panicked")
)

// HandlerError wraps an error returned by a handler.
type HandlerError struct {
	// SubscriptionID is the identity of the failing subscriber.
	SubscriptionID string

	// Signal is the signal being delivered.
	Signal Signal

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s failed on %s: %v", e.SubscriptionID, e.Signal, e.Err)
}

// Unwrap returns the underlying error.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// PanicError wraps a panic value raised by a handler.
type PanicError struct {
	// SubscriptionID is the identity of the panicking subscriber.
	SubscriptionID string

	// Signal is the signal being delivered.
	Signal Signal

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler %s panicked on %s: %v", e.SubscriptionID, e.Signal, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
