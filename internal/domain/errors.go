package domain

import "fmt"

// Error types for consistent error handling across the ledger client.

// NetworkErrorMessage is the user-facing text for any transport failure.
const NetworkErrorMessage = "Network error. Is the backend running?"

// ErrNetwork indicates the backend could not be reached at all
// (DNS, connection refused, open circuit breaker).
type ErrNetwork struct {
	Err error
}

func (e *ErrNetwork) Error() string {
	return NetworkErrorMessage
}

func (e *ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrHTTP indicates the backend answered with a non-2xx status.
// Message is already in display form.
type ErrHTTP struct {
	Status  int
	Message string
}

func (e *ErrHTTP) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Request failed (%d)", e.Status)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUnauthorized indicates there is no usable session.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrSubmitting is returned when a form is submitted while a previous
// submission is still in flight.
type ErrSubmitting struct{}

func (e *ErrSubmitting) Error() string {
	return "a submission is already in progress"
}

// ErrUnexpectedResponse indicates a 2xx response that did not carry the
// payload the operation needs.
type ErrUnexpectedResponse struct {
	Operation string
	Err       error // decode failure, nil when the body was empty
}

func (e *ErrUnexpectedResponse) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected response from %s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("unexpected empty response from %s", e.Operation)
}

func (e *ErrUnexpectedResponse) Unwrap() error {
	return e.Err
}
