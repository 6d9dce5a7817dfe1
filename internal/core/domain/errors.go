package domain

import (
	"errors"
	"strings"
)

var (
	ErrInvalidPhone        = errors.New("please enter a valid phone number")
	ErrLocationUnavailable = errors.New("location permission denied or not available")
	ErrGeocodeFailed       = errors.New("reverse geocoding failed")
	ErrTransport           = errors.New("order service unreachable")
	ErrSubmissionInFlight  = errors.New("order submission already in progress")
	ErrSessionClosed       = errors.New("order session closed")
	ErrProductNotFound     = errors.New("product not found")
)

// DefaultRejectionMessage is used when the backend rejects an order without saying why.
const DefaultRejectionMessage = "Something went wrong"

// ValidationError lists the draft fields that still need a value.
type ValidationError struct {
	Missing []string
}

func (e ValidationError) Error() string {
	return "please fill all required fields: " + strings.Join(e.Missing, ", ")
}

// IsValidation helps callers distinguish local validation from remote failures.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}

// ServerRejectedError carries the backend's error message verbatim.
type ServerRejectedError struct {
	StatusCode int
	Message    string
}

func (e ServerRejectedError) Error() string {
	return e.Message
}
