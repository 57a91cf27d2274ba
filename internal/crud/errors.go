// ABOUTME: Local failures of the CRUD controller
// ABOUTME: None of these ever reach the server

package crud

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned while a mutation of the same controller is in flight
	ErrBusy = errors.New("another request is still in progress")
	// ErrNotConfirmed is returned when a delete was not explicitly acknowledged
	ErrNotConfirmed = errors.New("delete not confirmed")
	// ErrDeleteDisabled is returned for resources whose delete is turned off
	ErrDeleteDisabled = errors.New("delete is disabled for this resource")
	// ErrClosed is returned by operations started after Close
	ErrClosed = errors.New("controller closed")
)

// ValidationError is a local validation failure that blocks submission
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Required returns the validation error for an empty required field
func Required(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "is required"}
}

// IsLocal reports whether err was raised locally, before any request was sent
func IsLocal(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrNotConfirmed) ||
		errors.Is(err, ErrDeleteDisabled) ||
		errors.Is(err, ErrBusy)
}
