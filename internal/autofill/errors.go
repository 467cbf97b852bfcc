package autofill

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when auto-fill is disabled or has no API key.
var ErrNotConfigured = errors.New("auto-fill is not configured")

// userMessage is shown for every lookup failure; the wrapped error carries
// the detail for logs.
const userMessage = "Failed to auto-fill details. Please try again or enter them manually."

// LookupError reports a failed auto-fill request.
type LookupError struct {
	Title    string
	Category string
	Err      error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("auto-fill %s %q: %v", e.Category, e.Title, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Message returns the text to show the user.
func (e *LookupError) Message() string { return userMessage }

// ErrorKind classifies lookup failures as transient.
func (e *LookupError) ErrorKind() string { return "transient" }
