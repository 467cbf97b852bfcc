package document

import "fmt"

// ParseError reports import text that is not well-formed JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse collection document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrorKind classifies the error for status mapping.
func (e *ParseError) ErrorKind() string { return "parse" }

// ValidationError reports a well-formed document with the wrong shape.
type ValidationError struct {
	// Field is the offending location, e.g. "collections.books".
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid collection document: %s", e.Reason)
	}
	return fmt.Sprintf("invalid collection document: %s: %s", e.Field, e.Reason)
}

// ErrorKind classifies the error for status mapping.
func (e *ValidationError) ErrorKind() string { return "validation" }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
