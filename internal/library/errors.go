package library

import (
	"errors"

	"curio/internal/autofill"
	"curio/internal/catalog"
	"curio/internal/confirm"
	"curio/internal/document"
	"curio/internal/revision"
	"curio/internal/storage"
)

var (
	// ErrDeclined is returned when the user answers no at a confirmation
	// prompt. Nothing was changed.
	ErrDeclined = errors.New("cancelled")
	// ErrNotEmpty is returned by Seed when the collection already has items.
	ErrNotEmpty = errors.New("collection is not empty")
)

// ErrorClassifier is implemented by errors that know their own kind.
type ErrorClassifier interface {
	ErrorKind() string
}

// ErrorKind maps err to a short kind used for CLI messages and log fields.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	var classified ErrorClassifier
	if errors.As(err, &classified) {
		return classified.ErrorKind()
	}
	switch {
	case errors.Is(err, ErrDeclined):
		return "declined"
	case errors.Is(err, ErrNotEmpty):
		return "validation"
	case errors.Is(err, revision.ErrRevisionExhausted):
		return "validation"
	case errors.Is(err, confirm.ErrNotInteractive):
		return "validation"
	case errors.Is(err, autofill.ErrNotConfigured):
		return "config"
	case errors.Is(err, storage.ErrLocked):
		return "locked"
	case errors.Is(err, storage.ErrSchemaMismatch):
		return "storage"
	}
	if kind := catalog.ErrorKind(err); kind != "" {
		return kind
	}
	return "internal"
}

var (
	_ ErrorClassifier = (*document.ParseError)(nil)
	_ ErrorClassifier = (*document.ValidationError)(nil)
	_ ErrorClassifier = (*autofill.LookupError)(nil)
)
