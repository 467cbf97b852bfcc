package catalog

import "errors"

var (
	// ErrDuplicateID indicates an add for an id already present in the category.
	ErrDuplicateID = errors.New("duplicate item id")
	// ErrNotFound indicates no item with the requested id exists in the category.
	ErrNotFound = errors.New("item not found")
	// ErrUnknownCategory indicates a category missing from the schema registry.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrTitleRequired indicates an attempt to save an item without a title.
	ErrTitleRequired = errors.New("title is required")
	// ErrUnknownField indicates a detail key outside the category's field set.
	ErrUnknownField = errors.New("field not in category schema")
)

// ErrorKind classifies store errors for the CLI. Invariant violations
// (duplicate id, missing id) are "internal"; bad user input is "validation".
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrUnknownField), errors.Is(err, ErrUnknownCategory):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDuplicateID):
		return "internal"
	default:
		return ""
	}
}
