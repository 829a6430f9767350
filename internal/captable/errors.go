package captable

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed or out-of-policy input. It is raised
// before any arithmetic begins and carries the offending field path so
// callers can point at the exact input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Errorf builds a field-qualified ValidationError.
func Errorf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// field joins a collection path with an index and leaf name, e.g.
// "rounds[2].pre_money".
func field(base string, idx int, leaf string) string {
	return fmt.Sprintf("%s[%d].%s", base, idx, leaf)
}

// join collapses a slice of errors into one (nil when empty). Every
// individual problem stays visible through errors.As / errors.Is so a
// caller gets the complete report in a single failure.
func join(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
