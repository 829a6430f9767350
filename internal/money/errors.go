package money

import "fmt"

// NumericError reports an arithmetic step that would produce a non-finite
// or otherwise undefined value, such as division by a zero price. It is
// fatal to the call that raised it; callers receive no partial result.
type NumericError struct {
	Op      string // arithmetic operation that failed
	Message string
}

func (e *NumericError) Error() string {
	return fmt.Sprintf("numeric error in %s: %s", e.Op, e.Message)
}
