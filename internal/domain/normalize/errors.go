package normalize

import (
	"errors"
	"fmt"
)

// Sentinel kinds for normalization errors. Every *Error matches
// ErrNormalization and exactly one of the reason kinds.
var (
	ErrNormalization    = errors.New("normalization failed")
	ErrMissingField     = errors.New("missing field")
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrInvalidSalary    = errors.New("invalid salary")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// Error describes why one source row could not be normalized.
type Error struct {
	Row   int    // zero-based data row index, -1 when unknown
	Field string // source column
	Value string // offending raw text
	Err   error  // reason kind
}

func (e *Error) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("normalize: row %d: %s %q: %v", e.Row, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("normalize: %s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap exposes the reason kind.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrNormalization.
func (e *Error) Is(target error) bool { return target == ErrNormalization }

// AtRow returns err annotated with the data row index when it is an *Error.
// Other errors are returned unchanged.
func AtRow(err error, row int) error {
	var nerr *Error
	if !errors.As(err, &nerr) {
		return err
	}
	annotated := *nerr
	annotated.Row = row
	return &annotated
}

// Reason returns a short metric label for a normalization error.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrUnknownCurrency):
		return "unknown_currency"
	case errors.Is(err, ErrInvalidSalary):
		return "invalid_salary"
	case errors.Is(err, ErrInvalidTimestamp):
		return "invalid_timestamp"
	default:
		return "other"
	}
}
