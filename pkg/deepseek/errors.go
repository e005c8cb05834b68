package deepseek

import (
	"errors"
	"fmt"
)

// FormatError means the service answered but the content could not be read
// as the expected JSON shape. It is never a network failure.
type FormatError struct {
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid AI response: %s: %v", e.Reason, e.Err)
	}
	return "invalid AI response: " + e.Reason
}

func (e *FormatError) Unwrap() error { return e.Err }

// IsFormatError reports whether err is or wraps a FormatError
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func formatErr(reason string, err error) error {
	return &FormatError{Reason: reason, Err: err}
}
