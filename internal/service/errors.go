package service

import "errors"

// Configuration errors are surfaced immediately and never retried.
var (
	ErrAIDisabled    = errors.New("AI advice is currently disabled")
	ErrMissingAPIKey = errors.New("please configure the DeepSeek API key first")
)

var (
	ErrEntryNotFound     = errors.New("entry not found")
	ErrTrackingNotFound  = errors.New("advice item not found")
	ErrInvalidAIResponse = errors.New("AI response was not valid")
	// ErrInvalidEntry wraps request validation failures for entries and feedback
	ErrInvalidEntry = errors.New("invalid entry")
)

// IsConfigurationError reports whether err is a settings problem the user must fix
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrAIDisabled) || errors.Is(err, ErrMissingAPIKey)
}
