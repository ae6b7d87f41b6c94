package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError with errors.Is.
	ErrConfiguration = errors.New("configuration error")
	// ErrTurnLimit is returned by Run when the configured turn limit is reached.
	ErrTurnLimit = errors.New("turn limit reached")
)

// ConfigurationError reports a run that cannot be created from its options.
// The caller must collect new input; the engine never retries.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

// Error returns a message naming the offending field and value.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

// Unwrap exposes both ErrConfiguration and the underlying cause.
func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrConfiguration, e.Err}
}
