package sim

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a run configuration that cannot be honored:
// unknown solver or preconditioner names, a commodity without a weight,
// malformed scenario files. It is raised at setup and aborts the run.
type ConfigurationError struct {
	Field string // offending configuration key, may be empty
	Msg   string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Msg
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Msg)
}

// NewConfigurationError builds a ConfigurationError for the given key.
func NewConfigurationError(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// StateError reports a violated internal invariant, e.g. an arc between
// unregistered nodes or a match that cannot be mapped back to a request.
// These always indicate a caller bug and are never recovered from.
type StateError struct {
	Msg string
}

func (e *StateError) Error() string {
	return "state error: " + e.Msg
}

// NewStateError builds a StateError.
func NewStateError(format string, args ...any) error {
	return &StateError{Msg: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsStateError reports whether err wraps a StateError.
func IsStateError(err error) bool {
	var se *StateError
	return errors.As(err, &se)
}
