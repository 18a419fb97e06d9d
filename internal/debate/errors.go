package debate

import "fmt"

// ConfigError reports invalid session configuration. It is raised before
// any phase runs and is never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid debate configuration: " + e.Reason
}

// NewConfigError builds a ConfigError from a format string.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// PhaseError reports a mid-session failure, naming the question and the
// phase whose fan-in could not complete.
type PhaseError struct {
	Question string
	Phase    Phase
	Err      error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("debate on %q failed during %s phase: %v", e.Question, e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}
