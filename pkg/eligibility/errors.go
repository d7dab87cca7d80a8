package eligibility

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration is wrapped by every ConfigurationError.
var ErrConfiguration = errors.New("eligibility configuration error")

// ConfigurationError reports a malformed program rule or a snapshot missing
// a fact a rule needs. It is never reported as ineligibility.
type ConfigurationError struct {
	Program   string
	Predicate string
	Field     string
	Cause     error

	// Missing lists every absent fact when the snapshot was checked
	// against the whole catalog; Programs names the programs needing them.
	Missing  []string
	Programs []string
}

// Error returns the error message.
func (e *ConfigurationError) Error() string {
	var msg string
	if e.Program == "" && len(e.Programs) > 0 {
		msg = "programs " + strings.Join(e.Programs, ", ")
	} else {
		msg = fmt.Sprintf("program %q", e.Program)
	}
	if e.Predicate != "" {
		msg += fmt.Sprintf(" predicate %q", e.Predicate)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field %q", e.Field)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return "eligibility configuration error: " + msg
}

// Unwrap returns the cause and ErrConfiguration.
func (e *ConfigurationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Cause}
}
