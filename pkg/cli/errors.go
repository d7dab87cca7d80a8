package cli

import (
	"errors"
	"fmt"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/orchestrator"
)

// Process exit codes.
const (
	ExitOK              = 0
	ExitFailure         = 1
	ExitConfig          = 2
	ExitEvaluation      = 3
	ExitIntegrityFailed = 4
)

// ConfigError reports an unusable configuration or catalog file.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config error: " + e.Message
	}
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// CommandError wraps a failure of one subcommand.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// IntegrityError reports cases whose audit chain failed verification.
type IntegrityError struct {
	Cases []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("audit chain verification failed for %d case(s): %v", len(e.Cases), e.Cases)
}

// NewConfigError creates a ConfigError wrapping cause.
func NewConfigError(field string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: cause.Error(), Cause: cause}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps an error returned by a command to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		cfgErr       *ConfigError
		evalErr      *orchestrator.EvaluationError
		integrityErr *IntegrityError
	)
	switch {
	case errors.As(err, &cfgErr):
		return ExitConfig
	case errors.As(err, &integrityErr):
		return ExitIntegrityFailed
	case errors.As(err, &evalErr):
		return ExitEvaluation
	default:
		return ExitFailure
	}
}
