// pkg/plugin_err/classification.go
//
// Error classification for lifecycle operations. Categories mirror how an
// orchestrator reacts to a failed operation: retry it later, give up, or
// reject the input outright.

package plugin_err

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies errors for appropriate handling
type ErrorCategory int

const (
	// CategoryNonRecoverable - the operation cannot succeed by retrying (exit 1)
	CategoryNonRecoverable ErrorCategory = iota
	// CategoryRecoverable - transient condition, the operation may be retried (exit 75)
	CategoryRecoverable
	// CategoryValidation - invalid properties or arguments (exit 2)
	CategoryValidation
	// CategoryInternal - bugs in the plugin itself (exit 3)
	CategoryInternal
)

func (c ErrorCategory) String() string {
	switch c {
	case CategoryRecoverable:
		return "recoverable"
	case CategoryValidation:
		return "validation"
	case CategoryInternal:
		return "internal"
	default:
		return "non-recoverable"
	}
}

// ClassifiedError wraps an error with category and remediation info
type ClassifiedError struct {
	Category    ErrorCategory
	Message     string
	Cause       error
	Remediation []string
}

// Error implements the error interface
func (e *ClassifiedError) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Message)

	if e.Cause != nil && e.Cause.Error() != e.Message {
		sb.WriteString(fmt.Sprintf("\n\nCause: %v", e.Cause))
	}

	if len(e.Remediation) > 0 {
		sb.WriteString("\n\nHow to fix:")
		for i, step := range e.Remediation {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}

	return sb.String()
}

// Unwrap returns the underlying error
func (e *ClassifiedError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error category
func (e *ClassifiedError) ExitCode() int {
	switch e.Category {
	case CategoryRecoverable:
		return 75 // EX_TEMPFAIL
	case CategoryValidation:
		return 2
	case CategoryInternal:
		return 3
	default:
		return 1
	}
}

// GetExitCode extracts exit code from any error.
// Returns 0 for nil, the category code for classified errors, 1 for others.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.ExitCode()
	}

	return 1
}

// NewRecoverableError creates an error the orchestrator should retry
func NewRecoverableError(message string, cause error, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryRecoverable,
		Message:     message,
		Cause:       cause,
		Remediation: remediation,
	}
}

// NewNonRecoverableError creates an error that ends the operation for good
func NewNonRecoverableError(message string, cause error, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryNonRecoverable,
		Message:     message,
		Cause:       cause,
		Remediation: remediation,
	}
}

// NewValidationError creates an error for input validation failures
func NewValidationError(message string, cause error, remediation ...string) error {
	return &ClassifiedError{
		Category:    CategoryValidation,
		Message:     message,
		Cause:       cause,
		Remediation: remediation,
	}
}

// NewInternalError creates an error for plugin bugs
func NewInternalError(message string, cause error) error {
	return &ClassifiedError{
		Category: CategoryInternal,
		Message:  message,
		Cause:    cause,
		Remediation: []string{
			"This is likely a bug in salt-plugin",
			"Include this error message and steps to reproduce when reporting it",
		},
	}
}

// CategoryOf returns the category of err, or false if err is not classified.
func CategoryOf(err error) (ErrorCategory, bool) {
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified.Category, true
	}
	return 0, false
}

// IsRecoverable reports whether err is classified as recoverable.
func IsRecoverable(err error) bool {
	c, ok := CategoryOf(err)
	return ok && c == CategoryRecoverable
}

// IsExpectedUserError reports whether err was caused by invalid user input
// rather than by the environment or the plugin.
func IsExpectedUserError(err error) bool {
	c, ok := CategoryOf(err)
	return ok && c == CategoryValidation
}
