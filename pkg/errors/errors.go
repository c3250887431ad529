// Unified error handling for the velocity planning engine.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// Configuration errors
	ErrConfigSection    ErrorCode = "CONFIG_SECTION"
	ErrConfigOption     ErrorCode = "CONFIG_OPTION"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrConfigType       ErrorCode = "CONFIG_TYPE"

	// Planner errors
	ErrPlannerSession ErrorCode = "PLANNER_SESSION"
	ErrPlannerHandle  ErrorCode = "PLANNER_HANDLE"

	// Move input errors
	ErrInputParse ErrorCode = "INPUT_PARSE"

	// Preview server errors
	ErrPreviewIO ErrorCode = "PREVIEW_IO"
)

// PlanError is the unified error type for the estimator.
type PlanError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Section is the config section or context (if applicable)
	Section string

	// Option is the config option name (if applicable)
	Option string

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface
func (e *PlanError) Error() string {
	if e.Section != "" || e.Option != "" {
		return fmt.Sprintf("[%s] %s:%s: %s", e.Code, e.Section, e.Option, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *PlanError) Unwrap() error {
	return e.Err
}

// SetSection sets the context section
func (e *PlanError) SetSection(section string) *PlanError {
	e.Section = section
	return e
}

// SetOption sets the config option
func (e *PlanError) SetOption(option string) *PlanError {
	e.Option = option
	return e
}

// New creates a new PlanError
func New(code ErrorCode, message string) *PlanError {
	return &PlanError{Code: code, Message: message}
}

// Newf creates a new PlanError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *PlanError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with a code and message
func Wrap(err error, code ErrorCode, message string) *PlanError {
	return &PlanError{Code: code, Message: message, Err: err}
}

// CodeOf returns the ErrorCode of err, or "" if err is not a PlanError.
func CodeOf(err error) ErrorCode {
	var pe *PlanError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// InvalidConfiguration creates the error the planner raises for a rejected
// configure call. This is the only hard failure the core produces.
func InvalidConfiguration(option, reason string) *PlanError {
	return Newf(ErrConfigValidation, "invalid configuration: %s (%s)", option, reason).
		SetOption(option)
}

// IsInvalidConfiguration reports whether err is a rejected configuration.
func IsInvalidConfiguration(err error) bool {
	return CodeOf(err) == ErrConfigValidation
}

// ConfigSectionError creates an error for a missing config section
func ConfigSectionError(section string) *PlanError {
	return Newf(ErrConfigSection, "section '%s' not found", section).SetSection(section)
}

// ConfigOptionError creates an error for a missing config option
func ConfigOptionError(section, option string) *PlanError {
	return Newf(ErrConfigOption, "option '%s' not found in section '%s'", option, section).
		SetSection(section).SetOption(option)
}

// ConfigTypeError creates an error for a config value parse failure
func ConfigTypeError(section, option, value, targetType string, err error) *PlanError {
	return Wrap(err, ErrConfigType,
		fmt.Sprintf("option '%s' in section '%s': failed to parse '%s' as %s", option, section, value, targetType)).
		SetSection(section).SetOption(option)
}

// BadHandleError creates an error for an out-of-range or unresolved move handle
func BadHandleError(handle int, reason string) *PlanError {
	return Newf(ErrPlannerHandle, "move handle %d: %s", handle, reason)
}
