// Package errors provides custom error types for the directory system.
// These errors enable better error handling, programmatic error checking,
// and improved debugging throughout the application.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the directory system
var (
	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrCredentialRequired indicates that a credential or endpoint is required but not provided
	ErrCredentialRequired = errors.New("credential required")

	// ErrSourceUnavailable indicates that an upstream source answered with a failure
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRateLimited indicates that the upstream rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrInconsistent indicates that reconciliation found divergences between sources
	ErrInconsistent = errors.New("sources are inconsistent")

	// ErrManualReview indicates that a record needs a human decision before publication
	ErrManualReview = errors.New("manual review required")

	// ErrPictureUnavailable indicates that a picture candidate could not be used
	ErrPictureUnavailable = errors.New("picture unavailable")
)

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// APIError represents a failed fetch from an upstream source.
type APIError struct {
	Source     string
	StatusCode int
	Message    string
	Endpoint   string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := e.Message
	if e.Err != nil && msg == "" {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch from %s failed (status %d): %s", e.Source, e.StatusCode, msg)
	}
	return fmt.Sprintf("fetch from %s failed: %s", e.Source, msg)
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	if target == ErrSourceUnavailable {
		return true
	}
	if e.StatusCode == 429 {
		return target == ErrRateLimited
	}
	return false
}

// NewAPIError creates a new APIError
func NewAPIError(source string, statusCode int, message string) *APIError {
	return &APIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Missing   []string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	msg := e.Message
	if len(e.Missing) > 0 {
		msg = fmt.Sprintf("%s: %s", msg, strings.Join(e.Missing, ", "))
	}
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, msg)
	}
	return fmt.Sprintf("configuration error: %s", msg)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConfigError) Is(target error) bool {
	return target == ErrCredentialRequired && len(e.Missing) > 0
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// Violation is one divergence found while reconciling sources.
type Violation struct {
	Check   string `json:"check" yaml:"check"`
	Source  string `json:"source" yaml:"source"`
	Email   string `json:"email" yaml:"email"`
	Message string `json:"message" yaml:"message"`
}

// String formats the violation as a single log line.
func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s (%s): %s", v.Check, v.Email, v.Source, v.Message)
}

// ConsistencyError carries every violation found by one reconciliation pass.
type ConsistencyError struct {
	Violations []Violation
}

// Error implements the error interface
func (e *ConsistencyError) Error() string {
	if len(e.Violations) == 1 {
		return "reconciliation failed with 1 violation: " + e.Violations[0].String()
	}
	return fmt.Sprintf("reconciliation failed with %d violations", len(e.Violations))
}

// Is implements errors.Is support
func (e *ConsistencyError) Is(target error) bool {
	return target == ErrInconsistent
}

// PictureError represents the failure of one picture candidate.
type PictureError struct {
	Person    string
	Candidate string
	URL       string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *PictureError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.URL != "" {
		return fmt.Sprintf("%s picture for %s (%s): %s", e.Candidate, e.Person, e.URL, msg)
	}
	return fmt.Sprintf("%s picture for %s: %s", e.Candidate, e.Person, msg)
}

// Unwrap implements errors.Unwrap
func (e *PictureError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *PictureError) Is(target error) bool {
	return target == ErrPictureUnavailable
}

// ManualReviewError marks a record excluded from publication until a human looks at it.
type ManualReviewError struct {
	Person  string
	Consent string
	Comment string
}

// Error implements the error interface
func (e *ManualReviewError) Error() string {
	if e.Comment != "" {
		return fmt.Sprintf("%s needs manual attention (consent %q): %s", e.Person, e.Consent, e.Comment)
	}
	return fmt.Sprintf("%s needs manual attention (consent %q)", e.Person, e.Consent)
}

// Is implements errors.Is support
func (e *ManualReviewError) Is(target error) bool {
	return target == ErrManualReview
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "csv", "html"
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "rename"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConfig checks if an error is caused by missing credentials or endpoints
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsConsistency checks if an error is a reconciliation failure
func IsConsistency(err error) bool {
	return errors.Is(err, ErrInconsistent)
}

// IsSourceUnavailable checks if an error comes from a failed upstream fetch
func IsSourceUnavailable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// IsManualReview checks if an error marks a record for manual review
func IsManualReview(err error) bool {
	return errors.Is(err, ErrManualReview)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapAPI wraps an error as an APIError
func WrapAPI(source, endpoint string, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{
		Source:   source,
		Endpoint: endpoint,
		Message:  "request failed",
		Err:      err,
	}
}
