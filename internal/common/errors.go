package common

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeConfiguration for configuration and credential errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeNetwork for transport failures talking to GitLab
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeAuth for rejected or missing credentials
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeGitLab for unexpected GitLab API responses
	ErrorTypeGitLab ErrorType = "gitlab"
	// ErrorTypeStorage for ledger errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeExport for trace file errors
	ErrorTypeExport ErrorType = "export"
	// ErrorTypeInternal for internal system errors
	ErrorTypeInternal ErrorType = "internal"
)

// CollectorError represents a structured error with context
type CollectorError struct {
	Type      ErrorType              `json:"type"`
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *CollectorError) Error() string {
	msg := fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap implements the errors.Unwrap interface
func (e *CollectorError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *CollectorError) WithContext(key string, value interface{}) *CollectorError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails sets the details string
func (e *CollectorError) WithDetails(details string) *CollectorError {
	e.Details = details
	return e
}

// NewError creates a new CollectorError
func NewError(errorType ErrorType, code, message string) *CollectorError {
	return &CollectorError{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(code, message string) *CollectorError {
	return NewError(ErrorTypeConfiguration, code, message)
}

// NewAuthError creates an authentication error
func NewAuthError(code, message string) *CollectorError {
	return NewError(ErrorTypeAuth, code, message)
}

// NewGitLabError creates a GitLab API error
func NewGitLabError(code, message string) *CollectorError {
	return NewError(ErrorTypeGitLab, code, message)
}

// WrapError wraps an existing error with CollectorError context
func WrapError(err error, errorType ErrorType, code, message string) *CollectorError {
	return &CollectorError{
		Type:      errorType,
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Cause:     err,
	}
}

// IsErrorType reports whether any CollectorError in err's chain has the given type
func IsErrorType(err error, errorType ErrorType) bool {
	var ce *CollectorError
	for err != nil {
		if !errors.As(err, &ce) {
			return false
		}
		if ce.Type == errorType {
			return true
		}
		err = ce.Cause
	}
	return false
}

// ErrorCode returns the code of the outermost CollectorError in err's chain
func ErrorCode(err error) string {
	var ce *CollectorError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
