// Package errors provides standardized error handling for the dispatcher and its job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeNotFound               ErrorCode = "NOT_FOUND"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnsupportedChannel     ErrorCode = "UNSUPPORTED_CHANNEL"
	ErrCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeTemplateStoreFailed    ErrorCode = "TEMPLATE_STORE_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewNotFoundError creates a non-retryable error for a missing entity.
func NewNotFoundError(entity, id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotFound,
		Message:   fmt.Sprintf("%s not found", entity),
		Details:   fmt.Sprintf("%s: %s", strings.ToLower(entity), id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected collaborator failure.
func NewInternalError(message string, err error) *StandardError {
	e := &StandardError{
		Code:      ErrCodeInternal,
		Message:   message,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// NewUnsupportedChannelError reports a channel type with no registered implementation.
func NewUnsupportedChannelError(channel string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedChannel,
		Message:   fmt.Sprintf("Channel %s is not supported", channel),
		Details:   fmt.Sprintf("channel: %s", channel),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable channel delivery error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTemplateStoreFailedError creates a retryable template persistence error.
func NewTemplateStoreFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateStoreFailed,
		Message:   "Template store operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes modelled in the process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeNotFound:               "NOTIFICATION_NOT_FOUND",
	ErrCodeInternal:               "NOTIFICATION_INTERNAL_ERROR",
	ErrCodeUnsupportedChannel:     "UNSUPPORTED_CHANNEL",
	ErrCodeValidationFailed:       "NOTIFICATION_VALIDATION_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeTemplateStoreFailed:    "TEMPLATE_STORE_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeInternal,
		ErrCodeTemplateStoreFailed,
		ErrCodeNotificationSendFailed:
		return 3
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError finds the first StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// CodeOf classifies err. Errors outside the taxonomy are INTERNAL_ERROR; nil is "".
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsNotFound reports whether err carries the NOT_FOUND code.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// Normalize returns err as a StandardError, wrapping foreign errors as INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	return NewInternalError("Unexpected error", err)
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TEMPLATE"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "NOTIFICATION"), strings.Contains(codeStr, "CHANNEL"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	default:
		return "OTHER"
	}
}
