// internal/common/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	// Request errors
	ErrCodeEmptyMessage       ErrorCode = "EMPTY_MESSAGE"
	ErrCodeInvalidChatRequest ErrorCode = "INVALID_CHAT_REQUEST"

	// Task store errors
	ErrCodeTaskNotFound             ErrorCode = "TASK_NOT_FOUND"
	ErrCodeTaskStoreFailed          ErrorCode = "TASK_STORE_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"

	// Fallback responder errors
	ErrCodeFallbackTimeout  ErrorCode = "FALLBACK_TIMEOUT"
	ErrCodeFallbackFailed   ErrorCode = "FALLBACK_FAILED"
	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"

	// Journal errors
	ErrCodeJournalWriteFailed ErrorCode = "JOURNAL_WRITE_FAILED"

	// Workflow engine errors
	ErrCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"
	ErrCodeEngineTimeout     ErrorCode = "ENGINE_TIMEOUT"
	ErrCodeEngineRejected    ErrorCode = "ENGINE_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is the error shape reported to workflow engines and HTTP
// clients.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns e after setting key.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

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

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewEmptyMessageError() *StandardError {
	return newError(ErrCodeEmptyMessage, "Message cannot be empty", "", false)
}

func NewInvalidChatRequestError(details string) *StandardError {
	return newError(ErrCodeInvalidChatRequest, "Invalid chat request", details, false)
}

func NewTaskNotFoundError(taskID int) *StandardError {
	return newError(ErrCodeTaskNotFound, "Task not found", fmt.Sprintf("taskId: %d", taskID), false).
		WithMetadata("taskId", taskID)
}

func NewTaskStoreFailedError(operation string, err error) *StandardError {
	return newError(ErrCodeTaskStoreFailed, "Task store operation failed",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewFallbackTimeoutError() *StandardError {
	return newError(ErrCodeFallbackTimeout, "Fallback responder timeout",
		"Responder call exceeded its timeout", true)
}

func NewFallbackFailedError(err error) *StandardError {
	return newError(ErrCodeFallbackFailed, "Fallback responder error", err.Error(), true)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Response cache unavailable", err.Error(), false)
}

func NewJournalWriteFailedError(err error) *StandardError {
	return newError(ErrCodeJournalWriteFailed, "Command journal write failed", err.Error(), false)
}

func NewEngineUnavailableError(err error) *StandardError {
	return newError(ErrCodeEngineUnavailable, "Workflow engine unavailable", err.Error(), true)
}

func NewEngineTimeoutError(err error) *StandardError {
	return newError(ErrCodeEngineTimeout, "Workflow engine request timed out", err.Error(), true)
}

func NewEngineRejectedError(err error) *StandardError {
	return newError(ErrCodeEngineRejected, "Workflow engine rejected the command", err.Error(), false)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// AsStandardError unwraps err to a *StandardError, or wraps it as an internal
// error.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeEmptyMessage:             "EMPTY_MESSAGE",
	ErrCodeInvalidChatRequest:       "INVALID_CHAT_REQUEST",
	ErrCodeTaskNotFound:             "TASK_NOT_FOUND",
	ErrCodeTaskStoreFailed:          "TASK_STORE_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeFallbackTimeout:          "FALLBACK_TIMEOUT",
	ErrCodeFallbackFailed:           "FALLBACK_FAILED",
	ErrCodeCacheUnavailable:         "CACHE_UNAVAILABLE",
	ErrCodeJournalWriteFailed:       "JOURNAL_WRITE_FAILED",
	ErrCodeEngineUnavailable:        "ENGINE_UNAVAILABLE",
	ErrCodeEngineTimeout:            "ENGINE_TIMEOUT",
	ErrCodeEngineRejected:           "ENGINE_REJECTED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeTaskStoreFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeFallbackFailed,
		ErrCodeEngineUnavailable:
		return 3

	case ErrCodeFallbackTimeout, ErrCodeEngineTimeout:
		return 1

	default:
		return 0 // request and business errors
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TASK") || strings.Contains(codeStr, "DATABASE"):
		return "STORE"
	case strings.Contains(codeStr, "FALLBACK") || strings.Contains(codeStr, "CACHE"):
		return "FALLBACK"
	case strings.Contains(codeStr, "JOURNAL"):
		return "JOURNAL"
	case strings.Contains(codeStr, "ENGINE"):
		return "ENGINE"
	case strings.Contains(codeStr, "MESSAGE") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
