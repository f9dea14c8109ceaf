// Package errors provides the gateway's error taxonomy.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode is a stable, machine-readable error identifier.
type ErrorCode string

const (
	ErrCodeUnauthenticated        ErrorCode = "UNAUTHENTICATED"
	ErrCodeCategoryFailed         ErrorCode = "CATEGORY_FAILED"
	ErrCodeTemplateNotFound       ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeLLMCallFailed          ErrorCode = "LLM_CALL_FAILED"
	ErrCodeSchemaValidationFailed ErrorCode = "SCHEMA_VALIDATION_FAILED"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
	ErrCodeConfigInvalid          ErrorCode = "CONFIG_INVALID"
)

// Caller-facing messages. Nothing else ever reaches a response body.
const (
	MsgUnauthorized   = "Unauthorized"
	MsgInvalidToken   = "Invalid or expired token"
	MsgNotAuthorized  = "Not authorized"
	MsgInternalError  = "Internal Server Error"
	MsgInvalidRequest = "Invalid request body"
)

var (
	// ErrUnauthenticated marks missing, malformed or rejected credentials.
	ErrUnauthenticated = stderrors.New("unauthenticated")
	// ErrCategoryFailed marks a single category that produced no result.
	ErrCategoryFailed = stderrors.New("category failed")
)

// StandardError is a structured application error. Message is safe to show
// to callers; Details is for logs only.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// NewUnauthenticatedError reports rejected credentials. message is the
// caller-facing text.
func NewUnauthenticatedError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthenticated,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		cause:     ErrUnauthenticated,
	}
}

// NewTemplateNotFoundError reports a category with no prompt template.
func NewTemplateNotFoundError(category string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Prompt template not found",
		Details:   fmt.Sprintf("category: %s", category),
		Timestamp: time.Now().UTC(),
		cause:     ErrCategoryFailed,
	}
}

// NewLLMCallFailedError reports a failed or timed-out provider call.
func NewLLMCallFailedError(category string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMCallFailed,
		Message:   "LLM invocation failed",
		Details:   fmt.Sprintf("category: %s, error: %v", category, err),
		Timestamp: time.Now().UTC(),
		cause:     stderrors.Join(ErrCategoryFailed, err),
	}
}

// NewSchemaValidationFailedError reports a provider response that does not
// match the insights schema.
func NewSchemaValidationFailedError(category, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaValidationFailed,
		Message:   "LLM response failed schema validation",
		Details:   fmt.Sprintf("category: %s, %s", category, details),
		Timestamp: time.Now().UTC(),
		cause:     ErrCategoryFailed,
	}
}

// NewCategoryPanicError reports a recovered panic inside a category task.
func NewCategoryPanicError(category string, recovered interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeCategoryFailed,
		Message:   "Category task panicked",
		Details:   fmt.Sprintf("category: %s, panic: %v", category, recovered),
		Timestamp: time.Now().UTC(),
		cause:     ErrCategoryFailed,
	}
}

// NewInternalError wraps any unexpected fault.
func NewInternalError(err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   MsgInternalError,
		Details:   details,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewConfigInvalidError reports unusable configuration.
func NewConfigInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigInvalid,
		Message:   "Invalid configuration",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf returns the code of the first StandardError in err's chain, or
// ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// PublicMessage maps err to the text a caller may see.
func PublicMessage(err error) string {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) && stdErr.Code == ErrCodeUnauthenticated {
		return stdErr.Message
	}
	if stderrors.Is(err, ErrUnauthenticated) {
		return MsgUnauthorized
	}
	return MsgInternalError
}
