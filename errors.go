package greeting

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes used when reporting hook failures to a job runner.
// Recovery decisions never depend on these codes; see [IsRecoverable].
const (
	ErrCodeLanguage       = "language_error"
	ErrCodeGreeting       = "greeting_error"
	ErrCodeHandler        = "handler_error"
	ErrCodeUnrecoverable  = "unrecoverable"
	ErrCodeInvalidRequest = "invalid_request"
)

// unrecoverablePrefix is part of the observable contract of the error hook.
const unrecoverablePrefix = "Unrecoverable error creating greeting: "

// ErrUnrecoverable is matched by every error returned from the error hook.
var ErrUnrecoverable = errors.New("greeting: unrecoverable error")

// UnrecoverableError is returned by [Handler.Error] when the upstream
// failure cannot be turned into a fallback greeting.
type UnrecoverableError struct {
	// Cause is the upstream failure as reported by the job runner.
	Cause ErrorInfo
}

// Error implements the error interface.
func (e *UnrecoverableError) Error() string {
	return unrecoverablePrefix + e.Cause.Message
}

// Unwrap allows errors.Is(err, ErrUnrecoverable).
func (e *UnrecoverableError) Unwrap() error {
	return ErrUnrecoverable
}

// Code returns the machine-readable code for the failure.
func (e *UnrecoverableError) Code() string {
	return ErrCodeUnrecoverable
}

// IsRecoverable reports whether an upstream error message describes a
// language or greeting selection problem. The match is a case-sensitive
// substring test.
func IsRecoverable(message string) bool {
	return strings.Contains(message, "language") || strings.Contains(message, "greeting")
}

// IsUnrecoverable reports whether err came out of the error hook.
func IsUnrecoverable(err error) bool {
	return errors.Is(err, ErrUnrecoverable)
}

// ErrorCode extracts a machine-readable code from err. Errors that carry
// no code map to [ErrCodeHandler].
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ErrCodeHandler
}

// CodedError attaches an error code to a message. Job runners use it to
// report a failed invoke to the error hook.
type CodedError struct {
	code    string
	message string
}

// NewCodedError returns an error with the given code and message.
func NewCodedError(code, message string) *CodedError {
	return &CodedError{code: code, message: message}
}

// Errorf is like NewCodedError with a formatted message.
func Errorf(code, format string, args ...any) *CodedError {
	return &CodedError{code: code, message: fmt.Sprintf(format, args...)}
}

func (e *CodedError) Error() string { return e.message }
func (e *CodedError) Code() string  { return e.code }
