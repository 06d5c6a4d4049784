package custerror

import "fmt"

const (
	CodeInternal uint32 = iota + 1
	CodeInvalidArgument
	CodeNotFound
	CodeAlreadyExists
	CodePermissionDenied
	CodeUnavailable
)

type CustomError struct {
	Code    uint32 `json:"code"`
	Message string `json:"message"`
}

// Error returns the message alone so that user facing errors can be
// surfaced verbatim on the command channel.
func (e *CustomError) Error() string {
	return e.Message
}

func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewError(code uint32, msg string) *CustomError {
	return &CustomError{
		Code:    code,
		Message: msg,
	}
}

var (
	ErrorInternal         = NewError(CodeInternal, "internal error")
	ErrorInvalidArgument  = NewError(CodeInvalidArgument, "invalid argument")
	ErrorNotFound         = NewError(CodeNotFound, "not found")
	ErrorAlreadyExists    = NewError(CodeAlreadyExists, "already exists")
	ErrorPermissionDenied = NewError(CodePermissionDenied, "permission denied")
	ErrorUnavailable      = NewError(CodeUnavailable, "unavailable")
)

func FormatInternalError(format string, args ...interface{}) error {
	return NewError(CodeInternal, fmt.Sprintf(format, args...))
}

func FormatInvalidArgument(format string, args ...interface{}) error {
	return NewError(CodeInvalidArgument, fmt.Sprintf(format, args...))
}

func FormatNotFound(format string, args ...interface{}) error {
	return NewError(CodeNotFound, fmt.Sprintf(format, args...))
}

func FormatAlreadyExists(format string, args ...interface{}) error {
	return NewError(CodeAlreadyExists, fmt.Sprintf(format, args...))
}

func FormatPermissionDenied(format string, args ...interface{}) error {
	return NewError(CodePermissionDenied, fmt.Sprintf(format, args...))
}

func FormatUnavailable(format string, args ...interface{}) error {
	return NewError(CodeUnavailable, fmt.Sprintf(format, args...))
}

// CodeOf returns the code carried by err, or CodeInternal for foreign errors.
func CodeOf(err error) uint32 {
	if custErr, ok := err.(*CustomError); ok {
		return custErr.Code
	}
	return CodeInternal
}
