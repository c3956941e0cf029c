// Package errors defines AppError, the error type shared by every layer of the
// trademark search service.  HTTP responses, logs and metrics all read the
// same ErrorCode from it.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

const stackDepth = 32

// captureStack formats the caller's stack, skipping runtime frames.  skip
// counts frames above captureStack's caller.
func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			return sb.String()
		}
	}
}

// AppError carries a code, a caller-facing message and optional debugging
// detail.  It unwraps to Cause.
//
//	return errors.New(errors.CodeTrademarkNotFound, "trademark 4020230001234 not found")
//	return errors.Wrap(err, errors.CodeRetrieval, "indexed search failed")
type AppError struct {
	Code    ErrorCode
	Message string
	// Detail is logged but never rendered in API responses.
	Detail string
	Cause  error
	// Stack is captured at construction and is not part of Error().
	Stack string
}

// Error renders "[code] message: detail <- cause", dropping empty parts.
func (e *AppError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code, e.Message)
	if e.Detail != "" {
		sb.WriteString(": " + e.Detail)
	}
	if e.Cause != nil {
		sb.WriteString(" <- " + e.Cause.Error())
	}
	return sb.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithDetail returns a copy with Detail set.  Nil stays nil.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	c := *e
	c.Detail = detail
	return &c
}

// WithCause returns a copy with Cause set.  Nil stays nil.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	c := *e
	c.Cause = err
	return &c
}

// build is shared by the exported constructors so every stack starts at
// their caller.
func build(code ErrorCode, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause, Stack: captureStack(2)}
}

func New(code ErrorCode, message string) *AppError {
	return build(code, message, nil)
}

func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return build(code, fmt.Sprintf(format, args...), nil)
}

// Wrap attaches code and message to err, returning nil for a nil err.
// CodeUnknown inherits the code of an AppError already in err's chain.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return build(code, message, err)
}

// IsCode reports whether any AppError in err's chain has code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// IsNotFound matches both the generic and the trademark not-found codes.
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound) || IsCode(err, CodeTrademarkNotFound)
}

// GetCode returns the code of the first AppError in err's chain: CodeOK for
// nil, CodeUnknown for foreign errors.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// Is and As forward to the standard library for callers that import this
// package as "errors".
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

func NotFound(message string) *AppError     { return build(CodeNotFound, message, nil) }
func InvalidParam(message string) *AppError { return build(CodeInvalidParam, message, nil) }
func Internal(message string) *AppError     { return build(CodeInternal, message, nil) }
func Unavailable(message string) *AppError  { return build(CodeServiceUnavailable, message, nil) }
func RateLimit(message string) *AppError    { return build(CodeRateLimit, message, nil) }
