// Package errors provides coded errors for the block miner. Every error carries an ERR code so callers can
// branch with errors.Is against the predefined sentinels, regardless of the message or wrapped cause.
package errors

import (
	"errors"
	"fmt"
)

type ERR int32

const (
	ERR_UNKNOWN ERR = iota
	ERR_INVALID_ARGUMENT
	ERR_CONFIGURATION
	ERR_PROCESSING
	ERR_CONTEXT_CANCELED
	ERR_SOURCE_UNAVAILABLE
	ERR_RECORD_DECODE
	ERR_ENCODING
	ERR_SEARCH_EXHAUSTED
	ERR_STORAGE
	ERR_NOT_FOUND
)

var errNames = map[ERR]string{
	ERR_UNKNOWN:            "UNKNOWN",
	ERR_INVALID_ARGUMENT:   "INVALID_ARGUMENT",
	ERR_CONFIGURATION:      "CONFIGURATION",
	ERR_PROCESSING:         "PROCESSING",
	ERR_CONTEXT_CANCELED:   "CONTEXT_CANCELED",
	ERR_SOURCE_UNAVAILABLE: "SOURCE_UNAVAILABLE",
	ERR_RECORD_DECODE:      "RECORD_DECODE",
	ERR_ENCODING:           "ENCODING",
	ERR_SEARCH_EXHAUSTED:   "SEARCH_EXHAUSTED",
	ERR_STORAGE:            "STORAGE",
	ERR_NOT_FOUND:          "NOT_FOUND",
}

func (c ERR) String() string {
	if name, ok := errNames[c]; ok {
		return name
	}

	return fmt.Sprintf("ERR(%d)", int32(c))
}

type Error struct {
	code       ERR
	message    string
	wrappedErr error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	if e.wrappedErr == nil {
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}

	return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.wrappedErr)
}

// Is reports whether error codes match anywhere in the chain of coded errors.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}

	var targetError *Error
	if !errors.As(target, &targetError) {
		return false
	}

	if e.code == targetError.code {
		return true
	}

	var wrapped *Error
	if errors.As(e.wrappedErr, &wrapped) {
		return wrapped.Is(target)
	}

	return false
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.wrappedErr
}

func (e *Error) Code() ERR {
	if e == nil {
		return ERR_UNKNOWN
	}

	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}

	return e.message
}

// New creates a coded error. When the last param is an error it is wrapped, the remaining params format the message.
func New(code ERR, message string, params ...interface{}) *Error {
	var wrapped error

	if len(params) > 0 {
		if err, ok := params[len(params)-1].(error); ok {
			wrapped = err
			params = params[:len(params)-1]
		}
	}

	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}

	return &Error{
		code:       code,
		message:    message,
		wrappedErr: wrapped,
	}
}

// Is, As and Join re-export the standard library helpers so callers need only this package.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func Join(errs ...error) error { return errors.Join(errs...) }
