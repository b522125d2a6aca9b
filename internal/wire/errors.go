package wire

import "fmt"

// ParseError reports a malformed field: bad hex, a non-minimal length prefix or a value out of range.
type ParseError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Field, e.Reason, e.Err)
	}

	return fmt.Sprintf("parse %s: %s", e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TruncatedInputError reports that the byte stream ended before Field could be read.
type TruncatedInputError struct {
	Field  string
	Needed int
	Have   int
}

func (e *TruncatedInputError) Error() string {
	return fmt.Sprintf("truncated %s: need %d bytes, have %d", e.Field, e.Needed, e.Have)
}

func NewParseError(field, reason string, err error) *ParseError {
	return &ParseError{Field: field, Reason: reason, Err: err}
}
