package internal

import (
	"errors"
	"fmt"
)

// ErrMalformedRecord matches every *MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed record")

// MalformedRecordError reports a compound field that did not split into
// the expected number of sub-fields.
type MalformedRecordError struct {
	Field string
	Want  int
	Got   int

	// Source and Line locate the record in the input when known.
	Source string
	Line   int
}

func (e *MalformedRecordError) Error() string {
	msg := fmt.Sprintf("malformed record: %s has %d sub-fields, want %d", e.Field, e.Got, e.Want)
	if e.Source != "" {
		msg = fmt.Sprintf("%s (%s:%d)", msg, e.Source, e.Line)
	}
	return msg
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// Location returns "source:line", or "" when the error was never located.
func (e *MalformedRecordError) Location() string {
	if e.Source == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", e.Source, e.Line)
}
