package ihex

import (
	"fmt"

	"github.com/pkg/errors"
)

// FormatError reports a malformed or unsupported record, or an image that
// ends without an end-of-file record.
type FormatError struct {
	// Line is the 1-based line number, or 0 when the error is not tied to a line
	Line int

	// Reason describes what is wrong
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("ihex: %s", e.Reason)
	}
	return fmt.Sprintf("ihex: line %d: %s", e.Line, e.Reason)
}

// SinkError wraps the error returned by a Sink. Parsing stops at the
// segment that failed.
type SinkError struct {
	Address uint16
	Length  int
	Err     error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("ihex: segment 0x%04x (%d bytes): %v", e.Address, e.Length, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// IsFormatError returns true if err is, or wraps, a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
