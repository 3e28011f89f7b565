package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

// ProtocolError reports a request the loader protocol cannot carry out:
// a segment that violates the active load policy, an EEPROM segment that
// is too large or externally addressed, or an unsupported chip request.
type ProtocolError struct {
	// Operation is the step that failed
	Operation string

	// Address and Length locate the offending segment, if any
	Address uint16
	Length  int

	// Reason describes the violation
	Reason string
}

func (e *ProtocolError) Error() string {
	if e.Length > 0 {
		return fmt.Sprintf("%s failed: %s (%d bytes at 0x%04x)", e.Operation, e.Reason, e.Length, e.Address)
	}
	return fmt.Sprintf("%s failed: %s", e.Operation, e.Reason)
}

// IsProtocolError returns true if err is, or wraps, a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// TransportKind classifies a control transfer failure.
type TransportKind int

const (
	// TransportOther is any failure that is not worth retrying
	TransportOther TransportKind = iota

	// TransportTimeout means the request was not acknowledged in time.
	// Control requests are never NAKed, only dropped, so a timeout is the
	// only ambiguous outcome.
	TransportTimeout
)

func (k TransportKind) String() string {
	switch k {
	case TransportTimeout:
		return "timeout"
	default:
		return "other"
	}
}

// TransportError is returned by transports for a failed control request.
type TransportError struct {
	// Operation names the request, such as "write on-chip"
	Operation string

	// Kind tells timeouts apart from other failures
	Kind TransportKind

	// Err is the underlying transport error
	Err error
}

func (e *TransportError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("control transfer failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: control transfer failed (%s): %v", e.Operation, e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTimeout returns true if err is, or wraps, a timeout-class TransportError.
func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == TransportTimeout
}

// ShortTransferError reports a control transfer that moved fewer bytes than
// requested.
type ShortTransferError struct {
	Want int
	Got  int
}

func (e *ShortTransferError) Error() string {
	return fmt.Sprintf("short transfer: %d of %d bytes", e.Got, e.Want)
}
