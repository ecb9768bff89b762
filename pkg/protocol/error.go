package protocol

import (
	"errors"
	"fmt"
)

// ErrDecode matches every *DecodeError via errors.Is.
var ErrDecode = errors.New("protocol: decode fault")

// ErrorCode identifies the type of decode fault.
type ErrorCode uint16

const (
	ErrUnknown            ErrorCode = 0x0000 // Unknown error
	ErrMalformedBatch     ErrorCode = 0x0001 // Batch is not an array of patches
	ErrUnknownOp          ErrorCode = 0x0002 // Unrecognized patch tag
	ErrMalformedPath      ErrorCode = 0x0003 // Path is not an array of non-negative ints
	ErrMalformedVNode     ErrorCode = 0x0004 // VNode shape mismatch
	ErrMalformedAttribute ErrorCode = 0x0005 // Attribute payload mismatch
	ErrMalformedText      ErrorCode = 0x0006 // Text payload is not a string
	ErrMalformedEvent     ErrorCode = 0x0007 // Event message shape mismatch
	ErrTooDeep            ErrorCode = 0x0010 // VNode nesting over MaxVNodeDepth
	ErrTooLarge           ErrorCode = 0x0011 // Message or batch over limits
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrUnknown:
		return "Unknown"
	case ErrMalformedBatch:
		return "MalformedBatch"
	case ErrUnknownOp:
		return "UnknownOp"
	case ErrMalformedPath:
		return "MalformedPath"
	case ErrMalformedVNode:
		return "MalformedVNode"
	case ErrMalformedAttribute:
		return "MalformedAttribute"
	case ErrMalformedText:
		return "MalformedText"
	case ErrMalformedEvent:
		return "MalformedEvent"
	case ErrTooDeep:
		return "TooDeep"
	case ErrTooLarge:
		return "TooLarge"
	default:
		return "Unknown"
	}
}

// DecodeError describes an inbound message that does not match the
// expected patch or vnode shape.
type DecodeError struct {
	Code   ErrorCode // Fault classification
	Index  int       // Patch index within the batch, -1 if not applicable
	Where  string    // Location inside the patch (e.g. "vnode.children[2]")
	Reason string    // Human-readable detail
	Err    error     // Underlying JSON error, if any
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	msg := "protocol: " + e.Code.String()
	if e.Index >= 0 {
		msg += fmt.Sprintf(" at patch %d", e.Index)
	}
	if e.Where != "" {
		msg += " (" + e.Where + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

func decodeErr(code ErrorCode, where, reason string) *DecodeError {
	return &DecodeError{Code: code, Index: -1, Where: where, Reason: reason}
}

// atPatch stamps the patch index onto a decode error.
func atPatch(err error, index int) error {
	var de *DecodeError
	if errors.As(err, &de) && de.Index < 0 {
		de.Index = index
	}
	return err
}
