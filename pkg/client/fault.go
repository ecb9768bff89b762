package client

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vango-dev/thinclient/pkg/protocol"
)

// FaultPolicy decides what happens to the rest of a batch after a patch
// faults.
type FaultPolicy uint8

const (
	// HaltBatch drops every patch after the first fault. Patches already
	// applied stay applied.
	HaltBatch FaultPolicy = iota

	// ContinueBatch skips only the faulted patch and attempts the rest.
	ContinueBatch
)

// String returns the configuration name of the policy.
func (p FaultPolicy) String() string {
	switch p {
	case HaltBatch:
		return "halt"
	case ContinueBatch:
		return "continue"
	default:
		return fmt.Sprintf("FaultPolicy(%d)", uint8(p))
	}
}

// ParseFaultPolicy parses "halt" or "continue".
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch strings.ToLower(s) {
	case "", "halt":
		return HaltBatch, nil
	case "continue":
		return ContinueBatch, nil
	default:
		return HaltBatch, fmt.Errorf("client: unknown fault policy %q", s)
	}
}

// PatchFault is a patch that could not be applied.
type PatchFault struct {
	Index int            // Position of the patch in its batch
	Patch protocol.Patch // The patch itself
	Err   error          // Usually a *dom.ResolveError
}

// Error implements the error interface.
func (f *PatchFault) Error() string {
	return fmt.Sprintf("patch %d (%s %s): %v", f.Index, f.Patch.Op(), f.Patch.Target(), f.Err)
}

// Unwrap returns the underlying error.
func (f *PatchFault) Unwrap() error {
	return f.Err
}

// BatchError reports the faults of one batch application.
type BatchError struct {
	Seq     uint64
	Policy  FaultPolicy
	Faults  []*PatchFault
	Skipped int // Patches never attempted because of HaltBatch
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "client: batch %d: %d patch fault(s)", e.Seq, len(e.Faults))
	if e.Skipped > 0 {
		fmt.Fprintf(&b, ", %d dropped", e.Skipped)
	}
	if len(e.Faults) > 0 {
		b.WriteString(": ")
		b.WriteString(e.Faults[0].Error())
	}
	return b.String()
}

// Unwrap returns the individual faults so errors.Is and errors.As see
// through to the resolution errors.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Faults))
	for i, f := range e.Faults {
		errs[i] = f
	}
	return errs
}

// DecodeFault is an inbound message that could not be decoded. It ends
// the session: continuing would apply patches of unknown shape.
type DecodeFault struct {
	Seq uint64
	Err error
}

// Error implements the error interface.
func (f *DecodeFault) Error() string {
	return fmt.Sprintf("client: batch %d: decode fault: %v", f.Seq, f.Err)
}

// Unwrap returns the underlying decode error.
func (f *DecodeFault) Unwrap() error {
	return f.Err
}

// IsDecodeFault reports whether err is or wraps a decode failure.
func IsDecodeFault(err error) bool {
	var df *DecodeFault
	return errors.As(err, &df) || errors.Is(err, protocol.ErrDecode)
}
