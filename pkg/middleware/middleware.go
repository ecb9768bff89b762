package middleware

import (
	"context"
	"errors"

	"github.com/vango-dev/thinclient/pkg/dom"
	"github.com/vango-dev/thinclient/pkg/protocol"
)

// Handler applies one batch to the live tree.
type Handler func(ctx context.Context, b protocol.Batch) error

// Middleware decorates a Handler.
type Middleware func(next Handler) Handler

// Chain composes middleware so the first one is outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			if mws[i] != nil {
				next = mws[i](next)
			}
		}
		return next
	}
}

type sessionIDKey struct{}

// WithSessionID returns a copy of ctx carrying the session ID.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// SessionID returns the session ID stored in ctx, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey{}).(string)
	return id
}

// Fault classes used as metric labels and span attributes.
const (
	FaultNone     = "none"
	FaultDesync   = "desync"
	FaultDecode   = "decode"
	FaultInternal = "internal"
)

// Classify maps a batch error to a low-cardinality fault class.
func Classify(err error) string {
	switch {
	case err == nil:
		return FaultNone
	case errors.Is(err, protocol.ErrDecode):
		return FaultDecode
	case errors.Is(err, dom.ErrOutOfBounds):
		return FaultDesync
	default:
		return FaultInternal
	}
}
