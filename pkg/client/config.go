package client

import (
	"context"
	"log/slog"

	"github.com/vango-dev/thinclient/pkg/middleware"
	"github.com/vango-dev/thinclient/pkg/protocol"
)

// DefaultInteractionQueue is the number of queued interactions a session
// buffers before Interact and Do report ErrQueueFull.
const DefaultInteractionQueue = 64

// SessionConfig holds the settings of one session.
type SessionConfig struct {
	// ID identifies the session in logs, journals and snapshots.
	// Default: a new ULID.
	ID string

	// RootTag is the tag of the mount element. Default: "div".
	RootTag string

	// KeyAttribute names the identifying attribute. Default: "key".
	KeyAttribute string

	// FaultPolicy decides the fate of a batch after a patch fault.
	FaultPolicy FaultPolicy

	// InteractionQueue bounds queued interactions.
	InteractionQueue int

	// Logger is the base logger. Default: slog.Default().
	Logger *slog.Logger
}

// Journal records session traffic.
type Journal interface {
	RecordBatch(ctx context.Context, sessionID string, b protocol.Batch, outcome error) error
	RecordEvent(ctx context.Context, sessionID string, e protocol.Event) error
}

// SnapshotStore persists rendered trees for desync analysis.
type SnapshotStore interface {
	Save(ctx context.Context, key string, html []byte) error
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithMiddleware appends batch middleware. The first one is outermost.
func WithMiddleware(mws ...middleware.Middleware) SessionOption {
	return func(s *Session) {
		s.middleware = append(s.middleware, mws...)
	}
}

// WithFaultHandler sets a callback invoked for every faulted batch and
// every decode fault.
func WithFaultHandler(fn func(err error)) SessionOption {
	return func(s *Session) {
		s.onFault = fn
	}
}

// WithJournal records every batch and outbound event.
func WithJournal(j Journal) SessionOption {
	return func(s *Session) {
		s.journal = j
	}
}

// WithSnapshots stores an HTML rendering of the live tree after every
// desync fault.
func WithSnapshots(store SnapshotStore) SessionOption {
	return func(s *Session) {
		s.snapshots = store
	}
}

// WithEventObserver is called after every outbound send with its outcome.
func WithEventObserver(fn func(handler string, err error)) SessionOption {
	return func(s *Session) {
		s.onEvent = fn
	}
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.KeyAttribute == "" {
		c.KeyAttribute = DefaultKeyAttribute
	}
	if c.InteractionQueue <= 0 {
		c.InteractionQueue = DefaultInteractionQueue
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
