package client

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/vango-dev/thinclient/pkg/dom"
	"github.com/vango-dev/thinclient/pkg/middleware"
	"github.com/vango-dev/thinclient/pkg/protocol"
	"github.com/vango-dev/thinclient/pkg/render"
	"github.com/vango-dev/thinclient/pkg/vdom"
)

var (
	// ErrQueueFull is returned when the interaction queue is full.
	ErrQueueFull = errors.New("client: interaction queue full")

	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("client: session closed")

	// ErrNoListener is returned when an interaction reaches no listener.
	ErrNoListener = errors.New("client: no listener for event")
)

// BatchSource delivers decoded batches in arrival order. The channel is
// closed when the source ends; Err then reports why, or nil on a clean
// shutdown.
type BatchSource interface {
	Batches() <-chan protocol.Batch
	Err() error
}

// Session is one connection's client state: the live tree, the objects
// that mutate it, and the loop that serializes every mutation.
type Session struct {
	id     string
	config SessionConfig
	logger *slog.Logger

	doc          *dom.Document
	materializer *Materializer
	applier      *Applier
	sender       EventSender

	middleware []middleware.Middleware
	handler    middleware.Handler
	onFault    func(err error)
	onEvent    func(handler string, err error)
	journal    Journal
	snapshots  SnapshotStore

	seq        uint64
	lastResult Result

	dispatchCh chan func()
	done       chan struct{}
	closeOnce  sync.Once
}

// NewSession creates a session whose outbound events go to sender.
func NewSession(config SessionConfig, sender EventSender, opts ...SessionOption) *Session {
	config = config.withDefaults()
	if config.ID == "" {
		config.ID = NewSessionID()
	}

	s := &Session{
		id:         config.ID,
		config:     config,
		logger:     config.Logger.With("session_id", config.ID),
		doc:        dom.NewDocument(config.RootTag),
		sender:     sender,
		dispatchCh: make(chan func(), config.InteractionQueue),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.materializer = NewMaterializer(EventSenderFunc(s.sendEvent), config.KeyAttribute, s.logger)
	s.applier = NewApplier(s.doc, s.materializer, config.FaultPolicy, s.logger)
	s.handler = middleware.Chain(s.middleware...)(s.applyBatch)
	return s
}

// NewSessionID returns a new lexicographically sortable session ID.
func NewSessionID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Document returns the live tree. Read it only from the session loop or
// while Run is not active.
func (s *Session) Document() *dom.Document { return s.doc }

// Applier returns the session's patch applier.
func (s *Session) Applier() *Applier { return s.applier }

// Materializer returns the session's materializer.
func (s *Session) Materializer() *Materializer { return s.materializer }

// LastResult returns the result of the most recent batch.
func (s *Session) LastResult() Result { return s.lastResult }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Run is the session loop. It applies batches from src and queued
// interactions one at a time until ctx is done, the session is closed,
// or src ends. A decode fault ends Run with a *DecodeFault; a faulted
// batch does not.
func (s *Session) Run(ctx context.Context, src BatchSource) error {
	batches := src.Batches()
	for {
		select {
		case b, ok := <-batches:
			if !ok {
				return s.sourceEnded(ctx, src.Err())
			}
			if err := s.HandleBatch(ctx, b); err != nil && IsDecodeFault(err) {
				return err
			}

		case fn := <-s.dispatchCh:
			s.execute(fn)

		case <-ctx.Done():
			return ctx.Err()

		case <-s.done:
			return ErrSessionClosed
		}
	}
}

func (s *Session) sourceEnded(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, protocol.ErrDecode) {
		fault := &DecodeFault{Seq: s.seq + 1, Err: err}
		s.reportFault(ctx, fault)
		return fault
	}
	return err
}

// HandleBatch applies one batch through the middleware chain. It must
// run on the session loop or while Run is not active. Batches without a
// sequence number are numbered in arrival order; batches carrying only
// Raw are decoded first.
func (s *Session) HandleBatch(ctx context.Context, b protocol.Batch) error {
	s.seq++
	if b.Seq == 0 {
		b.Seq = s.seq
	} else {
		s.seq = b.Seq
	}

	if b.Patches == nil && len(b.Raw) > 0 {
		patches, err := protocol.DecodeBatch(b.Raw)
		if err != nil {
			fault := &DecodeFault{Seq: b.Seq, Err: err}
			s.record(ctx, b, fault)
			s.reportFault(ctx, fault)
			return fault
		}
		b.Patches = patches
	}

	ctx = middleware.WithSessionID(ctx, s.id)
	err := s.handler(ctx, b)
	s.record(ctx, b, err)
	if err != nil {
		s.reportFault(ctx, err)
	}
	return err
}

func (s *Session) applyBatch(ctx context.Context, b protocol.Batch) error {
	res, err := s.applier.Apply(ctx, b.Patches)
	s.lastResult = res

	var be *BatchError
	if errors.As(err, &be) {
		be.Seq = b.Seq
	}
	return err
}

func (s *Session) record(ctx context.Context, b protocol.Batch, outcome error) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordBatch(ctx, s.id, b, outcome); err != nil {
		s.logger.Warn("journal write failed", "seq", b.Seq, "error", err)
	}
}

// reportFault surfaces a fault: it is logged, snapshotted on desync and
// handed to the fault handler. Nothing is retried.
func (s *Session) reportFault(ctx context.Context, err error) {
	s.logger.Error("session fault",
		"fault", middleware.Classify(err),
		"error", err)

	if s.snapshots != nil && errors.Is(err, dom.ErrOutOfBounds) {
		s.snapshot(ctx)
	}
	if s.onFault != nil {
		s.onFault(err)
	}
}

func (s *Session) snapshot(ctx context.Context) {
	html, err := render.NewRenderer(render.RendererConfig{LiveValues: true}).
		RenderToString(s.doc.Root())
	if err != nil {
		s.logger.Warn("snapshot render failed", "error", err)
		return
	}
	key := fmt.Sprintf("%s/%08d.html", s.id, s.seq)
	if err := s.snapshots.Save(ctx, key, []byte(html)); err != nil {
		s.logger.Warn("snapshot save failed", "key", key, "error", err)
		return
	}
	s.logger.Info("desync snapshot saved", "key", key)
}

// sendEvent is the materializer's sender: it forwards to the transport
// and records the event.
func (s *Session) sendEvent(handler string, args []any) error {
	var err error
	if s.sender == nil {
		err = errors.New("client: no event sender")
	} else {
		err = s.sender.SendEvent(handler, args)
	}

	if s.onEvent != nil {
		s.onEvent(handler, err)
	}
	if s.journal != nil && err == nil {
		e := protocol.Event{Handler: handler, Arguments: args}
		if jerr := s.journal.RecordEvent(context.Background(), s.id, e); jerr != nil {
			s.logger.Warn("journal write failed", "handler", handler, "error", jerr)
		}
	}
	return err
}

// Trigger performs an interaction synchronously: when value is given the
// target's live value is set first, then the event fires at the target
// and bubbles. Trigger must run on the session loop or while Run is not
// active.
func (s *Session) Trigger(path vdom.Path, event string, value ...string) error {
	target, err := s.doc.Resolve(path)
	if err != nil {
		return err
	}
	if len(value) > 0 {
		if err := target.SetValue(value[0]); err != nil {
			return err
		}
	}
	if target.Dispatch(event) == 0 {
		return fmt.Errorf("%w: %s at %s", ErrNoListener, event, path)
	}
	return nil
}

// Interact queues a Trigger onto the session loop. Errors from the
// interaction itself are logged.
func (s *Session) Interact(path vdom.Path, event string, value ...string) error {
	path = append(vdom.Path(nil), path...)
	return s.Do(func() {
		if err := s.Trigger(path, event, value...); err != nil {
			s.logger.Warn("interaction failed",
				"path", path.String(),
				"event", event,
				"error", err)
		}
	})
}

// Do queues fn onto the session loop. It does not block.
func (s *Session) Do(fn func()) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.dispatchCh <- fn:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Session) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("dispatch panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Close stops Run. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// ChanSource is a BatchSource fed by Push, typically from a transport's
// batch callback.
type ChanSource struct {
	ch   chan protocol.Batch
	mu   sync.Mutex
	err  error
	once sync.Once
	done chan struct{}
}

// NewChanSource creates a source with the given buffer. Zero makes every
// Push wait until the session takes the batch.
func NewChanSource(buffer int) *ChanSource {
	return &ChanSource{
		ch:   make(chan protocol.Batch, buffer),
		done: make(chan struct{}),
	}
}

// Push delivers b. It blocks until the batch is taken, ctx is done or the
// source is closed.
func (c *ChanSource) Push(ctx context.Context, b protocol.Batch) error {
	select {
	case <-c.done:
		return ErrSessionClosed
	default:
	}
	select {
	case c.ch <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrSessionClosed
	}
}

// Close ends the source with err. Only the first call has any effect.
// Close must not race with a Push that is still in flight.
func (c *ChanSource) Close(err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
		close(c.ch)
	})
}

// Batches implements BatchSource.
func (c *ChanSource) Batches() <-chan protocol.Batch { return c.ch }

// Err implements BatchSource.
func (c *ChanSource) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
