package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/thinclient/pkg/protocol"
)

var (
	// ErrSendQueueFull is returned by SendEvent when the outbound queue
	// is full. The event is dropped.
	ErrSendQueueFull = errors.New("transport: send queue full")

	// ErrClosed is returned by SendEvent after Close.
	ErrClosed = errors.New("transport: connection closed")
)

// outbound is one queued event message.
type outbound struct {
	handler string
	data    []byte
}

// Client is a WebSocket connection to one session endpoint.
type Client struct {
	conn   *websocket.Conn
	config Config
	logger *slog.Logger

	onBatch     func(protocol.Batch) error
	onSendError func(handler string, err error)

	sendCh    chan outbound
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	seq uint64
}

// Dial opens a connection to endpoint. The returned Client must be
// closed by the caller.
func Dial(ctx context.Context, endpoint string, config Config, logger *slog.Logger) (*Client, error) {
	config = config.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: config.HandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, endpoint, config.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("transport: dial %s: %w (status %d)", endpoint, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("transport: dial %s: %w", endpoint, err)
	}

	return newClient(conn, config, logger.With("endpoint", endpoint)), nil
}

func newClient(conn *websocket.Conn, config Config, logger *slog.Logger) *Client {
	c := &Client{
		conn:   conn,
		config: config,
		logger: logger,
		sendCh: make(chan outbound, config.SendQueue),
		done:   make(chan struct{}),
	}
	conn.SetReadLimit(config.ReadLimit)
	if config.PingInterval > 0 {
		conn.SetPongHandler(func(string) error {
			return c.extendReadDeadline()
		})
	}

	c.wg.Add(1)
	go c.writeLoop()
	return c
}

// OnBatch registers the callback invoked for every inbound batch. It
// must be set before Run. An error from fn ends Run.
func (c *Client) OnBatch(fn func(protocol.Batch) error) {
	c.onBatch = fn
}

// OnSendError registers a callback for failed writes. It runs on the
// writer goroutine.
func (c *Client) OnSendError(fn func(handler string, err error)) {
	c.onSendError = fn
}

// Run reads messages until the connection closes, ctx is done, or a
// message fails to decode. Each message is decoded, numbered and handed
// to the OnBatch callback before the next one is read.
//
// A message that fails to decode is still handed to OnBatch, carrying
// only Raw, so it can be recorded; Run then returns.
//
// Run returns nil on a normal close, ctx.Err() on cancellation, and a
// *protocol.DecodeError for a malformed message.
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, c.Close)
	defer stop()

	if err := c.extendReadDeadline(); err != nil {
		return err
	}

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return c.readError(ctx, err)
		}
		if err := c.extendReadDeadline(); err != nil {
			return err
		}

		c.seq++
		patches, err := protocol.DecodeBatch(msg)
		if err != nil {
			c.logger.Error("batch decode error", "seq", c.seq, "error", err)
			if c.onBatch != nil {
				_ = c.onBatch(protocol.Batch{Seq: c.seq, Raw: msg})
			}
			return err
		}

		if c.onBatch == nil {
			continue
		}
		if err := c.onBatch(protocol.Batch{Seq: c.seq, Patches: patches, Raw: msg}); err != nil {
			return err
		}
	}
}

func (c *Client) readError(ctx context.Context, err error) error {
	select {
	case <-c.done:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	default:
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.logger.Info("connection closed by server")
		return nil
	}
	c.logger.Error("read error", "error", err)
	return fmt.Errorf("transport: read: %w", err)
}

func (c *Client) extendReadDeadline() error {
	if c.config.PingInterval <= 0 {
		return nil
	}
	return c.conn.SetReadDeadline(time.Now().Add(2 * c.config.PingInterval))
}

// SendEvent encodes an event message and queues it for writing. It never
// blocks: a full queue drops the event and returns ErrSendQueueFull.
func (c *Client) SendEvent(handler string, args []any) error {
	data, err := protocol.EncodeEvent(&protocol.Event{Handler: handler, Arguments: args})
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.sendCh <- outbound{handler: handler, data: data}:
		return nil
	default:
		c.logger.Warn("send queue full", "handler", handler)
		return ErrSendQueueFull
	}
}

// writeLoop is the only writer of data messages. It also sends keepalive
// pings.
func (c *Client) writeLoop() {
	defer c.wg.Done()

	var tick <-chan time.Time
	if c.config.PingInterval > 0 {
		ticker := time.NewTicker(c.config.PingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case msg := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				c.logger.Error("event write error", "handler", msg.handler, "error", err)
				if c.onSendError != nil {
					c.onSendError(msg.handler, err)
				}
			}

		case <-tick:
			deadline := time.Now().Add(c.config.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Debug("ping error", "error", err)
			}

		case <-c.done:
			return
		}
	}
}

// Done is closed when the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close sends a close frame and releases the connection. Events still
// queued are dropped. Close is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		deadline := time.Now().Add(c.config.WriteTimeout)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.conn.Close()
		c.wg.Wait()
	})
}

// Endpoint builds the per-session endpoint "<base>/ws/<sessionID>".
// http and https bases are mapped to ws and wss.
func Endpoint(base, sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, "/?#") {
		return "", fmt.Errorf("transport: invalid session ID %q", sessionID)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("transport: invalid base URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("transport: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("transport: base URL has no host")
	}
	u.Path = path.Join("/", u.Path, "ws", sessionID)
	return u.String(), nil
}
