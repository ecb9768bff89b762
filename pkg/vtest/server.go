package vtest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/thinclient/pkg/protocol"
)

// DefaultTimeout bounds Accept and NextEvent.
const DefaultTimeout = 5 * time.Second

// Server is a fake remote-rendering server.
type Server struct {
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu        sync.Mutex
	conns     []*Conn
	connected chan *Conn
}

// NewServer starts a Server that accepts sessions at /ws/{session}. It is
// shut down when the test ends.
func NewServer(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		connected: make(chan *Conn, 16),
	}

	r := chi.NewRouter()
	r.Get("/ws/{session}", s.handleWebSocket)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.srv = httptest.NewServer(r)
	tb.Cleanup(s.Close)
	return s
}

// BaseURL returns the ws:// base URL of the server.
func (s *Server) BaseURL() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

// Endpoint returns the session endpoint for sessionID.
func (s *Server) Endpoint(sessionID string) string {
	return s.BaseURL() + "/ws/" + sessionID
}

// Accept waits for the next client connection.
func (s *Server) Accept(tb testing.TB) *Conn {
	tb.Helper()
	select {
	case c := <-s.connected:
		return c
	case <-time.After(DefaultTimeout):
		tb.Fatal("vtest: no client connected")
		return nil
	}
}

// Close closes every connection and stops the server.
func (s *Server) Close() {
	s.mu.Lock()
	conns := append([]*Conn(nil), s.conns...)
	s.mu.Unlock()
	for _, c := range conns {
		c.ws.Close()
	}
	s.srv.Close()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &Conn{
		SessionID: chi.URLParam(r, "session"),
		Header:    r.Header.Clone(),
		ws:        ws,
		events:    make(chan protocol.Event, 256),
		done:      make(chan struct{}),
	}
	s.mu.Lock()
	s.conns = append(s.conns, c)
	s.mu.Unlock()

	go c.readLoop()
	s.connected <- c
}

// Conn is the server side of one client connection.
type Conn struct {
	SessionID string
	Header    http.Header

	ws      *websocket.Conn
	writeMu sync.Mutex
	events  chan protocol.Event
	done    chan struct{}
}

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		e, err := protocol.DecodeEvent(msg)
		if err != nil {
			continue
		}
		c.events <- *e
	}
}

// SendPatches encodes patches as one batch message and sends it.
func (c *Conn) SendPatches(tb testing.TB, patches ...protocol.Patch) {
	tb.Helper()
	data, err := protocol.EncodeBatch(patches)
	if err != nil {
		tb.Fatalf("vtest: encode batch: %v", err)
	}
	c.SendRaw(tb, data)
}

// SendRaw sends data as one text message.
func (c *Conn) SendRaw(tb testing.TB, data []byte) {
	tb.Helper()
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		tb.Fatalf("vtest: write: %v", err)
	}
}

// NextEvent waits for the next event message from the client.
func (c *Conn) NextEvent(tb testing.TB) protocol.Event {
	tb.Helper()
	select {
	case e := <-c.events:
		return e
	case <-time.After(DefaultTimeout):
		tb.Fatal("vtest: no event received")
		return protocol.Event{}
	}
}

// NoEvent asserts that no event arrives within d.
func (c *Conn) NoEvent(tb testing.TB, d time.Duration) {
	tb.Helper()
	select {
	case e := <-c.events:
		tb.Errorf("vtest: unexpected event %q", e.Handler)
	case <-time.After(d):
	}
}

// CloseNormal sends a normal close frame to the client.
func (c *Conn) CloseNormal() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
}

// Closed is closed once the client side has gone away.
func (c *Conn) Closed() <-chan struct{} {
	return c.done
}
