package transport

import (
	"net/http"
	"time"

	"github.com/vango-dev/thinclient/pkg/protocol"
)

// Config configures a Client.
type Config struct {
	// HandshakeTimeout bounds the WebSocket opening handshake.
	// Default: 10s
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each write.
	// Default: 5s
	WriteTimeout time.Duration

	// ReadLimit is the largest inbound message accepted.
	// Default: protocol.MaxMessageSize
	ReadLimit int64

	// SendQueue is the number of outbound events buffered before
	// SendEvent reports ErrSendQueueFull.
	// Default: 64
	SendQueue int

	// PingInterval is the keepalive interval. The connection is considered
	// dead after two intervals without any inbound traffic. A negative
	// value disables keepalive.
	// Default: 30s
	PingInterval time.Duration

	// Header is sent with the handshake request.
	Header http.Header
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		ReadLimit:        protocol.MaxMessageSize,
		SendQueue:        64,
		PingInterval:     30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = d.ReadLimit
	}
	if c.SendQueue <= 0 {
		c.SendQueue = d.SendQueue
	}
	if c.PingInterval == 0 {
		c.PingInterval = d.PingInterval
	} else if c.PingInterval < 0 {
		c.PingInterval = 0
	}
	return c
}
