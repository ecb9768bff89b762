package client

import (
	"errors"
	"sync"

	"github.com/vango-dev/thinclient/pkg/protocol"
)

// recordingSender collects every event it is asked to send.
type recordingSender struct {
	mu     sync.Mutex
	events []protocol.Event
	err    error
}

func (r *recordingSender) SendEvent(handler string, args []any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, protocol.Event{Handler: handler, Arguments: args})
	return nil
}

func (r *recordingSender) Events() []protocol.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]protocol.Event(nil), r.events...)
}

var errSendFailed = errors.New("send failed")

func mustDecode(raw string) []protocol.Patch {
	patches, err := protocol.DecodeBatch([]byte(raw))
	if err != nil {
		panic(err)
	}
	return patches
}
