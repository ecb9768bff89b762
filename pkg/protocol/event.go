package protocol

import (
	"encoding/json"
	"strings"
)

// HandlerSeparator joins an element key and an event name.
const HandlerSeparator = "."

// Event is an outbound interaction message.
type Event struct {
	Handler   string `json:"handler"`
	Arguments []any  `json:"arguments"`
}

// NewEvent creates an event carrying a single argument.
func NewEvent(handler string, value any) *Event {
	return &Event{Handler: handler, Arguments: []any{value}}
}

// EventName returns the part of Handler after the last separator.
func (e *Event) EventName() string {
	if i := strings.LastIndex(e.Handler, HandlerSeparator); i >= 0 {
		return e.Handler[i+1:]
	}
	return e.Handler
}

// EncodeEvent encodes an event message. A nil argument list is sent as
// an empty array.
func EncodeEvent(e *Event) ([]byte, error) {
	if e.Arguments == nil {
		e = &Event{Handler: e.Handler, Arguments: []any{}}
	}
	return json.Marshal(e)
}

// DecodeEvent decodes an event message.
func DecodeEvent(data []byte) (*Event, error) {
	var e struct {
		Handler   *string `json:"handler"`
		Arguments []any   `json:"arguments"`
	}
	if err := json.Unmarshal(data, &e); err != nil {
		de := decodeErr(ErrMalformedEvent, "", "expected {handler, arguments}")
		de.Err = err
		return nil, de
	}
	if e.Handler == nil {
		return nil, decodeErr(ErrMalformedEvent, "handler", "missing handler")
	}
	return &Event{Handler: *e.Handler, Arguments: e.Arguments}, nil
}
