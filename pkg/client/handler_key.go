package client

import "github.com/vango-dev/thinclient/pkg/protocol"

// DefaultKeyAttribute names the attribute whose value identifies an
// element in outbound handler keys.
const DefaultKeyAttribute = "key"

// HandlerKey joins an element key and an event name into the handler
// identifier sent to the server, e.g. "email.input". An empty key yields
// the bare event name.
func HandlerKey(key, event string) string {
	if key == "" {
		return event
	}
	return key + protocol.HandlerSeparator + event
}
