package client

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/vango-dev/thinclient/pkg/dom"
	"github.com/vango-dev/thinclient/pkg/vdom"
)

// ErrInvalidVNode is returned for a nil VNode or one of unknown kind.
var ErrInvalidVNode = errors.New("client: invalid vnode")

// EventSender transmits an event message to the server. Implementations
// must not block the caller for long; delivery is fire-and-forget.
type EventSender interface {
	SendEvent(handler string, args []any) error
}

// EventSenderFunc adapts a function to EventSender.
type EventSenderFunc func(handler string, args []any) error

// SendEvent calls f(handler, args).
func (f EventSenderFunc) SendEvent(handler string, args []any) error {
	return f(handler, args)
}

// Materializer builds live nodes from VNodes and binds their declared
// events to the Sender.
type Materializer struct {
	// Sender receives one message per fired binding.
	Sender EventSender

	// KeyAttribute names the identifying attribute. Default: "key".
	KeyAttribute string

	// Logger receives binding warnings and send failures.
	Logger *slog.Logger

	// OnSendError is called after a failed send, if set.
	OnSendError func(handler string, err error)

	sendFailures atomic.Uint64
}

// NewMaterializer creates a Materializer sending through sender.
func NewMaterializer(sender EventSender, keyAttribute string, logger *slog.Logger) *Materializer {
	return &Materializer{
		Sender:       sender,
		KeyAttribute: keyAttribute,
		Logger:       logger,
	}
}

// SendFailures returns how many event sends have failed.
func (m *Materializer) SendFailures() uint64 {
	return m.sendFailures.Load()
}

// Materialize builds the live subtree described by v. Children are
// appended in declared order; every attribute except the reserved "on"
// binding is set verbatim.
func (m *Materializer) Materialize(v *vdom.VNode) (*dom.Node, error) {
	return m.materialize(v, nil)
}

func (m *Materializer) materialize(v *vdom.VNode, at vdom.Path) (*dom.Node, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: nil node at %s", ErrInvalidVNode, at)
	}

	switch v.Kind {
	case vdom.KindText:
		return dom.NewText(v.Text), nil

	case vdom.KindElement:
		el := dom.NewElement(v.Tag)
		for _, name := range v.AttrKeys() {
			if name == vdom.OnAttribute {
				continue
			}
			if err := el.SetAttribute(name, v.Attrs[name]); err != nil {
				return nil, err
			}
		}
		m.bind(el, v)

		for i, child := range v.Children {
			c, err := m.materialize(child, at.Child(i))
			if err != nil {
				return nil, err
			}
			if err := el.AppendChild(c); err != nil {
				return nil, err
			}
		}
		return el, nil

	default:
		return nil, fmt.Errorf("%w: kind %s at %s", ErrInvalidVNode, v.Kind, at)
	}
}

// bind installs one listener per declared event. The element key is
// captured now; a later change to the key attribute does not rename the
// binding.
func (m *Materializer) bind(el *dom.Node, v *vdom.VNode) {
	if len(v.On) == 0 {
		return
	}

	key, ok := v.Attrs[m.keyAttribute()]
	if !ok {
		m.logger().Warn("element has event bindings but no key attribute",
			"tag", v.Tag,
			"key_attribute", m.keyAttribute(),
			"events", v.On)
	}

	for _, event := range v.On {
		handler := HandlerKey(key, event)
		el.AddEventListener(event, func(e *dom.Event) {
			var arg any
			if value, ok := e.Target.Value(); ok {
				arg = value
			}
			m.send(handler, []any{arg})
		})
	}
}

// send forwards one event message. Failures are logged and counted only;
// they never reach the UI.
func (m *Materializer) send(handler string, args []any) {
	if m.Sender == nil {
		m.logger().Warn("event dropped: no sender", "handler", handler)
		return
	}
	if err := m.Sender.SendEvent(handler, args); err != nil {
		m.sendFailures.Add(1)
		m.logger().Error("event send failed", "handler", handler, "error", err)
		if m.OnSendError != nil {
			m.OnSendError(handler, err)
		}
	}
}

func (m *Materializer) keyAttribute() string {
	if m.KeyAttribute == "" {
		return DefaultKeyAttribute
	}
	return m.KeyAttribute
}

func (m *Materializer) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}
