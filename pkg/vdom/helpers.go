package vdom

import "fmt"

// Attribute is a single literal attribute for El.
type Attribute struct {
	Key   string
	Value string
}

// Attr creates a literal attribute.
func Attr(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Events lists event names an element forwards to the server.
type Events []string

// On creates the reserved "on" binding for El.
func On(events ...string) Events {
	return Events(events)
}

// Text creates a text node.
func Text(content string) *VNode {
	return &VNode{
		Kind: KindText,
		Text: content,
	}
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *VNode {
	return Text(fmt.Sprintf(format, args...))
}

// El creates an element node. Arguments may be Attribute, Events,
// *VNode, []*VNode or string (a text child); anything else is ignored.
// An Attribute keyed "on" is treated as a single event name.
func El(tag string, args ...any) *VNode {
	node := &VNode{
		Kind: KindElement,
		Tag:  tag,
	}

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			continue
		case Attribute:
			if v.Key == OnAttribute {
				node.On = append(node.On, v.Value)
				continue
			}
			if node.Attrs == nil {
				node.Attrs = make(map[string]string)
			}
			node.Attrs[v.Key] = v.Value
		case Events:
			node.On = append(node.On, v...)
		case *VNode:
			if v != nil {
				node.Children = append(node.Children, v)
			}
		case []*VNode:
			for _, c := range v {
				if c != nil {
					node.Children = append(node.Children, c)
				}
			}
		case string:
			node.Children = append(node.Children, Text(v))
		}
	}

	return node
}

// Div creates a <div> element.
func Div(args ...any) *VNode { return El("div", args...) }

// Span creates a <span> element.
func Span(args ...any) *VNode { return El("span", args...) }

// P creates a <p> element.
func P(args ...any) *VNode { return El("p", args...) }

// Input creates an <input> element.
func Input(args ...any) *VNode { return El("input", args...) }

// Button creates a <button> element.
func Button(args ...any) *VNode { return El("button", args...) }
