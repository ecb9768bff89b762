package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/vango-dev/thinclient/pkg/vdom"
)

// textTag marks a text node in the wire format.
const textTag = "text"

// DecodeVNode decodes a VNode from its tagged-array wire form.
// SECURITY: Enforces MaxVNodeDepth to prevent stack overflow attacks.
func DecodeVNode(raw json.RawMessage) (*vdom.VNode, error) {
	return decodeVNodeWithDepth(raw, "vnode", 0)
}

// decodeVNodeWithDepth decodes a VNode with depth tracking.
func decodeVNodeWithDepth(raw json.RawMessage, where string, depth int) (*vdom.VNode, error) {
	if err := checkDepth(depth, MaxVNodeDepth); err != nil {
		return nil, err
	}

	parts, ok := decodeTuple(raw, 3)
	if !ok {
		return nil, decodeErr(ErrMalformedVNode, where, "expected [tag, attributes, children]")
	}

	tag, ok := decodeString(parts[0])
	if !ok || tag == "" {
		return nil, decodeErr(ErrMalformedVNode, where, "tag must be a non-empty string")
	}

	if tag == textTag {
		text, ok := decodeString(parts[2])
		if !ok {
			return nil, decodeErr(ErrMalformedText, where, "text content must be a string")
		}
		return vdom.Text(text), nil
	}

	node := &vdom.VNode{
		Kind: vdom.KindElement,
		Tag:  tag,
	}

	if !isNull(parts[1]) {
		var attrs map[string]json.RawMessage
		if err := json.Unmarshal(parts[1], &attrs); err != nil {
			return nil, decodeErr(ErrMalformedAttribute, where+".attributes", "expected an object")
		}
		for key, val := range attrs {
			if key == vdom.OnAttribute {
				var events []string
				if err := json.Unmarshal(val, &events); err != nil {
					return nil, decodeErr(ErrMalformedAttribute, where+".attributes.on", "expected an array of event names")
				}
				node.On = events
				continue
			}
			s, ok := decodeScalar(val)
			if !ok {
				return nil, decodeErr(ErrMalformedAttribute, where+".attributes."+key, "value must be a string")
			}
			if node.Attrs == nil {
				node.Attrs = make(map[string]string, len(attrs))
			}
			node.Attrs[key] = s
		}
	}

	if isNull(parts[2]) {
		return nil, decodeErr(ErrMalformedVNode, where+".children", "expected an array, got null")
	}
	var children []json.RawMessage
	if err := json.Unmarshal(parts[2], &children); err != nil {
		return nil, decodeErr(ErrMalformedVNode, where+".children", "expected an array")
	}
	if len(children) > 0 {
		node.Children = make([]*vdom.VNode, len(children))
		for i, c := range children {
			child, err := decodeVNodeWithDepth(c, fmt.Sprintf("%s.children[%d]", where, i), depth+1)
			if err != nil {
				return nil, err
			}
			node.Children[i] = child
		}
	}

	return node, nil
}

// vnodeWire returns the JSON-marshalable wire form of v.
func vnodeWire(v *vdom.VNode) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("protocol: cannot encode nil vnode")
	}

	switch v.Kind {
	case vdom.KindText:
		return []any{textTag, nil, v.Text}, nil

	case vdom.KindElement:
		if v.Tag == textTag {
			return nil, fmt.Errorf("protocol: element tag %q is reserved", textTag)
		}
		attrs := make(map[string]any, len(v.Attrs)+1)
		for k, val := range v.Attrs {
			attrs[k] = val
		}
		if len(v.On) > 0 {
			attrs[vdom.OnAttribute] = v.On
		}
		children := make([]any, 0, len(v.Children))
		for _, c := range v.Children {
			w, err := vnodeWire(c)
			if err != nil {
				return nil, err
			}
			children = append(children, w)
		}
		return []any{v.Tag, attrs, children}, nil

	default:
		return nil, fmt.Errorf("protocol: cannot encode vnode kind %s", v.Kind)
	}
}

// EncodeVNode encodes a VNode to its tagged-array wire form.
func EncodeVNode(v *vdom.VNode) (json.RawMessage, error) {
	w, err := vnodeWire(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}
