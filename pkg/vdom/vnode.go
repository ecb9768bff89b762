package vdom

import "sort"

// VKind is the node type discriminator.
type VKind uint8

const (
	KindText    VKind = iota // Plain text node
	KindElement              // <div>, <input>, etc.
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindText:
		return "Text"
	case KindElement:
		return "Element"
	default:
		return "Unknown"
	}
}

// OnAttribute is the reserved attribute key listing forwarded events.
const OnAttribute = "on"

// VNode is a virtual node as described by the server.
type VNode struct {
	Kind     VKind             // Node type
	Tag      string            // Element tag name (e.g., "div")
	Attrs    map[string]string // Literal attributes, never contains "on"
	On       []string          // Event names forwarded to the server
	Children []*VNode          // Child nodes, in declared order
	Text     string            // For KindText
}

// IsInteractive returns true if this node forwards any events.
func (v *VNode) IsInteractive() bool {
	return v != nil && v.Kind == KindElement && len(v.On) > 0
}

// AttrKeys returns the attribute names in sorted order.
func (v *VNode) AttrKeys() []string {
	if v == nil || len(v.Attrs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(v.Attrs))
	for k := range v.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of nodes in the subtree rooted at v.
func (v *VNode) Count() int {
	if v == nil {
		return 0
	}
	n := 1
	for _, c := range v.Children {
		n += c.Count()
	}
	return n
}

// Equal reports whether a and b describe the same structure: kind, tag,
// text, literal attributes and children order. Event bindings are ignored
// because they cannot be recovered from a live tree.
func Equal(a, b *VNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == KindText {
		return a.Text == b.Text
	}
	if a.Tag != b.Tag || len(a.Attrs) != len(b.Attrs) || len(a.Children) != len(b.Children) {
		return false
	}
	for k, av := range a.Attrs {
		if bv, ok := b.Attrs[k]; !ok || av != bv {
			return false
		}
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
