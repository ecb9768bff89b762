package dom

import (
	"errors"
	"sort"
	"strings"
)

// NodeType distinguishes text nodes from elements.
type NodeType uint8

const (
	TextNode NodeType = iota
	ElementNode
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case TextNode:
		return "Text"
	case ElementNode:
		return "Element"
	default:
		return "Unknown"
	}
}

// ValueAttribute is the attribute mirrored by an element's live value.
const ValueAttribute = "value"

// valueElements are the elements whose live value starts out as their
// "value" attribute.
var valueElements = map[string]bool{
	"button":   true,
	"input":    true,
	"option":   true,
	"select":   true,
	"textarea": true,
}

var (
	// ErrNotElement is returned when an element-only operation targets a text node.
	ErrNotElement = errors.New("dom: not an element")

	// ErrNotText is returned when a text-only operation targets an element.
	ErrNotText = errors.New("dom: not a text node")

	// ErrDetached is returned when a node without a parent is asked to
	// replace itself.
	ErrDetached = errors.New("dom: node has no parent")

	// ErrHierarchy is returned when an insertion would create a cycle.
	ErrHierarchy = errors.New("dom: node is an ancestor of the parent")
)

// Node is a node of the live tree.
type Node struct {
	typ      NodeType
	tag      string
	text     string
	attrs    map[string]string
	value    string
	valueSet bool
	parent   *Node
	children []*Node
	handlers map[string][]Listener
}

// NewText creates a detached text node.
func NewText(text string) *Node {
	return &Node{typ: TextNode, text: text}
}

// NewElement creates a detached element node.
func NewElement(tag string) *Node {
	return &Node{typ: ElementNode, tag: tag}
}

// Type returns the node type.
func (n *Node) Type() NodeType { return n.typ }

// Tag returns the element tag name, or "" for text nodes.
func (n *Node) Tag() string { return n.tag }

// Text returns the content of a text node, or "" for elements.
func (n *Node) Text() string { return n.text }

// SetText changes the content of a text node.
func (n *Node) SetText(text string) error {
	if n.typ != TextNode {
		return ErrNotText
	}
	n.text = text
	return nil
}

// Attribute returns the value of the named attribute.
func (n *Node) Attribute(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttribute sets an attribute on an element.
func (n *Node) SetAttribute(name, value string) error {
	if n.typ != ElementNode {
		return ErrNotElement
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
	return nil
}

// RemoveAttribute removes an attribute. Removing a missing attribute is a no-op.
func (n *Node) RemoveAttribute(name string) {
	delete(n.attrs, name)
}

// Attributes returns a copy of the element's attributes.
func (n *Node) Attributes() map[string]string {
	if len(n.attrs) == 0 {
		return nil
	}
	out := make(map[string]string, len(n.attrs))
	for k, v := range n.attrs {
		out[k] = v
	}
	return out
}

// AttributeNames returns the attribute names in sorted order.
func (n *Node) AttributeNames() []string {
	if len(n.attrs) == 0 {
		return nil
	}
	names := make([]string, 0, len(n.attrs))
	for k := range n.attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Value returns the node's live value. Until SetValue is called a form
// control's live value follows its "value" attribute; other nodes have
// none. ok is false when there is no value.
func (n *Node) Value() (value string, ok bool) {
	if n.valueSet {
		return n.value, true
	}
	if n.typ != ElementNode || !valueElements[strings.ToLower(n.tag)] {
		return "", false
	}
	return n.Attribute(ValueAttribute)
}

// SetValue sets the node's live value without touching its attributes.
// Text nodes accept a live value too, matching a property assignment in a
// browser; it is never rendered.
func (n *Node) SetValue(value string) error {
	n.value = value
	n.valueSet = true
	return nil
}

// Parent returns the parent node, or nil for a detached node or root.
func (n *Node) Parent() *Node { return n.parent }

// ChildCount returns the number of children, text nodes included.
func (n *Node) ChildCount() int { return len(n.children) }

// ChildAt returns the i-th child, or nil if i is out of range.
func (n *Node) ChildAt(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Index returns the position of n among its siblings, or -1 if detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// AppendChild appends child as the last child of n, detaching it from any
// previous parent first.
func (n *Node) AppendChild(child *Node) error {
	if n.typ != ElementNode {
		return ErrNotElement
	}
	if child.contains(n) {
		return ErrHierarchy
	}
	child.detach()
	child.parent = n
	n.children = append(n.children, child)
	return nil
}

// ReplaceWith puts replacement in n's position among its siblings and
// detaches n.
func (n *Node) ReplaceWith(replacement *Node) error {
	parent := n.parent
	if parent == nil {
		return ErrDetached
	}
	if replacement == n {
		return nil
	}
	if replacement.contains(parent) {
		return ErrHierarchy
	}
	replacement.detach()
	i := n.Index()
	parent.children[i] = replacement
	replacement.parent = parent
	n.parent = nil
	return nil
}

// ReplaceChildren removes all children of n and appends the given nodes.
func (n *Node) ReplaceChildren(nodes ...*Node) error {
	if n.typ != ElementNode {
		return ErrNotElement
	}
	for _, c := range nodes {
		if c.contains(n) {
			return ErrHierarchy
		}
	}
	for _, c := range n.children {
		c.parent = nil
	}
	n.children = nil
	for _, c := range nodes {
		c.detach()
		c.parent = n
		n.children = append(n.children, c)
	}
	return nil
}

// detach removes n from its parent's child list.
func (n *Node) detach() {
	parent := n.parent
	if parent == nil {
		return
	}
	if i := n.Index(); i >= 0 {
		parent.children = append(parent.children[:i], parent.children[i+1:]...)
	}
	n.parent = nil
}

// contains reports whether other is n or a descendant of n.
func (n *Node) contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}
