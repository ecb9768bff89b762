package dom

import "github.com/vango-dev/thinclient/pkg/vdom"

// Describe re-describes the live subtree rooted at n as a VNode. Event
// bindings are not recoverable and the live value is not an attribute, so
// the result carries only tag, literal attributes, text and child order.
func Describe(n *Node) *vdom.VNode {
	if n == nil {
		return nil
	}
	if n.typ == TextNode {
		return vdom.Text(n.text)
	}

	v := &vdom.VNode{
		Kind:  vdom.KindElement,
		Tag:   n.tag,
		Attrs: n.Attributes(),
	}
	if len(n.children) > 0 {
		v.Children = make([]*vdom.VNode, len(n.children))
		for i, c := range n.children {
			v.Children[i] = Describe(c)
		}
	}
	return v
}
