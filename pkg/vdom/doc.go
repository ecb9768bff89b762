// Package vdom defines the virtual node model received from the server.
//
// A VNode is an ephemeral description of a subtree: it is decoded from an
// inbound patch, consumed once by the materializer, and then discarded. The
// live tree (package dom) is authoritative afterwards.
//
// # Core Types
//
// VNode is a tagged union with two kinds: KindText carries Text, KindElement
// carries Tag, Attrs, On and Children. The reserved "on" attribute is kept
// apart from Attrs in the On field, so it never doubles as a literal
// attribute name.
//
// Path is an ordered sequence of child indices that locates one node,
// counted from the live tree root. Paths are transient; they are evaluated
// against the tree as it exists at the moment they are used.
//
// # Element API
//
// Trees are built with variadic factory functions, mostly in tests:
//
//	El("form", Attr("key", "signup"),
//	    El("input", Attr("key", "email"), On("input", "change")),
//	    El("button", Text("Send")),
//	)
package vdom
