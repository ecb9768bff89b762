// Package protocol implements the JSON wire format between the server and
// the thin client.
//
// Inbound messages carry an ordered batch of patches; outbound messages
// carry a single interaction event. Both are UTF-8 JSON text frames.
//
// # Patches
//
// A batch is a JSON array. Each patch is a tagged three-element array:
//
//	["replace_node",  path, vnode]
//	["add_node",      path, vnode]
//	["set_attribute", path, [name, value]]
//	["replace_text",  path, text]
//
// A path is an array of non-negative child indices counted from the live
// tree root. Patches in a batch are order dependent: every path is
// evaluated against the tree produced by the patches before it.
//
// # VNodes
//
//	["text", null, "content"]              text node
//	["div", {"class": "x"}, [child, ...]]  element
//
// The attributes object may carry the reserved "on" key, an array of event
// names the element forwards to the server.
//
// # Events
//
//	{"handler": "email.input", "arguments": ["a@b.c"]}
//
// handler is the element's key joined with the event name by a dot.
//
// # Usage Example
//
//	patches, err := protocol.DecodeBatch(msg)
//	if err != nil {
//	    // DecodeFault: the session cannot continue safely
//	}
//	for _, p := range patches {
//	    switch p := p.(type) {
//	    case *protocol.ReplaceNode:
//	    case *protocol.AddNode:
//	    case *protocol.SetAttribute:
//	    case *protocol.ReplaceText:
//	    }
//	}
//
// # File Structure
//
//   - patch.go: Patch variants and batch encoding/decoding
//   - vnode.go: VNode wire format
//   - event.go: Outbound event messages
//   - codec.go: Shared JSON scalar helpers
//   - limits.go: Depth and size limits
//   - error.go: Decode errors
package protocol
