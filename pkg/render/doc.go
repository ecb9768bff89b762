// Package render serializes the live tree to HTML.
//
// The thin client has no screen of its own; the HTML view is how the CLI
// shows the current state of a session and how desync snapshots are
// stored for later inspection.
//
// # Basic Usage
//
//	renderer := render.NewRenderer(render.RendererConfig{Pretty: true})
//	html, err := renderer.RenderToString(doc.Root())
//
// Output is deterministic: attributes are written in sorted order, text
// and attribute values are escaped, and void elements have no closing tag.
package render
