// Package dom implements the live tree the thin client renders into.
//
// A Document owns exactly one root element, installed once and never
// replaced; patches only ever change its descendants. Nodes have no
// identity beyond their current position: Resolve walks a vdom.Path from
// the root through the children as they are right now, text nodes
// included.
//
// The tree is single-writer. Mutations happen on the session loop and
// nothing here is safe for concurrent use.
package dom
