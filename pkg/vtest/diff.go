package vtest

import (
	"errors"
	"sort"
	"testing"

	"github.com/vango-dev/thinclient/pkg/dom"
	"github.com/vango-dev/thinclient/pkg/protocol"
	"github.com/vango-dev/thinclient/pkg/vdom"
)

// ErrEmptyMount is returned by Diff when next leaves the mount empty.
// The protocol can replace the mount content but not clear it.
var ErrEmptyMount = errors.New("vtest: mount content cannot be cleared")

// Diff computes the patches that turn mount content prev into next, the
// way a remote renderer would. Both are the children of the root.
//
// The protocol has no remove or move operation, so a node that loses
// attributes, listeners or children is replaced wholesale. Elements with
// listeners are also replaced when any attribute changes, since their
// handler keys are fixed when they are materialized. The "value"
// attribute always forces a replace because set_attribute "value" only
// sets the live value.
func Diff(prev, next []*vdom.VNode) ([]protocol.Patch, error) {
	var patches []protocol.Patch
	root := vdom.Path{}

	if len(next) < len(prev) {
		if len(next) == 0 {
			return nil, ErrEmptyMount
		}
		patches = append(patches, protocol.NewReplaceNodePatch(root, next[0]))
		for _, n := range next[1:] {
			patches = append(patches, protocol.NewAddNodePatch(root, n))
		}
		return patches, nil
	}

	diffChildren(prev, next, root, &patches)
	return patches, nil
}

// diffChildren diffs a common prefix and appends the rest. Callers
// guarantee len(next) >= len(prev).
func diffChildren(prev, next []*vdom.VNode, parent vdom.Path, patches *[]protocol.Patch) {
	for i, p := range prev {
		diff(p, next[i], parent.Child(i), patches)
	}
	for _, n := range next[len(prev):] {
		*patches = append(*patches, protocol.NewAddNodePatch(parent, n))
	}
}

// diff recursively compares nodes and appends patches.
func diff(prev, next *vdom.VNode, path vdom.Path, patches *[]protocol.Patch) {
	if mustReplace(prev, next) {
		*patches = append(*patches, protocol.NewReplaceNodePatch(path, next))
		return
	}

	if prev.Kind == vdom.KindText {
		if prev.Text != next.Text {
			*patches = append(*patches, protocol.NewReplaceTextPatch(path, next.Text))
		}
		return
	}

	diffAttrs(prev, next, path, patches)
	diffChildren(prev.Children, next.Children, path, patches)
}

// mustReplace reports whether next cannot be reached from prev with
// in-place patches.
func mustReplace(prev, next *vdom.VNode) bool {
	if prev.Kind != next.Kind {
		return true
	}
	if prev.Kind == vdom.KindText {
		return false
	}
	if prev.Tag != next.Tag || len(next.Children) < len(prev.Children) {
		return true
	}
	if !sameEvents(prev.On, next.On) {
		return true
	}

	for key, pv := range prev.Attrs {
		nv, ok := next.Attrs[key]
		if !ok {
			return true
		}
		if nv != pv && (key == dom.ValueAttribute || len(next.On) > 0) {
			return true
		}
	}
	for key := range next.Attrs {
		if _, ok := prev.Attrs[key]; !ok && (key == dom.ValueAttribute || len(next.On) > 0) {
			return true
		}
	}
	return false
}

// diffAttrs emits set_attribute for added and changed attributes in key
// order.
func diffAttrs(prev, next *vdom.VNode, path vdom.Path, patches *[]protocol.Patch) {
	keys := make([]string, 0, len(next.Attrs))
	for key, nv := range next.Attrs {
		if pv, ok := prev.Attrs[key]; !ok || pv != nv {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		*patches = append(*patches, protocol.NewSetAttributePatch(path, key, next.Attrs[key]))
	}
}

func sameEvents(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SendDiff sends the patches that turn prev into next as one batch.
func (c *Conn) SendDiff(tb testing.TB, prev, next []*vdom.VNode) {
	tb.Helper()
	patches, err := Diff(prev, next)
	if err != nil {
		tb.Fatalf("vtest: diff: %v", err)
	}
	c.SendPatches(tb, patches...)
}
