package dom

import (
	"errors"
	"fmt"

	"github.com/vango-dev/thinclient/pkg/vdom"
)

// ErrOutOfBounds is matched by every *ResolveError. It signals that the
// server's view of the tree shape has diverged from the live tree.
var ErrOutOfBounds = errors.New("dom: path out of bounds")

// ResolveError describes where a path left the live tree.
type ResolveError struct {
	Path  vdom.Path // Full path being resolved
	Step  int       // Position in Path that failed
	Index int       // Child index requested at that step
	Len   int       // Child count available at that step
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	return fmt.Sprintf("dom: path %s out of bounds at step %d: index %d, %d children",
		e.Path, e.Step, e.Index, e.Len)
}

// Is reports whether target is ErrOutOfBounds.
func (e *ResolveError) Is(target error) bool {
	return target == ErrOutOfBounds
}

// Resolve descends from root through path, one child index per step, and
// returns the node reached. The empty path resolves to root. Children are
// counted exactly as the live tree currently holds them.
func Resolve(root *Node, path []int) (*Node, error) {
	node := root
	for step, idx := range path {
		if idx < 0 || idx >= len(node.children) {
			return nil, &ResolveError{
				Path:  append(vdom.Path(nil), path...),
				Step:  step,
				Index: idx,
				Len:   len(node.children),
			}
		}
		node = node.children[idx]
	}
	return node, nil
}

// PathOf returns the current path from root to n. ok is false if n is
// not inside root's subtree.
func PathOf(root, n *Node) (path vdom.Path, ok bool) {
	for cur := n; cur != root; cur = cur.parent {
		if cur == nil {
			return nil, false
		}
		i := cur.Index()
		if i < 0 {
			return nil, false
		}
		path = append(path, i)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	if path == nil {
		path = vdom.Path{}
	}
	return path, true
}
