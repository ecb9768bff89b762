package vdom

import (
	"strconv"
	"strings"
)

// Path locates a node by successive child indices from the tree root.
// The empty path denotes the root itself.
type Path []int

// String returns the path formatted as "[0 2 1]".
func (p Path) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, idx := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(idx))
	}
	b.WriteByte(']')
	return b.String()
}

// Child returns a new path addressing the i-th child of p.
// p is never modified.
func (p Path) Child(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, i)
}

// Parent returns the path of p's parent. ok is false for the root path.
func (p Path) Parent() (parent Path, ok bool) {
	if len(p) == 0 {
		return nil, false
	}
	return p[:len(p)-1 : len(p)-1], true
}

// IsRoot returns true if p addresses the tree root.
func (p Path) IsRoot() bool {
	return len(p) == 0
}

// Equal reports whether p and q address the same position.
func (p Path) Equal(q Path) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}
