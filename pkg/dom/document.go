package dom

// DefaultRootTag is the tag of the root element when none is given.
const DefaultRootTag = "div"

// Document owns the live tree rooted at a single mount element.
type Document struct {
	root *Node
}

// NewDocument creates a document with an empty root element.
func NewDocument(rootTag string) *Document {
	if rootTag == "" {
		rootTag = DefaultRootTag
	}
	return &Document{root: NewElement(rootTag)}
}

// Root returns the root element. It is the same node for the lifetime of
// the document.
func (d *Document) Root() *Node {
	return d.root
}

// Resolve locates the node at path, starting from the root.
func (d *Document) Resolve(path []int) (*Node, error) {
	return Resolve(d.root, path)
}

// Substitute puts replacement where target is. The root itself is never
// replaced: substituting the root replaces its whole content instead, so
// the mount point keeps exactly one root for the session.
func (d *Document) Substitute(target, replacement *Node) error {
	if target == d.root {
		return d.root.ReplaceChildren(replacement)
	}
	return target.ReplaceWith(replacement)
}

// Reset discards all content below the root.
func (d *Document) Reset() {
	_ = d.root.ReplaceChildren()
}
