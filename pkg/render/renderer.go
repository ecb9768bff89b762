package render

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vango-dev/thinclient/pkg/dom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty enables indented output, one block element per line.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string

	// LiveValues writes an element's live value as its value attribute,
	// so edits made through interactions show up in the output.
	LiveValues bool

	// EventMarkers adds a data-on-<event> attribute for every event the
	// element forwards to the server.
	EventMarkers bool
}

// Renderer writes live trees as HTML.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// RenderToString renders the subtree rooted at n to an HTML string.
func (r *Renderer) RenderToString(n *dom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams the subtree rooted at n to w.
func (r *Renderer) RenderToWriter(w io.Writer, n *dom.Node) error {
	bw := bufio.NewWriter(w)
	if err := r.renderNode(bw, n, 0); err != nil {
		return err
	}
	return bw.Flush()
}

// renderNode dispatches on node type.
func (r *Renderer) renderNode(w *bufio.Writer, n *dom.Node, depth int) error {
	if n == nil {
		return nil
	}

	switch n.Type() {
	case dom.TextNode:
		_, err := w.WriteString(escapeHTML(n.Text()))
		return err
	case dom.ElementNode:
		return r.renderElement(w, n, depth)
	default:
		return fmt.Errorf("render: unknown node type %s", n.Type())
	}
}

// renderElement renders an element with its attributes and children.
// In pretty mode an element whose children include another element is
// laid out as a block, one child per line.
func (r *Renderer) renderElement(w *bufio.Writer, n *dom.Node, depth int) error {
	tag := n.Tag()

	w.WriteByte('<')
	w.WriteString(tag)
	r.renderAttributes(w, n)
	w.WriteByte('>')

	if isVoidElement(tag) {
		return nil
	}

	block := r.config.Pretty && !isInlineElement(tag) && hasElementChild(n)

	for _, c := range n.Children() {
		if block {
			w.WriteByte('\n')
			r.writeIndent(w, depth+1)
		}
		if err := r.renderNode(w, c, depth+1); err != nil {
			return err
		}
	}

	if block {
		w.WriteByte('\n')
		r.writeIndent(w, depth)
	}
	w.WriteString("</")
	w.WriteString(tag)
	w.WriteByte('>')
	return nil
}

// renderAttributes writes attributes in sorted order.
func (r *Renderer) renderAttributes(w *bufio.Writer, n *dom.Node) {
	attrs := n.Attributes()
	if r.config.LiveValues {
		if v, ok := n.Value(); ok {
			if attrs == nil {
				attrs = make(map[string]string, 1)
			}
			attrs[dom.ValueAttribute] = v
		}
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := attrs[k]
		if v == "" && isBooleanAttr(k) {
			w.WriteByte(' ')
			w.WriteString(k)
			continue
		}
		fmt.Fprintf(w, ` %s="%s"`, k, escapeAttr(v))
	}

	if r.config.EventMarkers {
		events := n.EventNames()
		sort.Strings(events)
		for _, e := range events {
			fmt.Fprintf(w, ` data-on-%s="true"`, strings.ToLower(e))
		}
	}
}

func (r *Renderer) writeIndent(w *bufio.Writer, depth int) {
	for i := 0; i < depth; i++ {
		w.WriteString(r.config.Indent)
	}
}

func hasElementChild(n *dom.Node) bool {
	for _, c := range n.Children() {
		if c.Type() == dom.ElementNode {
			return true
		}
	}
	return false
}
