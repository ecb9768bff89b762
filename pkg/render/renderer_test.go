package render

import (
	"bytes"
	"testing"

	"github.com/vango-dev/thinclient/pkg/dom"
)

func el(tag string, attrs map[string]string, children ...*dom.Node) *dom.Node {
	n := dom.NewElement(tag)
	for k, v := range attrs {
		_ = n.SetAttribute(k, v)
	}
	for _, c := range children {
		_ = n.AppendChild(c)
	}
	return n
}

func TestRenderToString(t *testing.T) {
	tests := []struct {
		name string
		node *dom.Node
		want string
	}{
		{
			name: "text",
			node: dom.NewText("hello"),
			want: "hello",
		},
		{
			name: "escaped text",
			node: dom.NewText(`<b>"x" & 'y'</b>`),
			want: "&lt;b&gt;&quot;x&quot; &amp; &#39;y&#39;&lt;/b&gt;",
		},
		{
			name: "element with sorted attributes",
			node: el("div", map[string]string{"id": "main", "class": "card"}, dom.NewText("hi")),
			want: `<div class="card" id="main">hi</div>`,
		},
		{
			name: "attribute escaping",
			node: el("p", map[string]string{"title": "a\"b\nc"}),
			want: `<p title="a&quot;b&#10;c"></p>`,
		},
		{
			name: "void element",
			node: el("input", map[string]string{"type": "text"}),
			want: `<input type="text">`,
		},
		{
			name: "boolean attribute",
			node: el("input", map[string]string{"disabled": ""}),
			want: `<input disabled>`,
		},
		{
			name: "nested",
			node: el("ul", nil, el("li", nil, dom.NewText("one")), el("li", nil, dom.NewText("two"))),
			want: `<ul><li>one</li><li>two</li></ul>`,
		},
	}

	r := NewRenderer(RendererConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.RenderToString(tt.node)
			if err != nil {
				t.Fatalf("RenderToString() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderToString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderPretty(t *testing.T) {
	tree := el("div", nil,
		el("h1", nil, dom.NewText("Title")),
		dom.NewText("loose"),
		el("p", nil, dom.NewText("a "), el("b", nil, dom.NewText("bold"))),
	)

	got, err := NewRenderer(RendererConfig{Pretty: true}).RenderToString(tree)
	if err != nil {
		t.Fatal(err)
	}
	want := "<div>\n" +
		"  <h1>Title</h1>\n" +
		"  loose\n" +
		"  <p>\n" +
		"    a \n" +
		"    <b>bold</b>\n" +
		"  </p>\n" +
		"</div>"
	if got != want {
		t.Errorf("pretty output:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderLiveValues(t *testing.T) {
	input := el("input", map[string]string{"value": "default"})
	_ = input.SetValue("typed")

	plain, _ := NewRenderer(RendererConfig{}).RenderToString(input)
	if plain != `<input value="default">` {
		t.Errorf("plain = %q", plain)
	}
	live, _ := NewRenderer(RendererConfig{LiveValues: true}).RenderToString(input)
	if live != `<input value="typed">` {
		t.Errorf("live = %q", live)
	}
}

func TestRenderEventMarkers(t *testing.T) {
	btn := el("button", nil, dom.NewText("Go"))
	btn.AddEventListener("click", func(*dom.Event) {})

	got, _ := NewRenderer(RendererConfig{EventMarkers: true}).RenderToString(btn)
	if got != `<button data-on-click="true">Go</button>` {
		t.Errorf("got %q", got)
	}
}

func TestRenderToWriterNil(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRenderer(RendererConfig{}).RenderToWriter(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("nil node rendered %q", buf.String())
	}
}
