package vdom

import "testing"

func TestVKindString(t *testing.T) {
	tests := []struct {
		kind VKind
		want string
	}{
		{KindElement, "Element"},
		{KindText, "Text"},
		{VKind(255), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("VKind.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVNodeIsInteractive(t *testing.T) {
	tests := []struct {
		name string
		node *VNode
		want bool
	}{
		{"nil node", nil, false},
		{"text node", Text("hello"), false},
		{"element without events", Div(Attr("class", "test")), false},
		{"element with input", Input(On("input")), true},
		{"element with on attr", Button(Attr("on", "click")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.IsInteractive(); got != tt.want {
				t.Errorf("IsInteractive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestElReservedOnKey(t *testing.T) {
	node := Input(Attr("key", "name"), Attr("on", "input"), On("change"))

	if _, ok := node.Attrs["on"]; ok {
		t.Error("reserved key 'on' must not be stored as a literal attribute")
	}
	if len(node.On) != 2 || node.On[0] != "input" || node.On[1] != "change" {
		t.Errorf("On = %v, want [input change]", node.On)
	}
	if node.Attrs["key"] != "name" {
		t.Errorf("Attrs[key] = %q, want %q", node.Attrs["key"], "name")
	}
}

func TestElChildren(t *testing.T) {
	node := Div(
		"first",
		Span(Text("second")),
		[]*VNode{Text("third"), nil, Text("fourth")},
		nil,
	)

	if len(node.Children) != 4 {
		t.Fatalf("len(Children) = %d, want 4", len(node.Children))
	}
	if node.Children[0].Text != "first" {
		t.Errorf("Children[0] = %q, want first", node.Children[0].Text)
	}
	if node.Children[1].Tag != "span" {
		t.Errorf("Children[1].Tag = %q, want span", node.Children[1].Tag)
	}
	if node.Children[3].Text != "fourth" {
		t.Errorf("Children[3] = %q, want fourth", node.Children[3].Text)
	}
	if got := node.Count(); got != 6 {
		t.Errorf("Count() = %d, want 6", got)
	}
}

func TestAttrKeysSorted(t *testing.T) {
	node := Div(Attr("id", "x"), Attr("class", "y"), Attr("data-a", "z"))
	keys := node.AttrKeys()
	want := []string{"class", "data-a", "id"}
	if len(keys) != len(want) {
		t.Fatalf("AttrKeys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("AttrKeys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
	if Text("x").AttrKeys() != nil {
		t.Error("text node should have no attribute keys")
	}
}

func TestEqual(t *testing.T) {
	base := func() *VNode {
		return Div(Attr("class", "a"), On("click"), P(Text("hi")), Input(Attr("value", "v")))
	}

	tests := []struct {
		name string
		a, b *VNode
		want bool
	}{
		{"identical", base(), base(), true},
		{"both nil", nil, nil, true},
		{"one nil", base(), nil, false},
		{"events ignored", base(), Div(Attr("class", "a"), P(Text("hi")), Input(Attr("value", "v"))), true},
		{"different text", Text("a"), Text("b"), false},
		{"different kind", Text("div"), Div(), false},
		{"different tag", Div(), Span(), false},
		{"different attr value", Div(Attr("class", "a")), Div(Attr("class", "b")), false},
		{"different attr key", Div(Attr("class", "a")), Div(Attr("id", "a")), false},
		{"child order", Div(Text("1"), Text("2")), Div(Text("2"), Text("1")), false},
		{"child count", Div(Text("1")), Div(Text("1"), Text("2")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}
