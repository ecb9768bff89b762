package protocol

import (
	"errors"
	"strings"
	"testing"

	"github.com/vango-dev/thinclient/pkg/vdom"
)

func TestPatchOpString(t *testing.T) {
	tests := []struct {
		op   PatchOp
		want string
	}{
		{OpReplaceNode, "replace_node"},
		{OpAddNode, "add_node"},
		{OpSetAttribute, "set_attribute"},
		{OpReplaceText, "replace_text"},
		{PatchOp(0xFF), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("PatchOp(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
		if tt.want == "unknown" {
			continue
		}
		op, ok := ParseOp(tt.want)
		if !ok || op != tt.op {
			t.Errorf("ParseOp(%q) = %v, %v; want %v, true", tt.want, op, ok, tt.op)
		}
	}
}

func TestDecodeBatch(t *testing.T) {
	msg := `[
		["replace_node", [0, 1], ["div", {"class": "card", "on": ["click"], "key": "card"}, [["text", null, "hi"]]]],
		["add_node", [0], ["text", null, "x"]],
		["set_attribute", [0, 0], ["value", "y"]],
		["replace_text", [], "hello"]
	]`

	patches, err := DecodeBatch([]byte(msg))
	if err != nil {
		t.Fatalf("DecodeBatch() error = %v", err)
	}
	if len(patches) != 4 {
		t.Fatalf("len(patches) = %d, want 4", len(patches))
	}

	rn, ok := patches[0].(*ReplaceNode)
	if !ok {
		t.Fatalf("patches[0] = %T, want *ReplaceNode", patches[0])
	}
	if !rn.Path.Equal(vdom.Path{0, 1}) {
		t.Errorf("ReplaceNode.Path = %v, want [0 1]", rn.Path)
	}
	if rn.Node.Tag != "div" || rn.Node.Attrs["class"] != "card" || rn.Node.Attrs["key"] != "card" {
		t.Errorf("ReplaceNode.Node = %+v", rn.Node)
	}
	if _, ok := rn.Node.Attrs["on"]; ok {
		t.Error("'on' must not appear among literal attributes")
	}
	if len(rn.Node.On) != 1 || rn.Node.On[0] != "click" {
		t.Errorf("ReplaceNode.Node.On = %v, want [click]", rn.Node.On)
	}
	if len(rn.Node.Children) != 1 || rn.Node.Children[0].Text != "hi" {
		t.Errorf("ReplaceNode.Node.Children = %+v", rn.Node.Children)
	}

	an, ok := patches[1].(*AddNode)
	if !ok {
		t.Fatalf("patches[1] = %T, want *AddNode", patches[1])
	}
	if an.Node.Kind != vdom.KindText || an.Node.Text != "x" {
		t.Errorf("AddNode.Node = %+v", an.Node)
	}

	sa, ok := patches[2].(*SetAttribute)
	if !ok {
		t.Fatalf("patches[2] = %T, want *SetAttribute", patches[2])
	}
	if sa.Name != "value" || sa.Value != "y" || !sa.Path.Equal(vdom.Path{0, 0}) {
		t.Errorf("SetAttribute = %+v", sa)
	}

	rt, ok := patches[3].(*ReplaceText)
	if !ok {
		t.Fatalf("patches[3] = %T, want *ReplaceText", patches[3])
	}
	if rt.Text != "hello" || !rt.Path.IsRoot() {
		t.Errorf("ReplaceText = %+v", rt)
	}
}

func TestDecodeBatchEmpty(t *testing.T) {
	patches, err := DecodeBatch([]byte(`[]`))
	if err != nil {
		t.Fatalf("DecodeBatch() error = %v", err)
	}
	if len(patches) != 0 {
		t.Errorf("len(patches) = %d, want 0", len(patches))
	}
}

func TestDecodeBatchScalarAttributes(t *testing.T) {
	patches, err := DecodeBatch([]byte(`[
		["add_node", [], ["input", {"maxlength": 10, "disabled": true}, []]],
		["set_attribute", [0], ["size", 3.5]]
	]`))
	if err != nil {
		t.Fatalf("DecodeBatch() error = %v", err)
	}
	node := patches[0].(*AddNode).Node
	if node.Attrs["maxlength"] != "10" || node.Attrs["disabled"] != "true" {
		t.Errorf("Attrs = %v", node.Attrs)
	}
	if v := patches[1].(*SetAttribute).Value; v != "3.5" {
		t.Errorf("SetAttribute.Value = %q, want 3.5", v)
	}
}

func TestDecodeBatchFaults(t *testing.T) {
	tests := []struct {
		name  string
		msg   string
		code  ErrorCode
		index int
	}{
		{"not json", `{`, ErrMalformedBatch, -1},
		{"null message", `null`, ErrMalformedBatch, -1},
		{"null path", `[["replace_text", null, "gone"]]`, ErrMalformedPath, 0},
		{"null path after valid patch", `[["add_node", [], ["p", {}, []]], ["set_attribute", null, ["id", "x"]]]`, ErrMalformedPath, 1},
		{"vnode null children", `[["add_node", [], ["ul", {}, null]]]`, ErrMalformedVNode, 0},
		{"nested null children", `[["add_node", [], ["ul", {}, [["li", null, null]]]]]`, ErrMalformedVNode, 0},
		{"not an array", `{"op": "add_node"}`, ErrMalformedBatch, -1},
		{"short patch", `[["add_node", [0]]]`, ErrMalformedBatch, 0},
		{"unknown op", `[["replace_text", [], "a"], ["remove_node", [0], null]]`, ErrUnknownOp, 1},
		{"op not string", `[[1, [0], "a"]]`, ErrUnknownOp, 0},
		{"negative path", `[["replace_text", [-1], "a"]]`, ErrMalformedPath, 0},
		{"fractional path", `[["replace_text", [1.5], "a"]]`, ErrMalformedPath, 0},
		{"path not array", `[["replace_text", "0", "a"]]`, ErrMalformedPath, 0},
		{"text payload not string", `[["replace_text", [], 5]]`, ErrMalformedText, 0},
		{"attribute payload short", `[["set_attribute", [], ["value"]]]`, ErrMalformedAttribute, 0},
		{"attribute name empty", `[["set_attribute", [], ["", "x"]]]`, ErrMalformedAttribute, 0},
		{"attribute value object", `[["set_attribute", [], ["a", {}]]]`, ErrMalformedAttribute, 0},
		{"vnode not array", `[["add_node", [], "div"]]`, ErrMalformedVNode, 0},
		{"vnode empty tag", `[["add_node", [], ["", {}, []]]]`, ErrMalformedVNode, 0},
		{"vnode attrs not object", `[["add_node", [], ["div", [], []]]]`, ErrMalformedAttribute, 0},
		{"vnode on not array", `[["add_node", [], ["div", {"on": "click"}, []]]]`, ErrMalformedAttribute, 0},
		{"vnode children not array", `[["add_node", [], ["div", {}, "x"]]]`, ErrMalformedVNode, 0},
		{"text content not string", `[["add_node", [], ["text", null, 1]]]`, ErrMalformedText, 0},
		{"bad grandchild", `[["add_node", [], ["div", {}, [["p", {}, [["text"]]]]]]]`, ErrMalformedVNode, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBatch([]byte(tt.msg))
			if err == nil {
				t.Fatal("DecodeBatch() error = nil, want decode fault")
			}
			if !errors.Is(err, ErrDecode) {
				t.Errorf("errors.Is(err, ErrDecode) = false for %v", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error %T is not *DecodeError", err)
			}
			if de.Code != tt.code {
				t.Errorf("Code = %s, want %s (%v)", de.Code, tt.code, err)
			}
			if de.Index != tt.index {
				t.Errorf("Index = %d, want %d", de.Index, tt.index)
			}
		})
	}
}

func TestDecodeBatchDepthLimit(t *testing.T) {
	var b strings.Builder
	depth := MaxVNodeDepth + 2
	for i := 0; i < depth; i++ {
		b.WriteString(`["div", {}, [`)
	}
	b.WriteString(`["text", null, "deep"]`)
	for i := 0; i < depth; i++ {
		b.WriteString(`]]`)
	}

	_, err := DecodeBatch([]byte(`[["add_node", [], ` + b.String() + `]]`))
	var de *DecodeError
	if !errors.As(err, &de) || de.Code != ErrTooDeep {
		t.Fatalf("DecodeBatch() error = %v, want TooDeep", err)
	}
}

func TestDecodeBatchTooManyPatches(t *testing.T) {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i <= MaxPatchesPerBatch; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`["replace_text",[],"x"]`)
	}
	b.WriteByte(']')

	_, err := DecodeBatch([]byte(b.String()))
	var de *DecodeError
	if !errors.As(err, &de) || de.Code != ErrTooLarge {
		t.Fatalf("DecodeBatch() error = %v, want TooLarge", err)
	}
}

func TestEncodeBatchMatchesWire(t *testing.T) {
	patches := []Patch{
		NewAddNodePatch(vdom.Path{0}, vdom.Text("x")),
		NewSetAttributePatch(vdom.Path{0, 0}, "value", "y"),
		NewReplaceTextPatch(nil, "hi"),
	}

	data, err := EncodeBatch(patches)
	if err != nil {
		t.Fatalf("EncodeBatch() error = %v", err)
	}

	want := `[["add_node",[0],["text",null,"x"]],["set_attribute",[0,0],["value","y"]],["replace_text",[],"hi"]]`
	if string(data) != want {
		t.Errorf("EncodeBatch() = %s\nwant %s", data, want)
	}
}

func TestEncodeDecodeBatchStructure(t *testing.T) {
	tree := vdom.Div(
		vdom.Attr("key", "form"),
		vdom.Input(vdom.Attr("key", "email"), vdom.Attr("type", "email"), vdom.On("input", "change")),
		vdom.P(vdom.Text("hello"), vdom.Span("world")),
	)
	data, err := EncodeBatch([]Patch{NewReplaceNodePatch(vdom.Path{2, 0}, tree)})
	if err != nil {
		t.Fatalf("EncodeBatch() error = %v", err)
	}

	patches, err := DecodeBatch(data)
	if err != nil {
		t.Fatalf("DecodeBatch() error = %v", err)
	}
	rn := patches[0].(*ReplaceNode)
	if !vdom.Equal(rn.Node, tree) {
		t.Errorf("decoded tree differs from encoded tree")
	}
	input := rn.Node.Children[0]
	if len(input.On) != 2 || input.On[0] != "input" || input.On[1] != "change" {
		t.Errorf("input.On = %v, want [input change]", input.On)
	}
}

func TestEncodeRejectsInvalidNodes(t *testing.T) {
	if _, err := EncodeBatch([]Patch{NewAddNodePatch(nil, nil)}); err == nil {
		t.Error("expected error for nil vnode")
	}
	if _, err := EncodeVNode(vdom.El("text")); err == nil {
		t.Error("expected error for element with reserved tag")
	}
}

func TestDecodeNullAttributes(t *testing.T) {
	patches, err := DecodeBatch([]byte(`[["add_node", [0], ["br", null, []]]]`))
	if err != nil {
		t.Fatalf("DecodeBatch() error = %v", err)
	}
	add, ok := patches[0].(*AddNode)
	if !ok {
		t.Fatalf("patch = %T, want *AddNode", patches[0])
	}
	if add.Node.Tag != "br" || len(add.Node.Attrs) != 0 || len(add.Node.Children) != 0 {
		t.Errorf("node = %+v, want bare <br>", add.Node)
	}
}
