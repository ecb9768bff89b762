package client

import (
	"context"
	"errors"
	"testing"

	"github.com/vango-dev/thinclient/pkg/dom"
	"github.com/vango-dev/thinclient/pkg/protocol"
	"github.com/vango-dev/thinclient/pkg/vdom"
)

func newTestApplier(policy FaultPolicy) (*Applier, *recordingSender) {
	sender := &recordingSender{}
	doc := dom.NewDocument("")
	return NewApplier(doc, NewMaterializer(sender, "", nil), policy, nil), sender
}

func TestApplyEmptyBatchIsNoop(t *testing.T) {
	a, _ := newTestApplier(HaltBatch)
	ctx := context.Background()
	if _, err := a.Apply(ctx, []protocol.Patch{
		protocol.NewAddNodePatch(vdom.Path{}, vdom.Div(vdom.Attr("id", "x"), vdom.Text("t"))),
	}); err != nil {
		t.Fatal(err)
	}
	before := dom.Describe(a.Doc.Root())

	for _, patches := range [][]protocol.Patch{nil, {}, mustDecode(`[]`)} {
		res, err := a.Apply(ctx, patches)
		if err != nil || res.Applied != 0 || res.Skipped != 0 || len(res.Faults) != 0 {
			t.Errorf("Apply(empty) = %+v, %v", res, err)
		}
	}
	if !vdom.Equal(before, dom.Describe(a.Doc.Root())) {
		t.Error("empty batch changed the tree")
	}
}

func TestReplaceTextAtRoot(t *testing.T) {
	a, _ := newTestApplier(HaltBatch)
	root := a.Doc.Root()

	if _, err := a.Apply(context.Background(), mustDecode(`[["replace_text", [], "hi"]]`)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if a.Doc.Root() != root {
		t.Fatal("root element was replaced")
	}
	if root.ChildCount() != 1 {
		t.Fatalf("root children = %d, want 1", root.ChildCount())
	}
	if c := root.ChildAt(0); c.Type() != dom.TextNode || c.Text() != "hi" {
		t.Errorf("root content = %v %q, want text hi", c.Type(), c.Text())
	}
}

func TestReplaceNodeAtRootReplacesContent(t *testing.T) {
	a, _ := newTestApplier(HaltBatch)
	ctx := context.Background()
	_, _ = a.Apply(ctx, mustDecode(`[["add_node", [], ["p", {}, []]], ["add_node", [], ["p", {}, []]]]`))

	if _, err := a.Apply(ctx, mustDecode(`[["replace_node", [], ["main", {"id": "app"}, []]]]`)); err != nil {
		t.Fatal(err)
	}
	want := vdom.Div(vdom.El("main", vdom.Attr("id", "app")))
	if got := dom.Describe(a.Doc.Root()); !vdom.Equal(got, want) {
		t.Error("root content not replaced")
	}
}

func TestPatchesSeeEarlierPatches(t *testing.T) {
	a, _ := newTestApplier(HaltBatch)
	ctx := context.Background()
	if _, err := a.Apply(ctx, mustDecode(`[["add_node", [], ["div", {}, []]]]`)); err != nil {
		t.Fatal(err)
	}

	batch := mustDecode(`[["add_node", [0], ["text", null, "x"]], ["set_attribute", [0,0], ["value","y"]]]`)
	res, err := a.Apply(ctx, batch)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if res.Applied != 2 {
		t.Errorf("Applied = %d, want 2", res.Applied)
	}

	added, err := a.Doc.Resolve([]int{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if added.Text() != "x" {
		t.Errorf("text = %q, want x", added.Text())
	}
	if v, ok := added.Value(); !ok || v != "y" {
		t.Errorf("live value = %q, %v; want y", v, ok)
	}
}

func TestSetAttribute(t *testing.T) {
	a, _ := newTestApplier(HaltBatch)
	ctx := context.Background()
	_, _ = a.Apply(ctx, mustDecode(`[["add_node", [], ["input", {"value": "server"}, []]]]`))

	_, err := a.Apply(ctx, mustDecode(`[
		["set_attribute", [0], ["class", "wide"]],
		["set_attribute", [0], ["value", "live"]]
	]`))
	if err != nil {
		t.Fatal(err)
	}

	input, _ := a.Doc.Resolve([]int{0})
	if v, _ := input.Attribute("class"); v != "wide" {
		t.Errorf("class = %q", v)
	}
	if v, _ := input.Value(); v != "live" {
		t.Errorf("live value = %q, want live", v)
	}
	if v, _ := input.Attribute("value"); v != "server" {
		t.Errorf("value attribute = %q, must stay server", v)
	}
}

func TestReplaceNodeKeepsPosition(t *testing.T) {
	a, _ := newTestApplier(HaltBatch)
	ctx := context.Background()
	_, _ = a.Apply(ctx, mustDecode(`[
		["add_node", [], ["ul", {}, [["li", {}, [["text", null, "a"]]], ["li", {}, [["text", null, "b"]]], ["li", {}, [["text", null, "c"]]]]]]
	]`))

	if _, err := a.Apply(ctx, mustDecode(`[["replace_node", [0,1], ["li", {"class": "new"}, [["text", null, "B"]]]]]`)); err != nil {
		t.Fatal(err)
	}

	want := vdom.Div(vdom.El("ul",
		vdom.El("li", vdom.Text("a")),
		vdom.El("li", vdom.Attr("class", "new"), vdom.Text("B")),
		vdom.El("li", vdom.Text("c")),
	))
	if got := dom.Describe(a.Doc.Root()); !vdom.Equal(got, want) {
		t.Error("replace_node changed sibling order")
	}
}

func TestOutOfBounds(t *testing.T) {
	tests := []struct {
		name        string
		policy      FaultPolicy
		wantApplied int
		wantSkipped int
		wantFaults  int
		wantText    string
	}{
		{"halt drops the rest", HaltBatch, 1, 1, 1, "first"},
		{"continue attempts the rest", ContinueBatch, 2, 0, 1, "third"},
	}

	batch := `[
		["add_node", [], ["text", null, "first"]],
		["replace_text", [5], "never"],
		["replace_text", [0], "third"]
	]`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestApplier(tt.policy)
			res, err := a.Apply(context.Background(), mustDecode(batch))

			if !errors.Is(err, dom.ErrOutOfBounds) {
				t.Fatalf("error = %v, want ErrOutOfBounds", err)
			}
			var be *BatchError
			if !errors.As(err, &be) {
				t.Fatalf("error type = %T, want *BatchError", err)
			}
			var pf *PatchFault
			if !errors.As(err, &pf) || pf.Index != 1 {
				t.Errorf("fault = %+v, want index 1", pf)
			}
			var re *dom.ResolveError
			if !errors.As(err, &re) || re.Index != 5 || re.Len != 1 {
				t.Errorf("resolve error = %+v", re)
			}

			if res.Applied != tt.wantApplied || res.Skipped != tt.wantSkipped || len(res.Faults) != tt.wantFaults {
				t.Errorf("result = %+v", res)
			}
			if be.Skipped != tt.wantSkipped || be.Policy != tt.policy {
				t.Errorf("batch error = %+v", be)
			}
			if got := a.Doc.Root().ChildAt(0).Text(); got != tt.wantText {
				t.Errorf("text = %q, want %q", got, tt.wantText)
			}
			if a.State().Applying {
				t.Error("cursor should be Idle after a fault")
			}
		})
	}
}

func TestTypeMismatchIsPatchFault(t *testing.T) {
	a, _ := newTestApplier(HaltBatch)
	_, err := a.Apply(context.Background(), mustDecode(`[
		["add_node", [], ["text", null, "t"]],
		["set_attribute", [0], ["class", "x"]]
	]`))
	if !errors.Is(err, dom.ErrNotElement) {
		t.Errorf("error = %v, want ErrNotElement", err)
	}

	_, err = a.Apply(context.Background(), mustDecode(`[["add_node", [0], ["b", {}, []]]]`))
	if !errors.Is(err, dom.ErrNotElement) {
		t.Errorf("append to text error = %v, want ErrNotElement", err)
	}
}

func TestApplyState(t *testing.T) {
	a, _ := newTestApplier(HaltBatch)
	if s := a.State(); s.Applying || s.String() != "Idle" {
		t.Errorf("initial state = %v", s)
	}

	if _, err := a.Apply(context.Background(), mustDecode(`[["add_node", [], ["p", {}, []]]]`)); err != nil {
		t.Fatal(err)
	}
	if s := a.State(); s.Applying || s.String() != "Idle" {
		t.Errorf("final state = %v", s)
	}

	if got := (ApplyState{Applying: true, Index: 3, Total: 5}).String(); got != "Applying[3]" {
		t.Errorf("String() = %q", got)
	}
}

func TestParseFaultPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    FaultPolicy
		wantErr bool
	}{
		{"", HaltBatch, false},
		{"halt", HaltBatch, false},
		{"Continue", ContinueBatch, false},
		{"retry", HaltBatch, true},
	}
	for _, tt := range tests {
		got, err := ParseFaultPolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFaultPolicy(%q) = %v, %v", tt.in, got, err)
		}
		if err == nil && tt.in != "" && got.String() != "halt" && got.String() != "continue" {
			t.Errorf("String() = %q", got.String())
		}
	}
}
