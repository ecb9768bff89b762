package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/vango-dev/thinclient/pkg/vdom"
)

// PatchOp is the type of patch operation.
type PatchOp uint8

// Patch operation constants.
const (
	OpReplaceNode  PatchOp = 0x01 // Replace node with a new subtree
	OpAddNode      PatchOp = 0x02 // Append a new subtree as last child
	OpSetAttribute PatchOp = 0x03 // Set one attribute or the live value
	OpReplaceText  PatchOp = 0x04 // Replace node with a text node
)

// String returns the wire tag of the patch operation.
func (op PatchOp) String() string {
	switch op {
	case OpReplaceNode:
		return "replace_node"
	case OpAddNode:
		return "add_node"
	case OpSetAttribute:
		return "set_attribute"
	case OpReplaceText:
		return "replace_text"
	default:
		return "unknown"
	}
}

// ParseOp maps a wire tag to its PatchOp.
func ParseOp(tag string) (PatchOp, bool) {
	switch tag {
	case "replace_node":
		return OpReplaceNode, true
	case "add_node":
		return OpAddNode, true
	case "set_attribute":
		return OpSetAttribute, true
	case "replace_text":
		return OpReplaceText, true
	default:
		return 0, false
	}
}

// Patch is one incremental mutation targeting a path in the live tree.
// The set of implementations is closed: *ReplaceNode, *AddNode,
// *SetAttribute and *ReplaceText.
type Patch interface {
	Op() PatchOp
	Target() vdom.Path
	isPatch()
}

// ReplaceNode discards the node at Path and puts a new subtree in its place.
type ReplaceNode struct {
	Path vdom.Path
	Node *vdom.VNode
}

// AddNode appends a new subtree as the last child of the node at Path.
type AddNode struct {
	Path vdom.Path
	Node *vdom.VNode
}

// SetAttribute sets one attribute of the node at Path.
type SetAttribute struct {
	Path  vdom.Path
	Name  string
	Value string
}

// ReplaceText discards the node at Path and puts a text node in its place.
type ReplaceText struct {
	Path vdom.Path
	Text string
}

func (*ReplaceNode) Op() PatchOp  { return OpReplaceNode }
func (*AddNode) Op() PatchOp      { return OpAddNode }
func (*SetAttribute) Op() PatchOp { return OpSetAttribute }
func (*ReplaceText) Op() PatchOp  { return OpReplaceText }

func (p *ReplaceNode) Target() vdom.Path  { return p.Path }
func (p *AddNode) Target() vdom.Path      { return p.Path }
func (p *SetAttribute) Target() vdom.Path { return p.Path }
func (p *ReplaceText) Target() vdom.Path  { return p.Path }

func (*ReplaceNode) isPatch()  {}
func (*AddNode) isPatch()      {}
func (*SetAttribute) isPatch() {}
func (*ReplaceText) isPatch()  {}

// NewReplaceNodePatch creates a ReplaceNode patch.
func NewReplaceNodePatch(path vdom.Path, node *vdom.VNode) Patch {
	return &ReplaceNode{Path: path, Node: node}
}

// NewAddNodePatch creates an AddNode patch.
func NewAddNodePatch(path vdom.Path, node *vdom.VNode) Patch {
	return &AddNode{Path: path, Node: node}
}

// NewSetAttributePatch creates a SetAttribute patch.
func NewSetAttributePatch(path vdom.Path, name, value string) Patch {
	return &SetAttribute{Path: path, Name: name, Value: value}
}

// NewReplaceTextPatch creates a ReplaceText patch.
func NewReplaceTextPatch(path vdom.Path, text string) Patch {
	return &ReplaceText{Path: path, Text: text}
}

// Batch is an ordered sequence of patches received in one message.
// Seq is assigned locally in arrival order; it is not part of the wire.
type Batch struct {
	Seq     uint64
	Patches []Patch
	Raw     []byte
}

// DecodeBatch decodes an inbound message into its ordered patches.
// Any shape mismatch, including an unknown patch tag, is a *DecodeError.
func DecodeBatch(data []byte) ([]Patch, error) {
	if len(data) > MaxMessageSize {
		return nil, decodeErr(ErrTooLarge, "", fmt.Sprintf("message is %d bytes", len(data)))
	}

	if isNull(data) {
		return nil, decodeErr(ErrMalformedBatch, "", "expected an array of patches, got null")
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		de := decodeErr(ErrMalformedBatch, "", "expected an array of patches")
		de.Err = err
		return nil, de
	}
	if len(raws) > MaxPatchesPerBatch {
		return nil, decodeErr(ErrTooLarge, "", fmt.Sprintf("batch has %d patches", len(raws)))
	}

	patches := make([]Patch, 0, len(raws))
	for i, raw := range raws {
		p, err := DecodePatch(raw)
		if err != nil {
			return nil, atPatch(err, i)
		}
		patches = append(patches, p)
	}
	return patches, nil
}

// DecodePatch decodes a single tagged patch array.
func DecodePatch(raw json.RawMessage) (Patch, error) {
	parts, ok := decodeTuple(raw, 3)
	if !ok {
		return nil, decodeErr(ErrMalformedBatch, "", "expected [op, path, payload]")
	}

	tag, ok := decodeString(parts[0])
	if !ok {
		return nil, decodeErr(ErrUnknownOp, "op", "op must be a string")
	}
	op, ok := ParseOp(tag)
	if !ok {
		return nil, decodeErr(ErrUnknownOp, "op", fmt.Sprintf("unknown op %q", tag))
	}

	path, err := decodePath(parts[1])
	if err != nil {
		return nil, err
	}

	switch op {
	case OpReplaceNode:
		node, err := DecodeVNode(parts[2])
		if err != nil {
			return nil, err
		}
		return &ReplaceNode{Path: path, Node: node}, nil

	case OpAddNode:
		node, err := DecodeVNode(parts[2])
		if err != nil {
			return nil, err
		}
		return &AddNode{Path: path, Node: node}, nil

	case OpSetAttribute:
		pair, ok := decodeTuple(parts[2], 2)
		if !ok {
			return nil, decodeErr(ErrMalformedAttribute, "payload", "expected [name, value]")
		}
		name, ok := decodeString(pair[0])
		if !ok || name == "" {
			return nil, decodeErr(ErrMalformedAttribute, "payload.name", "name must be a non-empty string")
		}
		value, ok := decodeScalar(pair[1])
		if !ok {
			return nil, decodeErr(ErrMalformedAttribute, "payload.value", "value must be a string")
		}
		return &SetAttribute{Path: path, Name: name, Value: value}, nil

	case OpReplaceText:
		text, ok := decodeString(parts[2])
		if !ok {
			return nil, decodeErr(ErrMalformedText, "payload", "text must be a string")
		}
		return &ReplaceText{Path: path, Text: text}, nil
	}

	return nil, decodeErr(ErrUnknownOp, "op", tag)
}

// decodePath decodes a JSON array of non-negative integers.
func decodePath(raw json.RawMessage) (vdom.Path, error) {
	if isNull(raw) {
		return nil, decodeErr(ErrMalformedPath, "path", "expected an array of integers, got null")
	}
	var idx []int
	if err := json.Unmarshal(raw, &idx); err != nil {
		return nil, decodeErr(ErrMalformedPath, "path", "expected an array of integers")
	}
	for _, i := range idx {
		if i < 0 {
			return nil, decodeErr(ErrMalformedPath, "path", fmt.Sprintf("negative index %d", i))
		}
	}
	return vdom.Path(idx), nil
}

// patchWire returns the JSON-marshalable wire form of p.
func patchWire(p Patch) (any, error) {
	path := p.Target()
	if path == nil {
		path = vdom.Path{}
	}

	switch p := p.(type) {
	case *ReplaceNode:
		node, err := vnodeWire(p.Node)
		if err != nil {
			return nil, err
		}
		return []any{OpReplaceNode.String(), []int(path), node}, nil
	case *AddNode:
		node, err := vnodeWire(p.Node)
		if err != nil {
			return nil, err
		}
		return []any{OpAddNode.String(), []int(path), node}, nil
	case *SetAttribute:
		return []any{OpSetAttribute.String(), []int(path), []string{p.Name, p.Value}}, nil
	case *ReplaceText:
		return []any{OpReplaceText.String(), []int(path), p.Text}, nil
	default:
		return nil, fmt.Errorf("protocol: cannot encode patch %T", p)
	}
}

// EncodePatch encodes a single patch to its tagged-array wire form.
func EncodePatch(p Patch) (json.RawMessage, error) {
	w, err := patchWire(p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// EncodeBatch encodes patches as one outbound server message.
func EncodeBatch(patches []Patch) ([]byte, error) {
	out := make([]any, 0, len(patches))
	for _, p := range patches {
		w, err := patchWire(p)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return json.Marshal(out)
}
