// Package ir implements the AST simplifier (spec.md section 4.1): it
// turns the parser's tagged-JSON dict tree into a closed, structural
// intermediate representation with no semantic interpretation of its
// own. The shape mirrors the teacher's pkg/ast package -- a small set
// of typed node kinds rather than a generic dict walk downstream.
package ir

import (
	"encoding/json"
	"fmt"
)

// Node is one element of the simplified tree. Container nodes carry
// Slots; leaves carry exactly one of Str/Int/Bool/IsNone/Dict set.
type Node struct {
	Kind string

	// Leaf payloads.
	Str    *string
	Int    *int64
	Bool   *bool
	IsNone bool
	Dict   map[string]interface{}

	// Container payload: named children, each either a single node or
	// an ordered list of nodes (source order preserved).
	Slots map[string]Slot
}

// Slot is a named child of a container node: exactly one of Node or
// List is populated.
type Slot struct {
	Node *Node
	List []*Node
}

// rawNode mirrors the wire shape: {"kind": "...", "value": ..., "slots": {...}}.
type rawNode struct {
	Kind  string                     `json:"kind"`
	Value json.RawMessage           `json:"value"`
	Slots map[string]json.RawMessage `json:"slots"`
}

// decodeSlot decodes a slot, which is either a single raw node object
// or a JSON array of them; it sniffs which, since the wire format does
// not tag it.
func decodeSlot(raw json.RawMessage) (Slot, error) {
	trimmed := trimLeadingSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return Slot{}, fmt.Errorf("ir: decode list slot: %w", err)
		}
		list := make([]*Node, 0, len(items))
		for _, item := range items {
			n, err := Simplify(item)
			if err != nil {
				return Slot{}, err
			}
			list = append(list, n)
		}
		return Slot{List: list}, nil
	}
	n, err := Simplify(raw)
	if err != nil {
		return Slot{}, err
	}
	return Slot{Node: n}, nil
}

func trimLeadingSpace(b []byte) []byte {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t' || b[i] == '\n' || b[i] == '\r') {
		i++
	}
	return b[i:]
}

// Simplify converts one JSON value of the parser's tagged-dict tree
// into an ir.Node, recursing through container slots in source order.
// It performs no semantic interpretation: the mapping from wire kind
// to Node field is purely structural (spec.md section 4.1).
func Simplify(raw json.RawMessage) (*Node, error) {
	var rn rawNode
	if err := json.Unmarshal(raw, &rn); err != nil {
		return nil, fmt.Errorf("ir: decode node: %w", err)
	}

	switch rn.Kind {
	case "str":
		var s string
		if len(rn.Value) > 0 {
			if err := json.Unmarshal(rn.Value, &s); err != nil {
				return nil, fmt.Errorf("ir: decode str value: %w", err)
			}
		}
		return &Node{Kind: "str", Str: &s}, nil
	case "int":
		var v int64
		if len(rn.Value) > 0 {
			if err := json.Unmarshal(rn.Value, &v); err != nil {
				return nil, fmt.Errorf("ir: decode int value: %w", err)
			}
		}
		return &Node{Kind: "int", Int: &v}, nil
	case "bool":
		var v bool
		if len(rn.Value) > 0 {
			if err := json.Unmarshal(rn.Value, &v); err != nil {
				return nil, fmt.Errorf("ir: decode bool value: %w", err)
			}
		}
		return &Node{Kind: "bool", Bool: &v}, nil
	case "None":
		return &Node{Kind: "None", IsNone: true}, nil
	case "dict":
		m := map[string]interface{}{}
		if len(rn.Value) > 0 {
			if err := json.Unmarshal(rn.Value, &m); err != nil {
				return nil, fmt.Errorf("ir: decode dict value: %w", err)
			}
		}
		return &Node{Kind: "dict", Dict: m}, nil
	default:
		slots := make(map[string]Slot, len(rn.Slots))
		for name, raw := range rn.Slots {
			s, err := decodeSlot(raw)
			if err != nil {
				return nil, fmt.Errorf("ir: decode slot %q of %s: %w", name, rn.Kind, err)
			}
			slots[name] = s
		}
		return &Node{Kind: rn.Kind, Slots: slots}, nil
	}
}

// Child returns the single-node slot named name, or nil if absent.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	s, ok := n.Slots[name]
	if !ok {
		return nil
	}
	return s.Node
}

// List returns the list slot named name, or nil if absent.
func (n *Node) List(name string) []*Node {
	if n == nil {
		return nil
	}
	s, ok := n.Slots[name]
	if !ok {
		return nil
	}
	return s.List
}

// StrValue returns the string payload of a "str" leaf node, or "" if
// n is not a str leaf.
func (n *Node) StrValue() string {
	if n == nil || n.Str == nil {
		return ""
	}
	return *n.Str
}
