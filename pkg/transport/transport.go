// Package transport carries CRDT operations between collaborating
// replicas over an opaque, reliable, ordered-per-sender channel (spec.md
// §6 "The transport is opaque (any reliable, ordered-per-sender channel
// works)"). It owns the wire encoding of Operation records and a
// websocket-backed Channel implementation; it does not interpret
// operations or decide when to apply them — that is pkg/crdt's job via
// Engine.Deliver.
package transport

import (
	"encoding/json"
	"fmt"

	"github.com/wdcollab/wdcore/pkg/crdt"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// Envelope is the self-describing wire record for one operation: a kind
// tag, the OpID, the sender's stamped vector clock, and the kind-specific
// payload (spec.md §6 "Operations are serialized as a self-describing
// record: kind tag, OpId, stamped clock, kind-specific payload"), grounded
// on the teacher's Message{ID,Type,Method,Params} wire shape.
type Envelope struct {
	Kind  string              `json:"kind"`
	ID    identity.OpID       `json:"id"`
	Stamp identity.VectorClock `json:"stamp"`

	Seq      identity.NodeID `json:"seq,omitempty"`
	ParentOp identity.OpID   `json:"parent_op,omitempty"`
	Char     rune            `json:"char,omitempty"`

	TargetOp identity.OpID `json:"target_op,omitempty"`

	Node        identity.NodeID `json:"node,omitempty"`
	NodeKind    int             `json:"node_kind,omitempty"`
	Parent      identity.NodeID `json:"parent,omitempty"`
	IndexAnchor identity.OpID   `json:"index_anchor,omitempty"`

	Target identity.NodeID `json:"target,omitempty"`

	Attribute    string        `json:"attribute,omitempty"`
	Value        any           `json:"value,omitempty"`
	PriorValueOp identity.OpID `json:"prior_value_op,omitempty"`
}

func kindTag(k crdt.OpKind) (string, error) {
	switch k {
	case crdt.OpTextInsert:
		return "text_insert", nil
	case crdt.OpTextDelete:
		return "text_delete", nil
	case crdt.OpStructureInsert:
		return "structure_insert", nil
	case crdt.OpStructureDelete:
		return "structure_delete", nil
	case crdt.OpFormatSet:
		return "format_set", nil
	case crdt.OpMove:
		return "move", nil
	default:
		return "", wderrors.New(wderrors.KindSerialization, "transport.Encode", fmt.Sprintf("unknown operation kind %d", k))
	}
}

func tagKind(tag string) (crdt.OpKind, error) {
	switch tag {
	case "text_insert":
		return crdt.OpTextInsert, nil
	case "text_delete":
		return crdt.OpTextDelete, nil
	case "structure_insert":
		return crdt.OpStructureInsert, nil
	case "structure_delete":
		return crdt.OpStructureDelete, nil
	case "format_set":
		return crdt.OpFormatSet, nil
	case "move":
		return crdt.OpMove, nil
	default:
		// Unknown kinds are errors, not silently skipped (spec.md §6).
		return 0, wderrors.New(wderrors.KindSerialization, "transport.Decode", fmt.Sprintf("unknown operation kind tag %q", tag))
	}
}

// Encode renders op as a wire Envelope.
func Encode(op crdt.Operation) (Envelope, error) {
	tag, err := kindTag(op.Kind)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Kind:         tag,
		ID:           op.ID,
		Stamp:        op.Stamp,
		Seq:          op.Seq,
		ParentOp:     op.ParentOp,
		Char:         op.Char,
		TargetOp:     op.TargetOp,
		Node:         op.Node,
		NodeKind:     op.NodeKind,
		Parent:       op.Parent,
		IndexAnchor:  op.IndexAnchor,
		Target:       op.Target,
		Attribute:    op.Attribute,
		Value:        op.Value,
		PriorValueOp: op.PriorValueOp,
	}, nil
}

// Decode reconstructs an Operation from a wire Envelope, rejecting unknown
// kind tags.
func Decode(env Envelope) (crdt.Operation, error) {
	kind, err := tagKind(env.Kind)
	if err != nil {
		return crdt.Operation{}, err
	}
	return crdt.Operation{
		ID:           env.ID,
		Stamp:        env.Stamp,
		Kind:         kind,
		Seq:          env.Seq,
		ParentOp:     env.ParentOp,
		Char:         env.Char,
		TargetOp:     env.TargetOp,
		Node:         env.Node,
		NodeKind:     env.NodeKind,
		Parent:       env.Parent,
		IndexAnchor:  env.IndexAnchor,
		Target:       env.Target,
		Attribute:    env.Attribute,
		Value:        env.Value,
		PriorValueOp: env.PriorValueOp,
	}, nil
}

// Marshal encodes op as its wire bytes.
func Marshal(op crdt.Operation) ([]byte, error) {
	env, err := Encode(op)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, wderrors.New(wderrors.KindSerialization, "transport.Marshal", err.Error())
	}
	return b, nil
}

// Unmarshal decodes wire bytes into an Operation.
func Unmarshal(data []byte) (crdt.Operation, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return crdt.Operation{}, wderrors.New(wderrors.KindSerialization, "transport.Unmarshal", err.Error())
	}
	return Decode(env)
}
