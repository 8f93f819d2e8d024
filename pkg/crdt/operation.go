package crdt

import "github.com/wdcollab/wdcore/pkg/identity"

// OpKind tags an Operation the same way doctree.Kind tags a Node: one
// struct standing in for the sum type spec.md §4.4 describes
// (TextInsert/TextDelete/StructureInsert/StructureDelete/FormatSet/Move),
// since Go has no tagged unions and a type switch over six struct types
// is more ceremony than one struct with per-kind fields for a value this
// small.
type OpKind int

const (
	OpTextInsert OpKind = iota
	OpTextDelete
	OpStructureInsert
	OpStructureDelete
	OpFormatSet
	OpMove
)

func (k OpKind) String() string {
	switch k {
	case OpTextInsert:
		return "TextInsert"
	case OpTextDelete:
		return "TextDelete"
	case OpStructureInsert:
		return "StructureInsert"
	case OpStructureDelete:
		return "StructureDelete"
	case OpFormatSet:
		return "FormatSet"
	case OpMove:
		return "Move"
	default:
		return "Unknown"
	}
}

// Operation is one CRDT operation, carrying its own OpID and the sender's
// vector clock at send time (spec.md §4.4 "Every operation carries its
// OpId and the sender's vector clock at send time").
type Operation struct {
	ID    identity.OpID
	Stamp identity.VectorClock
	Kind  OpKind

	// TextInsert: Seq identifies which RGA text sequence the character
	// belongs to (the owning run's node id); ParentOp is the OpID of the
	// character immediately to its left, zero meaning "sequence start".
	Seq      identity.NodeID
	ParentOp identity.OpID
	Char     rune

	// TextDelete
	TargetOp identity.OpID

	// StructureInsert: Node is the node being placed. StructureInsert /
	// Move: Parent is the placed or moved node's new structural parent,
	// IndexAnchor the OpID of the sibling it goes immediately right of
	// (zero meaning "first child").
	Node        identity.NodeID
	NodeKind    int // doctree.Kind, stored as int to avoid a crdt->doctree dependency on the tagged field alone
	Parent      identity.NodeID
	IndexAnchor identity.OpID

	// StructureDelete / FormatSet / Move: the node a delete removes, a
	// format change targets, or a move relocates.
	Target identity.NodeID

	// FormatSet
	Attribute    string
	Value        any
	PriorValueOp identity.OpID
}
