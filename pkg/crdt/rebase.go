package crdt

import (
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/selection"
)

// RebaseForInsert adjusts pos for a remote insert of length runes at
// (node, at): an insert at-or-before pos's offset shifts pos right by
// length; an insert strictly after pos leaves it untouched (spec.md §4.4
// "Position rebasing").
func RebaseForInsert(pos doctree.Position, node identity.NodeID, at, length int) doctree.Position {
	if pos.Node != node || at > pos.Offset {
		return pos
	}
	return doctree.Position{Node: node, Offset: pos.Offset + length}
}

// RebaseForDelete adjusts pos for a remote delete of [start, end) on node:
// a position before start is untouched, a position inside the deleted
// range collapses to start, and a position after end shifts left by the
// deleted length.
func RebaseForDelete(pos doctree.Position, node identity.NodeID, start, end int) doctree.Position {
	if pos.Node != node {
		return pos
	}
	switch {
	case pos.Offset <= start:
		return pos
	case pos.Offset < end:
		return doctree.Position{Node: node, Offset: start}
	default:
		return doctree.Position{Node: node, Offset: pos.Offset - (end - start)}
	}
}

// RebaseSelectionForInsert rebases both ends of sel independently.
func RebaseSelectionForInsert(sel selection.Selection, node identity.NodeID, at, length int) selection.Selection {
	return selection.Selection{
		Anchor: RebaseForInsert(sel.Anchor, node, at, length),
		Focus:  RebaseForInsert(sel.Focus, node, at, length),
	}
}

// RebaseSelectionForDelete rebases both ends of sel independently; if the
// delete swallows the whole selection, both ends collapse to start and the
// result is itself collapsed.
func RebaseSelectionForDelete(sel selection.Selection, node identity.NodeID, start, end int) selection.Selection {
	return selection.Selection{
		Anchor: RebaseForDelete(sel.Anchor, node, start, end),
		Focus:  RebaseForDelete(sel.Focus, node, start, end),
	}
}

// RebaseAnchorForInsert/RebaseAnchorForDelete exist as named aliases for
// bookmark and comment anchors, which are themselves doctree.Position
// values: sharing RebaseForInsert/RebaseForDelete keeps every anchor kind
// (selection, bookmark, comment range) converging under the exact same
// rule, per spec.md §4.4's requirement that all position-shaped data
// rebase identically.
func RebaseAnchorForInsert(pos doctree.Position, node identity.NodeID, at, length int) doctree.Position {
	return RebaseForInsert(pos, node, at, length)
}

func RebaseAnchorForDelete(pos doctree.Position, node identity.NodeID, start, end int) doctree.Position {
	return RebaseForDelete(pos, node, start, end)
}
