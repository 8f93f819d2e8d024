// Package selection implements the cursor/range model over the document
// tree (spec.md §3 "Positions", §4.4 "Position rebasing").
package selection

import "github.com/wdcollab/wdcore/pkg/doctree"

// Selection is (anchor, focus); collapsed when anchor == focus.
type Selection struct {
	Anchor doctree.Position
	Focus  doctree.Position
}

// Collapsed reports whether the selection is a single cursor point.
func (s Selection) Collapsed() bool {
	return s.Anchor == s.Focus
}

// Collapse returns a collapsed selection at pos.
func Collapse(pos doctree.Position) Selection {
	return Selection{Anchor: pos, Focus: pos}
}

// Range returns the selection's start/end in document order. For same-node
// selections the lower offset is the start; cross-node ordering is left to
// the caller, which always knows the node ordering it produced the
// selection from (tree traversal order).
func (s Selection) Range() (start, end doctree.Position) {
	if s.Anchor.Node == s.Focus.Node && s.Anchor.Offset > s.Focus.Offset {
		return s.Focus, s.Anchor
	}
	return s.Anchor, s.Focus
}
