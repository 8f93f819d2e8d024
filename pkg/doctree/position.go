package doctree

import (
	"unicode/utf8"

	"github.com/wdcollab/wdcore/pkg/identity"
)

// Position is (node_id, offset): a Unicode scalar index within a leaf run,
// or a child index within a container (spec.md §3 "Positions").
type Position struct {
	Node   identity.NodeID
	Offset int
}

// ResolveLeaf walks from pos.Node to the nearest leaf if pos.Node is a
// container, returning the leaf node and an offset clamped into its
// content. A container with no children resolves to itself at offset 0.
// Used by commands that need the actual run+rune-offset a position
// designates.
func (t *Tree) ResolveLeaf(pos Position) (leaf *Node, offset int, ok bool) {
	n, exists := t.nodes[pos.Node]
	if !exists {
		return nil, 0, false
	}
	if IsLeaf(n.Kind) {
		return n, clamp(pos.Offset, 0, runeLen(n.Text)), true
	}
	// Container position: offset selects a child index; resolve into
	// that child's leading content.
	if len(n.Children) == 0 {
		return n, 0, true
	}
	idx := clamp(pos.Offset, 0, len(n.Children)-1)
	return t.ResolveLeaf(Position{Node: n.Children[idx], Offset: 0})
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Exists reports whether a node id is currently present in the arena.
func (t *Tree) Exists(id identity.NodeID) bool {
	_, ok := t.nodes[id]
	return ok
}
