package doctree

import (
	"fmt"

	"github.com/wdcollab/wdcore/pkg/identity"
)

// CheckInvariants verifies spec.md §3 invariants 1-4 against the live tree
// reachable from the root (detached-but-retained history nodes are exempt
// — they are not part of "the tree" the invariants quantify over). Used by
// tests; not called on every mutation
// since Insert/Remove/Move already enforce these invariants by
// construction.
func (t *Tree) CheckInvariants() error {
	seen := make(map[identity.NodeID]bool)
	return t.checkSubtree(t.root, seen)
}

func (t *Tree) checkSubtree(id identity.NodeID, seen map[identity.NodeID]bool) error {
	if seen[id] {
		return fmt.Errorf("doctree: cycle detected at node %s", id)
	}
	seen[id] = true

	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("doctree: dangling child reference %s", id)
	}

	if n.Kind == KindTable {
		if err := t.checkTableGrid(n); err != nil {
			return err
		}
	}

	for _, c := range n.Children {
		child, ok := t.nodes[c]
		if !ok {
			return fmt.Errorf("doctree: child %s missing from arena", c)
		}
		if child.Parent != id {
			return fmt.Errorf("doctree: node %s's parent pointer does not match its container %s", c, id)
		}
		if !AllowsChild(n.Kind, child.Kind) {
			return fmt.Errorf("doctree: %s may not contain %s (node %s)", n.Kind, child.Kind, c)
		}
		if idx := childIndex(n, c); idx < 0 {
			return fmt.Errorf("doctree: child %s not found by index in parent %s", c, id)
		}
		if err := t.checkSubtree(c, seen); err != nil {
			return err
		}
	}
	return nil
}

// checkTableGrid verifies invariant 4: every row's cell count, counting
// grid-spans, equals the table's GridColumns.
func (t *Tree) checkTableGrid(table *Node) error {
	for _, rowID := range table.Children {
		row, ok := t.nodes[rowID]
		if !ok {
			continue
		}
		span := 0
		for _, cellID := range row.Children {
			cell, ok := t.nodes[cellID]
			if !ok {
				continue
			}
			s := cell.GridSpan
			if s < 1 {
				s = 1
			}
			span += s
		}
		if span != table.GridColumns {
			return fmt.Errorf("doctree: row %s spans %d columns, table grid has %d", rowID, span, table.GridColumns)
		}
	}
	return nil
}
