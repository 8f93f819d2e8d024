package command

import (
	"github.com/wdcollab/wdcore/pkg/document"
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/selection"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// removeNode detaches a node from the tree. Unexported: it only ever
// appears as a computed inverse of an insert, or as a step a public
// command (DeleteRange collapsing a run to empty) reduces to internally.
type removeNode struct {
	Target identity.NodeID
}

func (c removeNode) Apply(principal string, st document.State) (document.State, Command, error) {
	if err := checkLocked(st.Doc, principal, c.Target); err != nil {
		return document.State{}, nil, err
	}
	n, ok := st.Doc.Tree.Get(c.Target)
	if !ok {
		return document.State{}, nil, wderrors.New(wderrors.KindInvalidCommand, "removeNode", "unknown node")
	}
	nextTree, sub, err := st.Doc.Tree.Remove(c.Target)
	if err != nil {
		return document.State{}, nil, err
	}

	inverse := reinsertNode{Sub: sub, Parent: sub.FormerParent, Index: sub.FormerIndex}
	newSel := rebaseSelectionOverRemoval(st.Selection, n, sub)
	return document.State{Doc: st.Doc.WithTree(nextTree), Selection: newSel}, inverse, nil
}

func (c removeNode) TransformSelection(sel selection.Selection) selection.Selection {
	return sel
}

func (c removeNode) DisplayName() string { return "Delete" }

// reinsertNode restores a previously removed subtree at its former
// attachment point (or a caller-supplied one). Unexported: it only appears
// as the computed inverse of removeNode/DeleteRange.
type reinsertNode struct {
	Sub    *doctree.RemovedSubtree
	Parent identity.NodeID
	Index  int
}

func (c reinsertNode) Apply(principal string, st document.State) (document.State, Command, error) {
	if err := checkLocked(st.Doc, principal, c.Parent); err != nil {
		return document.State{}, nil, err
	}
	nextTree, err := st.Doc.Tree.Reinsert(c.Sub, c.Parent, c.Index)
	if err != nil {
		return document.State{}, nil, err
	}
	inverse := removeNode{Target: c.Sub.Root.ID}
	return document.State{Doc: st.Doc.WithTree(nextTree), Selection: st.Selection}, inverse, nil
}

func (c reinsertNode) TransformSelection(sel selection.Selection) selection.Selection {
	return sel
}

func (c reinsertNode) DisplayName() string { return "Restore" }

// rebaseSelectionOverRemoval clamps any selection endpoint anchored to a
// removed node (or one of its descendants) to the node's former parent,
// since the node itself no longer resolves (spec.md §4.4 position
// rebasing applies the same clamp-on-delete rule to local edits, not only
// remote CRDT operations).
func rebaseSelectionOverRemoval(sel selection.Selection, removed *doctree.Node, sub *doctree.RemovedSubtree) selection.Selection {
	clamp := func(pos doctree.Position) doctree.Position {
		_, inSubtree := sub.Descendants[pos.Node]
		if pos.Node == removed.ID || inSubtree {
			return doctree.Position{Node: removed.Parent, Offset: 0}
		}
		return pos
	}
	return selection.Selection{Anchor: clamp(sel.Anchor), Focus: clamp(sel.Focus)}
}
