package command

import (
	"unicode/utf8"

	"github.com/wdcollab/wdcore/pkg/document"
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/selection"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// InsertText inserts text at a position, splicing into the run the
// position resolves to, or creating a new run if the position's container
// (an empty paragraph, typically) holds none (spec.md §4.2).
type InsertText struct {
	At   doctree.Position
	Text string
}

// CoalesceKey groups consecutive InsertText commands for history's
// coalescing predicate (spec.md §4.3): same node, touching the same run.
func (c InsertText) CoalesceKey() string { return "InsertText:" + c.At.Node.String() }

func (c InsertText) Apply(principal string, st document.State) (document.State, Command, error) {
	if c.Text == "" {
		return document.State{}, nil, wderrors.New(wderrors.KindInvalidCommand, "InsertText", "empty insertion")
	}

	leaf, offset, ok := st.Doc.Tree.ResolveLeaf(c.At)
	if !ok {
		return document.State{}, nil, wderrors.New(wderrors.KindInvalidCommand, "InsertText", "position does not resolve")
	}

	if leaf.Kind == doctree.KindRun {
		splice := spliceText{Node: leaf.ID, Start: offset, End: offset, Replacement: c.Text}
		return splice.Apply(principal, st)
	}

	// No run to splice into: create one as a new child of the resolved
	// container at the resolved child index.
	if err := checkLocked(st.Doc, principal, leaf.ID); err != nil {
		return document.State{}, nil, err
	}
	if !doctree.AllowsChild(leaf.Kind, doctree.KindRun) {
		return document.State{}, nil, wderrors.New(wderrors.KindDocumentModelViolation, "InsertText", "position's container cannot hold a run")
	}

	run := doctree.NewNode(doctree.KindRun)
	run.Text = c.Text

	nextTree, err := st.Doc.Tree.Insert(run, leaf.ID, 0)
	if err != nil {
		return document.State{}, nil, err
	}

	inverse := removeNode{Target: run.ID}
	newSel := selection.Collapse(doctree.Position{Node: run.ID, Offset: utf8.RuneCountInString(c.Text)})
	return document.State{Doc: st.Doc.WithTree(nextTree), Selection: newSel}, inverse, nil
}

func (c InsertText) TransformSelection(sel selection.Selection) selection.Selection {
	n := utf8.RuneCountInString(c.Text)
	shift := func(pos doctree.Position) doctree.Position {
		if pos.Node == c.At.Node && pos.Offset >= c.At.Offset {
			return doctree.Position{Node: pos.Node, Offset: pos.Offset + n}
		}
		return pos
	}
	return selection.Selection{Anchor: shift(sel.Anchor), Focus: shift(sel.Focus)}
}

func (c InsertText) DisplayName() string { return "Typing" }
