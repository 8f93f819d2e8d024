package command

import (
	"github.com/wdcollab/wdcore/pkg/document"
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/selection"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// DeleteRange removes the text between Start and End. Both must resolve
// into the same leaf run; deleting across runs or block boundaries is the
// caller's responsibility to decompose into multiple commands (a
// composite), since merging two paragraphs or splicing across a
// hyperlink boundary is a distinct structural edit, not a text delete.
type DeleteRange struct {
	Start doctree.Position
	End   doctree.Position
}

func (c DeleteRange) resolve(st document.State) (nodeID doctree.Position, lo, hi int, err error) {
	startLeaf, startOff, ok := st.Doc.Tree.ResolveLeaf(c.Start)
	if !ok {
		return doctree.Position{}, 0, 0, wderrors.New(wderrors.KindInvalidCommand, "DeleteRange", "start does not resolve")
	}
	endLeaf, endOff, ok := st.Doc.Tree.ResolveLeaf(c.End)
	if !ok {
		return doctree.Position{}, 0, 0, wderrors.New(wderrors.KindInvalidCommand, "DeleteRange", "end does not resolve")
	}
	if startLeaf.ID != endLeaf.ID {
		return doctree.Position{}, 0, 0, wderrors.New(wderrors.KindInvalidCommand, "DeleteRange", "cross-run delete requires a composite command")
	}
	if startOff > endOff {
		startOff, endOff = endOff, startOff
	}
	return doctree.Position{Node: startLeaf.ID}, startOff, endOff, nil
}

func (c DeleteRange) Apply(principal string, st document.State) (document.State, Command, error) {
	pos, lo, hi, err := c.resolve(st)
	if err != nil {
		return document.State{}, nil, err
	}
	if lo == hi {
		return document.State{}, nil, wderrors.New(wderrors.KindInvalidCommand, "DeleteRange", "empty range")
	}

	n, _ := st.Doc.Tree.Get(pos.Node)
	runeCount := len([]rune(n.Text))
	if lo == 0 && hi == runeCount {
		rm := removeNode{Target: pos.Node}
		return rm.Apply(principal, st)
	}

	splice := spliceText{Node: pos.Node, Start: lo, End: hi, Replacement: ""}
	return splice.Apply(principal, st)
}

func (c DeleteRange) TransformSelection(sel selection.Selection) selection.Selection {
	collapse := func(p doctree.Position) doctree.Position {
		if p.Node != c.Start.Node {
			return p
		}
		lo, hi := c.Start.Offset, c.End.Offset
		if lo > hi {
			lo, hi = hi, lo
		}
		switch {
		case p.Offset <= lo:
			return p
		case p.Offset >= hi:
			return doctree.Position{Node: p.Node, Offset: p.Offset - (hi - lo)}
		default:
			return doctree.Position{Node: p.Node, Offset: lo}
		}
	}
	return selection.Selection{Anchor: collapse(sel.Anchor), Focus: collapse(sel.Focus)}
}

func (c DeleteRange) DisplayName() string { return "Delete" }
