package command

import (
	"unicode/utf8"

	"github.com/wdcollab/wdcore/pkg/document"
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/selection"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// spliceText replaces the rune range [Start,End) of a run's text with
// Replacement. It is the common primitive InsertText and DeleteRange both
// reduce to, and is its own inverse family: undoing a splice is another
// splice with the replaced range and the original text swapped back in.
// Unexported: callers use InsertText/DeleteRange; this only appears as a
// computed inverse.
type spliceText struct {
	Node        identity.NodeID
	Start       int
	End         int
	Replacement string
}

func (c spliceText) Apply(principal string, st document.State) (document.State, Command, error) {
	n, ok := st.Doc.Tree.Get(c.Node)
	if !ok || n.Kind != doctree.KindRun {
		return document.State{}, nil, wderrors.New(wderrors.KindInvalidCommand, "spliceText", "target is not a run")
	}
	if err := checkLocked(st.Doc, principal, c.Node); err != nil {
		return document.State{}, nil, err
	}

	runes := []rune(n.Text)
	if c.Start < 0 || c.End > len(runes) || c.Start > c.End {
		return document.State{}, nil, wderrors.New(wderrors.KindInvalidCommand, "spliceText", "range out of bounds")
	}
	removed := string(runes[c.Start:c.End])
	newText := string(runes[:c.Start]) + c.Replacement + string(runes[c.End:])

	nextTree, err := st.Doc.Tree.UpdateNode(c.Node, func(m *doctree.Node) { m.Text = newText })
	if err != nil {
		return document.State{}, nil, err
	}

	inverseEnd := c.Start + utf8.RuneCountInString(c.Replacement)
	inverse := spliceText{Node: c.Node, Start: c.Start, End: inverseEnd, Replacement: removed}

	newSel := c.TransformSelection(st.Selection)
	return document.State{Doc: st.Doc.WithTree(nextTree), Selection: newSel}, inverse, nil
}

func (c spliceText) TransformSelection(sel selection.Selection) selection.Selection {
	delta := utf8.RuneCountInString(c.Replacement) - (c.End - c.Start)
	return selection.Selection{
		Anchor: rebaseSplicePosition(sel.Anchor, c.Node, c.Start, c.End, delta),
		Focus:  rebaseSplicePosition(sel.Focus, c.Node, c.Start, c.End, delta),
	}
}

func rebaseSplicePosition(pos doctree.Position, node identity.NodeID, start, end, delta int) doctree.Position {
	if pos.Node != node {
		return pos
	}
	switch {
	case pos.Offset <= start:
		return pos
	case pos.Offset >= end:
		return doctree.Position{Node: node, Offset: pos.Offset + delta}
	default:
		return doctree.Position{Node: node, Offset: start}
	}
}

func (c spliceText) DisplayName() string { return "Edit text" }
