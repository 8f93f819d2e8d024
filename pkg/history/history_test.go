package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/command"
	"github.com/wdcollab/wdcore/pkg/document"
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/selection"
)

func newDocState() document.State {
	doc := document.New()
	para := doc.Tree.MustGet(doc.Tree.Root()).Children[0]
	return document.State{Doc: doc, Selection: selection.Collapse(doctree.Position{Node: para})}
}

func apply(t *testing.T, h *History, st document.State, cmd command.Command, at time.Time) document.State {
	t.Helper()
	next, inverse, err := cmd.Apply("alice", st)
	require.NoError(t, err)
	h.Record(cmd, inverse, st.Selection, at)
	return next
}

func TestUndoRedoRoundTrip(t *testing.T) {
	h := New(DefaultCapacity, DefaultCoalesceWindow)
	st := newDocState()
	para := st.Selection.Anchor.Node
	base := time.Unix(0, 0)

	st = apply(t, h, st, command.InsertText{At: doctree.Position{Node: para}, Text: "hi"}, base)
	require.Len(t, st.Doc.Tree.MustGet(para).Children, 1)

	undone, sel, ok, err := h.Undo("alice", st)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, undone.Doc.Tree.MustGet(para).Children)
	assert.Equal(t, para, sel.Anchor.Node)

	redone, ok, err := h.Redo("alice", undone)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, redone.Doc.Tree.MustGet(para).Children, 1)
}

func TestCoalescesConsecutiveTypingWithinWindow(t *testing.T) {
	h := New(DefaultCapacity, time.Second)
	st := newDocState()
	para := st.Selection.Anchor.Node
	base := time.Unix(0, 0)

	st = apply(t, h, st, command.InsertText{At: doctree.Position{Node: para}, Text: "h"}, base)
	run := st.Doc.Tree.MustGet(para).Children[0]
	st = apply(t, h, st, command.InsertText{At: doctree.Position{Node: run, Offset: 1}, Text: "i"}, base.Add(100*time.Millisecond))

	assert.Equal(t, 1, h.Len(), "two touching inserts within the window coalesce into one entry")

	undone, _, ok, err := h.Undo("alice", st)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, undone.Doc.Tree.MustGet(para).Children, "undo reverts both coalesced inserts")
}

func TestDoesNotCoalesceAcrossWindow(t *testing.T) {
	h := New(DefaultCapacity, time.Second)
	st := newDocState()
	para := st.Selection.Anchor.Node
	base := time.Unix(0, 0)

	st = apply(t, h, st, command.InsertText{At: doctree.Position{Node: para}, Text: "h"}, base)
	run := st.Doc.Tree.MustGet(para).Children[0]
	apply(t, h, st, command.InsertText{At: doctree.Position{Node: run, Offset: 1}, Text: "i"}, base.Add(2*time.Second))

	assert.Equal(t, 2, h.Len())
}

func TestNewEditDropsRedoTail(t *testing.T) {
	h := New(DefaultCapacity, DefaultCoalesceWindow)
	st := newDocState()
	para := st.Selection.Anchor.Node
	base := time.Unix(0, 0)

	st = apply(t, h, st, command.InsertText{At: doctree.Position{Node: para}, Text: "a"}, base)
	undone, _, _, err := h.Undo("alice", st)
	require.NoError(t, err)
	require.True(t, h.CanRedo())

	apply(t, h, undone, command.InsertText{At: doctree.Position{Node: para}, Text: "b"}, base.Add(5*time.Second))
	assert.False(t, h.CanRedo())
}

func TestCapacityEvictsOldestEntry(t *testing.T) {
	h := New(2, DefaultCoalesceWindow)
	st := newDocState()
	para := st.Selection.Anchor.Node
	base := time.Unix(0, 0)

	for i := 0; i < 3; i++ {
		run := doctree.NewNode(doctree.KindRun)
		run.Text = "x"
		tr, err := st.Doc.Tree.Insert(run, para, i)
		require.NoError(t, err)
		st.Doc = st.Doc.WithTree(tr)
		h.Record(command.InsertImage{}, command.InsertImage{}, st.Selection, base.Add(time.Duration(i)*10*time.Second))
	}

	assert.Equal(t, 2, h.Len())
}
