package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/document"
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/selection"
)

func emptyDocState() document.State {
	doc := document.New()
	para := doc.Tree.MustGet(doc.Tree.Root()).Children[0]
	return document.State{Doc: doc, Selection: selection.Collapse(doctree.Position{Node: para})}
}

func TestInsertTextIntoEmptyParagraphCreatesRun(t *testing.T) {
	st := emptyDocState()
	para := st.Selection.Anchor.Node

	cmd := InsertText{At: doctree.Position{Node: para}, Text: "hello"}
	next, inverse, err := cmd.Apply("alice", st)
	require.NoError(t, err)

	paraNode := next.Doc.Tree.MustGet(para)
	require.Len(t, paraNode.Children, 1)
	run := next.Doc.Tree.MustGet(paraNode.Children[0])
	assert.Equal(t, "hello", run.Text)

	undone, _, err := inverse.Apply("alice", next)
	require.NoError(t, err)
	assert.Empty(t, undone.Doc.Tree.MustGet(para).Children)
}

func TestInsertTextSplicesIntoExistingRun(t *testing.T) {
	st := emptyDocState()
	para := st.Selection.Anchor.Node

	first, _, err := (InsertText{At: doctree.Position{Node: para}, Text: "helo"}).Apply("alice", st)
	require.NoError(t, err)
	run := first.Doc.Tree.MustGet(para).Children[0]

	second, inverse, err := (InsertText{At: doctree.Position{Node: run, Offset: 3}, Text: "l"}).Apply("alice", first)
	require.NoError(t, err)
	assert.Equal(t, "hello", second.Doc.Tree.MustGet(run).Text)

	undone, _, err := inverse.Apply("alice", second)
	require.NoError(t, err)
	assert.Equal(t, "helo", undone.Doc.Tree.MustGet(run).Text)
}

func TestDeleteRangeRemovesRunWhenEmptied(t *testing.T) {
	st := emptyDocState()
	para := st.Selection.Anchor.Node

	withText, _, err := (InsertText{At: doctree.Position{Node: para}, Text: "hi"}).Apply("alice", st)
	require.NoError(t, err)
	run := withText.Doc.Tree.MustGet(para).Children[0]

	next, inverse, err := (DeleteRange{
		Start: doctree.Position{Node: run, Offset: 0},
		End:   doctree.Position{Node: run, Offset: 2},
	}).Apply("alice", withText)
	require.NoError(t, err)
	assert.Empty(t, next.Doc.Tree.MustGet(para).Children)

	undone, _, err := inverse.Apply("alice", next)
	require.NoError(t, err)
	restoredRun := undone.Doc.Tree.MustGet(para).Children[0]
	assert.Equal(t, "hi", undone.Doc.Tree.MustGet(restoredRun).Text)
}

func TestDeleteRangeRejectsCrossRun(t *testing.T) {
	st := emptyDocState()
	para := st.Selection.Anchor.Node

	withA, _, err := (InsertText{At: doctree.Position{Node: para}, Text: "a"}).Apply("alice", st)
	require.NoError(t, err)
	runA := withA.Doc.Tree.MustGet(para).Children[0]

	// Force two separate runs by inserting a second one directly via the tree.
	runBNode := doctree.NewNode(doctree.KindRun)
	runBNode.Text = "b"
	treeWithB, err := withA.Doc.Tree.Insert(runBNode, para, 1)
	require.NoError(t, err)
	withB := document.State{Doc: withA.Doc.WithTree(treeWithB), Selection: withA.Selection}

	_, _, err = (DeleteRange{
		Start: doctree.Position{Node: runA, Offset: 0},
		End:   doctree.Position{Node: runBNode.ID, Offset: 1},
	}).Apply("alice", withB)
	assert.Error(t, err)
}
