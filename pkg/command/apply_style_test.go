package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/doctree"
)

func TestApplyCharacterStyleWholeRun(t *testing.T) {
	st := emptyDocState()
	para := st.Selection.Anchor.Node
	withText, _, err := (InsertText{At: doctree.Position{Node: para}, Text: "hello"}).Apply("alice", st)
	require.NoError(t, err)
	run := withText.Doc.Tree.MustGet(para).Children[0]

	bold := true
	next, inverse, err := (ApplyCharacterStyle{
		Start:      doctree.Position{Node: run, Offset: 0},
		End:        doctree.Position{Node: run, Offset: 5},
		Formatting: CharFormatting{Bold: &bold},
	}).Apply("alice", withText)
	require.NoError(t, err)
	assert.True(t, next.Doc.Tree.MustGet(run).Props.Bold)

	undone, _, err := inverse.Apply("alice", next)
	require.NoError(t, err)
	assert.False(t, undone.Doc.Tree.MustGet(run).Props.Bold)
}

func TestApplyCharacterStyleSplitsRunOnPartialRange(t *testing.T) {
	st := emptyDocState()
	para := st.Selection.Anchor.Node
	withText, _, err := (InsertText{At: doctree.Position{Node: para}, Text: "hello"}).Apply("alice", st)
	require.NoError(t, err)
	run := withText.Doc.Tree.MustGet(para).Children[0]

	italic := true
	next, inverse, err := (ApplyCharacterStyle{
		Start:      doctree.Position{Node: run, Offset: 1},
		End:        doctree.Position{Node: run, Offset: 3},
		Formatting: CharFormatting{Italic: &italic},
	}).Apply("alice", withText)
	require.NoError(t, err)

	children := next.Doc.Tree.MustGet(para).Children
	require.Len(t, children, 3)
	assert.Equal(t, "h", next.Doc.Tree.MustGet(children[0]).Text)
	assert.Equal(t, "el", next.Doc.Tree.MustGet(children[1]).Text)
	assert.True(t, next.Doc.Tree.MustGet(children[1]).Props.Italic)
	assert.Equal(t, "lo", next.Doc.Tree.MustGet(children[2]).Text)

	undone, _, err := inverse.Apply("alice", next)
	require.NoError(t, err)
	restored := undone.Doc.Tree.MustGet(para).Children
	require.Len(t, restored, 1)
	assert.Equal(t, "hello", undone.Doc.Tree.MustGet(restored[0]).Text)
}
