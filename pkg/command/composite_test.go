package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/doctree"
)

func TestCompositeUndoesChildrenInReverseOrder(t *testing.T) {
	st := emptyDocState()
	para := st.Selection.Anchor.Node

	composite := Composite{
		Name: "Insert greeting",
		Children: []Command{
			InsertText{At: doctree.Position{Node: para}, Text: "hello"},
			InsertBookmark{At: doctree.Position{Node: para}, Name: "greet"},
		},
	}

	next, inverse, err := composite.Apply("alice", st)
	require.NoError(t, err)
	assert.Len(t, next.Doc.Tree.MustGet(para).Children, 2)
	_, ok := next.Doc.Bookmarks.Get("greet")
	assert.True(t, ok)

	undone, _, err := inverse.Apply("alice", next)
	require.NoError(t, err)
	assert.Empty(t, undone.Doc.Tree.MustGet(para).Children)
	_, ok = undone.Doc.Bookmarks.Get("greet")
	assert.False(t, ok)
}

func TestCompositeRollsBackBookmarksOnPartialFailure(t *testing.T) {
	st := emptyDocState()
	para := st.Selection.Anchor.Node

	composite := Composite{
		Children: []Command{
			InsertBookmark{At: doctree.Position{Node: para}, Name: "dup"},
			InsertBookmark{At: doctree.Position{Node: para}, Name: "dup"},
		},
	}

	_, _, err := composite.Apply("alice", st)
	require.Error(t, err)

	_, ok := st.Doc.Bookmarks.Get("dup")
	assert.False(t, ok, "registry mutation from the first child must be rolled back")
}
