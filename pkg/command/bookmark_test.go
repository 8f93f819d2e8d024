package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/doctree"
)

func TestInsertBookmarkRegistersNameAndUndoFreesIt(t *testing.T) {
	st := emptyDocState()
	para := st.Selection.Anchor.Node

	next, inverse, err := (InsertBookmark{At: doctree.Position{Node: para}, Name: "intro"}).Apply("alice", st)
	require.NoError(t, err)

	node, ok := next.Doc.Bookmarks.Get("intro")
	require.True(t, ok)
	assert.Equal(t, doctree.KindBookmark, next.Doc.Tree.MustGet(node).Kind)

	undone, _, err := inverse.Apply("alice", next)
	require.NoError(t, err)
	_, ok = undone.Doc.Bookmarks.Get("intro")
	assert.False(t, ok)
}

func TestInsertBookmarkRejectsDuplicateName(t *testing.T) {
	st := emptyDocState()
	para := st.Selection.Anchor.Node

	next, _, err := (InsertBookmark{At: doctree.Position{Node: para}, Name: "intro"}).Apply("alice", st)
	require.NoError(t, err)

	_, _, err = (InsertBookmark{At: doctree.Position{Node: para}, Name: "intro"}).Apply("alice", next)
	assert.Error(t, err)
}

func TestInsertBookmarkRejectsInvalidName(t *testing.T) {
	st := emptyDocState()
	para := st.Selection.Anchor.Node

	_, _, err := (InsertBookmark{At: doctree.Position{Node: para}, Name: "2bad"}).Apply("alice", st)
	assert.Error(t, err)
}
