package doctree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/identity"
)

func firstParagraph(t *testing.T, tr *Tree) identity.NodeID {
	t.Helper()
	root := tr.MustGet(tr.Root())
	require.Len(t, root.Children, 1)
	return root.Children[0]
}

func TestNewTreeHasRootAndEmptyParagraph(t *testing.T) {
	tr := New()
	require.NoError(t, tr.CheckInvariants())

	root := tr.MustGet(tr.Root())
	assert.Equal(t, KindDocument, root.Kind)
	assert.Len(t, root.Children, 1)

	para := tr.MustGet(root.Children[0])
	assert.Equal(t, KindParagraph, para.Kind)
	assert.Empty(t, para.Children)
}

func TestInsertRejectsDisallowedChildKind(t *testing.T) {
	tr := New()
	para := firstParagraph(t, tr)

	table := newNode(KindTable)
	_, err := tr.Insert(table, para, 0)
	assert.Error(t, err)
}

func TestInsertRunIntoParagraph(t *testing.T) {
	tr := New()
	para := firstParagraph(t, tr)

	run := newNode(KindRun)
	run.Text = "hello"

	next, err := tr.Insert(run, para, 0)
	require.NoError(t, err)
	require.NoError(t, next.CheckInvariants())

	paraNode := next.MustGet(para)
	require.Len(t, paraNode.Children, 1)

	got := next.MustGet(paraNode.Children[0])
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, para, got.Parent)

	// Original tree is untouched (value semantics).
	assert.Empty(t, tr.MustGet(para).Children)
}

func TestRemoveDetachesAndReinsertRestores(t *testing.T) {
	tr := New()
	para := firstParagraph(t, tr)
	run := newNode(KindRun)
	run.Text = "hello"

	withRun, err := tr.Insert(run, para, 0)
	require.NoError(t, err)

	removed, sub, err := withRun.Remove(run.ID)
	require.NoError(t, err)
	require.NoError(t, removed.CheckInvariants())
	assert.Empty(t, removed.MustGet(para).Children)

	restored, err := removed.Reinsert(sub, para, 0)
	require.NoError(t, err)
	require.NoError(t, restored.CheckInvariants())
	assert.Equal(t, "hello", restored.MustGet(run.ID).Text)
}

func TestRemoveRootFails(t *testing.T) {
	tr := New()
	_, _, err := tr.Remove(tr.Root())
	assert.Error(t, err)
}

func TestMoveForbidsMovingUnderOwnDescendant(t *testing.T) {
	tr := New()
	para := firstParagraph(t, tr)
	link := newNode(KindHyperlink)

	withLink, err := tr.Insert(link, para, 0)
	require.NoError(t, err)

	_, err = withLink.Move(para, link.ID, 0)
	assert.Error(t, err)
}

func TestAncestorsAndEnclosingContainer(t *testing.T) {
	tr := New()
	para := firstParagraph(t, tr)
	link := newNode(KindHyperlink)
	withLink, err := tr.Insert(link, para, 0)
	require.NoError(t, err)

	run := newNode(KindRun)
	run.Text = "x"
	withRun, err := withLink.Insert(run, link.ID, 0)
	require.NoError(t, err)

	ancestors := withRun.Ancestors(run.ID)
	assert.Equal(t, []identity.NodeID{link.ID, para, withRun.Root()}, ancestors)

	enclosing, ok := withRun.EnclosingContainer(run.ID, KindParagraph)
	require.True(t, ok)
	assert.Equal(t, para, enclosing)
}

func TestTableGridInvariant(t *testing.T) {
	tr := New()
	table := newNode(KindTable)
	table.GridColumns = 2

	withTable, err := tr.Insert(table, tr.Root(), 0)
	require.NoError(t, err)

	row := newNode(KindRow)
	withRow, err := withTable.Insert(row, table.ID, 0)
	require.NoError(t, err)

	cellA := newNode(KindCell)
	cellB := newNode(KindCell)
	withCells, err := withRow.Insert(cellA, row.ID, 0)
	require.NoError(t, err)
	withCells, err = withCells.Insert(cellB, row.ID, 1)
	require.NoError(t, err)

	require.NoError(t, withCells.CheckInvariants())

	// Drop the grid to 1 column: now the row's two cells violate it.
	broken := withCells.MustGet(table.ID).clone()
	broken.GridColumns = 1
	badTree := withCells.with(broken)

	err = badTree.CheckInvariants()
	assert.Error(t, err)
}

func TestResolveLeafClampsOffset(t *testing.T) {
	tr := New()
	para := firstParagraph(t, tr)
	run := newNode(KindRun)
	run.Text = "hello"
	withRun, err := tr.Insert(run, para, 0)
	require.NoError(t, err)

	leaf, offset, ok := withRun.ResolveLeaf(Position{Node: run.ID, Offset: 999})
	require.True(t, ok)
	assert.Equal(t, run.ID, leaf.ID)
	assert.Equal(t, 5, offset)
}
