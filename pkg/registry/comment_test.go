package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/identity"
)

func TestCommentThreadIncludesReplies(t *testing.T) {
	r := NewCommentRegistry()
	node := identity.NewNodeID()

	rootID := r.Add(&Comment{Author: "a", Body: "why this wording?", Anchor: doctree.Position{Node: node}})
	r.Add(&Comment{Parent: rootID, Author: "b", Body: "agreed, rewording", Anchor: doctree.Position{Node: node}})

	thread := r.Thread(rootID)
	require.Len(t, thread, 2)
}

func TestCommentResolveMarksRootOnly(t *testing.T) {
	r := NewCommentRegistry()
	rootID := r.Add(&Comment{Author: "a", Body: "x"})
	r.Resolve(rootID)

	got, ok := r.Get(rootID)
	require.True(t, ok)
	assert.True(t, got.Resolved)
}

func TestCommentRebaseRetargetsAnchors(t *testing.T) {
	r := NewCommentRegistry()
	oldNode := identity.NewNodeID()
	newNode := identity.NewNodeID()
	id := r.Add(&Comment{Anchor: doctree.Position{Node: oldNode}, AnchorEnd: doctree.Position{Node: oldNode}})

	r.Rebase(oldNode, newNode)

	got, _ := r.Get(id)
	assert.Equal(t, newNode, got.Anchor.Node)
	assert.Equal(t, newNode, got.AnchorEnd.Node)
}
