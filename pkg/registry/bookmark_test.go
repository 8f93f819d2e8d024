package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/identity"
)

func TestValidateBookmarkNameRules(t *testing.T) {
	assert.NoError(t, ValidateBookmarkName("intro"))
	assert.NoError(t, ValidateBookmarkName("section_2"))
	assert.Error(t, ValidateBookmarkName(""))
	assert.Error(t, ValidateBookmarkName("2section"))
	assert.Error(t, ValidateBookmarkName("has space"))
	assert.Error(t, ValidateBookmarkName("has-dash"))
	assert.Error(t, ValidateBookmarkName(strings.Repeat("a", 41)))
}

func TestBookmarkRegistryRejectsDuplicateName(t *testing.T) {
	r := NewBookmarkRegistry()
	node := identity.NewNodeID()
	require.NoError(t, r.Add("intro", node))

	err := r.Add("intro", identity.NewNodeID())
	assert.Error(t, err)
}

func TestBookmarkRebaseRetargetsAnchor(t *testing.T) {
	r := NewBookmarkRegistry()
	oldNode := identity.NewNodeID()
	newNode := identity.NewNodeID()
	require.NoError(t, r.Add("intro", oldNode))

	r.Rebase(oldNode, newNode)

	got, ok := r.Get("intro")
	require.True(t, ok)
	assert.Equal(t, newNode, got)
}
