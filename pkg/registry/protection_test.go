package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

func TestProtectionBlocksEditUnderRegion(t *testing.T) {
	tr := doctree.New()
	root := tr.MustGet(tr.Root())
	para := root.Children[0]

	pr := NewProtectionRegistry()
	pr.Protect(&ProtectedRegion{Root: para, Reason: "form field locked"})

	err := pr.CheckEditable(tr, para, "alice")
	require.Error(t, err)
	assert.True(t, wderrors.Is(err, wderrors.KindLockedRegion))
}

func TestProtectionAllowsNamedEditor(t *testing.T) {
	tr := doctree.New()
	root := tr.MustGet(tr.Root())
	para := root.Children[0]

	pr := NewProtectionRegistry()
	pr.Protect(&ProtectedRegion{Root: para, Reason: "reviewer only", Editors: map[string]bool{"alice": true}})

	assert.NoError(t, pr.CheckEditable(tr, para, "alice"))
	assert.Error(t, pr.CheckEditable(tr, para, "bob"))
}

func TestProtectionUnprotectRemovesRestriction(t *testing.T) {
	tr := doctree.New()
	pr := NewProtectionRegistry()
	pr.Protect(&ProtectedRegion{Root: tr.Root(), Reason: "whole doc locked", Editors: map[string]bool{}})

	// Unprotect removes the restriction entirely.
	for k := range pr.regions {
		pr.Unprotect(k)
	}
	assert.NoError(t, pr.CheckEditable(tr, tr.Root(), "anyone"))
}
