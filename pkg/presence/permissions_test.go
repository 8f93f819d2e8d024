package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

func TestPermissionsGrantAndCheck(t *testing.T) {
	perms := NewPermissions()
	doc := identity.NewNodeID()

	perms.Grant(doc, "alice", CapabilityEdit)

	assert.NoError(t, perms.CheckCommand(doc, "alice", "InsertText"))
	assert.NoError(t, perms.Check(doc, "alice", CapabilityComment, "Comment"))

	err := perms.Check(doc, "alice", CapabilityAdmin, "DeleteDocument")
	assert.Error(t, err)
	assert.True(t, wderrors.Is(err, wderrors.KindPermissionDenied))
}

func TestPermissionsUngrantedPrincipalDenied(t *testing.T) {
	perms := NewPermissions()
	doc := identity.NewNodeID()

	err := perms.CheckOperation(doc, "mallory")
	assert.Error(t, err)
	assert.True(t, wderrors.Is(err, wderrors.KindPermissionDenied))
}

func TestPermissionsRevoke(t *testing.T) {
	perms := NewPermissions()
	doc := identity.NewNodeID()

	perms.Grant(doc, "alice", CapabilityAdmin)
	assert.NoError(t, perms.CheckCommand(doc, "alice", "InsertText"))

	perms.Revoke(doc, "alice")
	assert.Error(t, perms.CheckCommand(doc, "alice", "InsertText"))
}

func TestCapabilitySatisfies(t *testing.T) {
	assert.True(t, CapabilityAdmin.Satisfies(CapabilityEdit))
	assert.True(t, CapabilityEdit.Satisfies(CapabilityEdit))
	assert.False(t, CapabilityRead.Satisfies(CapabilityEdit))
}
