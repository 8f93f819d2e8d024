package registry

import (
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// ProtectedRegion marks a subtree as locked against a set of editors (the
// original implementation's form protection: a region can be read by
// anyone but only edited by the principals named in Editors; with Editors
// empty no one may edit and the region is simply read-only). Grounded on the
// original source's region-protection side table, which spec.md's
// distillation folded into the single "LockedRegion" error kind without
// keeping the registry that produces it.
type ProtectedRegion struct {
	ID      identity.NodeID
	Root    identity.NodeID // subtree root the protection covers
	Reason  string
	Editors map[string]bool // empty means no one may edit
}

// ProtectionRegistry holds every protected region in the document.
type ProtectionRegistry struct {
	regions map[identity.NodeID]*ProtectedRegion
}

// NewProtectionRegistry creates an empty registry.
func NewProtectionRegistry() *ProtectionRegistry {
	return &ProtectionRegistry{regions: make(map[identity.NodeID]*ProtectedRegion)}
}

// Protect registers a new protected region.
func (r *ProtectionRegistry) Protect(region *ProtectedRegion) identity.NodeID {
	if region.ID.IsNil() {
		region.ID = identity.NewNodeID()
	}
	r.regions[region.ID] = region
	return region.ID
}

// Unprotect removes a protected region.
func (r *ProtectionRegistry) Unprotect(id identity.NodeID) {
	delete(r.regions, id)
}

// CheckEditable returns a LockedRegion error if target sits under any
// protected region that principal is not an editor of, using tr to test
// ancestry. A nil error means the edit is allowed.
func (r *ProtectionRegistry) CheckEditable(tr *doctree.Tree, target identity.NodeID, principal string) error {
	for _, region := range r.regions {
		if !r.covers(tr, region, target) {
			continue
		}
		if len(region.Editors) == 0 || !region.Editors[principal] {
			return wderrors.New(wderrors.KindLockedRegion, "check_editable", region.Reason).
				WithDetails(region.ID)
		}
	}
	return nil
}

func (r *ProtectionRegistry) covers(tr *doctree.Tree, region *ProtectedRegion, target identity.NodeID) bool {
	if target == region.Root {
		return true
	}
	return tr.IsDescendant(region.Root, target)
}
