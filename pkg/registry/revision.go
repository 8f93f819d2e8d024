package registry

import (
	"time"

	"github.com/wdcollab/wdcore/pkg/identity"
)

// RevisionState is where a tracked change sits in its accept/reject
// lifecycle.
type RevisionState int

const (
	RevisionPending RevisionState = iota
	RevisionAccepted
	RevisionRejected
)

// RevisionKind is the edit a tracked-change revision records.
type RevisionKind int

const (
	RevisionInsert RevisionKind = iota
	RevisionDelete
	RevisionFormat
	RevisionMove
)

// Revision is a tracked change: who made it, what kind of edit it records,
// which nodes it covers, and whether it has been accepted or rejected.
// Accepting a revision is a no-op on the tree (the edit already applied);
// rejecting one requires the command layer to apply the edit's inverse.
type Revision struct {
	ID        identity.NodeID
	Kind      RevisionKind
	Author    string
	Nodes     []identity.NodeID
	State     RevisionState
	CreatedAt time.Time
}

// RevisionRegistry holds every tracked change pending review in the
// document.
type RevisionRegistry struct {
	revisions map[identity.NodeID]*Revision
}

// NewRevisionRegistry creates an empty registry.
func NewRevisionRegistry() *RevisionRegistry {
	return &RevisionRegistry{revisions: make(map[identity.NodeID]*Revision)}
}

// Add records a new pending revision.
func (r *RevisionRegistry) Add(rev *Revision) identity.NodeID {
	if rev.ID.IsNil() {
		rev.ID = identity.NewNodeID()
	}
	rev.State = RevisionPending
	r.revisions[rev.ID] = rev
	return rev.ID
}

// Get returns a revision by id.
func (r *RevisionRegistry) Get(id identity.NodeID) (*Revision, bool) {
	rev, ok := r.revisions[id]
	return rev, ok
}

// Pending returns every revision still awaiting review.
func (r *RevisionRegistry) Pending() []*Revision {
	var out []*Revision
	for _, rev := range r.revisions {
		if rev.State == RevisionPending {
			out = append(out, rev)
		}
	}
	return out
}

// Accept marks a revision accepted. The caller has already left the edit's
// effect in the tree; accepting only updates bookkeeping.
func (r *RevisionRegistry) Accept(id identity.NodeID) bool {
	rev, ok := r.revisions[id]
	if !ok || rev.State != RevisionPending {
		return false
	}
	rev.State = RevisionAccepted
	return true
}

// Reject marks a revision rejected. The caller is responsible for applying
// the edit's inverse command to the tree before or after calling this.
func (r *RevisionRegistry) Reject(id identity.NodeID) bool {
	rev, ok := r.revisions[id]
	if !ok || rev.State != RevisionPending {
		return false
	}
	rev.State = RevisionRejected
	return true
}
