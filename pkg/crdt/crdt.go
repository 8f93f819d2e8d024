// Package crdt implements the operation-based CRDT core described in
// spec.md §4.4: RGA-ordered text and structural operations, causal
// delivery, last-writer-wins formatting, and the supporting state-based
// primitives (grow-only counter, PN-counter, LWW-register, OR-set) that the
// operation layer is built from. Grounded on the teacher's
// pkg/collaboration/crdt package, re-keyed from a generic NodeID to this
// module's identity.ClientID/OpID types.
package crdt

import "github.com/wdcollab/wdcore/pkg/identity"

// StateCRDT is the base interface for the state-based building blocks
// (GCounter, PNCounter, LWWRegister, ORSet) used internally by the
// operation-based core for bookkeeping that benefits from simple,
// commutative merge rather than causal replay.
type StateCRDT interface {
	// Merge combines this CRDT with another, resolving conflicts.
	Merge(other StateCRDT) error
	// Clone creates a deep copy of the CRDT.
	Clone() StateCRDT
	// Type returns the CRDT's kind tag, for diagnostics.
	Type() string
}

// ClientID is a local alias kept for readability inside this package; it
// is identity.ClientID, not a distinct type.
type ClientID = identity.ClientID
