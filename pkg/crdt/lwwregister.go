package crdt

import (
	"fmt"
	"sync"

	"github.com/wdcollab/wdcore/pkg/identity"
)

// LWWRegister is a last-write-wins register keyed by OpID rather than wall
// clock time: spec.md §4.4 defines FormatSet's "last" as the greater OpID,
// not the later timestamp, so two replicas converge without relying on
// synchronized clocks. The prior value is retained so applying a FormatSet
// can hand back the value it displaced, letting the caller build the
// inverse FormatSet for undo.
type LWWRegister struct {
	mu    sync.RWMutex
	value any
	prior any
	stamp identity.OpID
}

// NewLWWRegister creates an empty register.
func NewLWWRegister() *LWWRegister {
	return &LWWRegister{}
}

// Set writes value if stamp is greater than the register's current stamp.
// Returns the value that was in the register immediately before this call
// (possibly nil), regardless of whether the write won, so the caller can
// always observe what they are racing against.
func (r *LWWRegister) Set(value any, stamp identity.OpID) (previous any, applied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous = r.value
	if stamp.Greater(r.stamp) || r.stamp.IsZero() {
		r.prior = r.value
		r.value = value
		r.stamp = stamp
		applied = true
	}
	return previous, applied
}

// Get returns the current winning value and the OpID that set it.
func (r *LWWRegister) Get() (any, identity.OpID) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.value, r.stamp
}

// Prior returns the value the current winner displaced, used to build the
// inverse FormatSet operation.
func (r *LWWRegister) Prior() any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prior
}

// Merge keeps whichever of the two registers has the greater OpID stamp.
func (r *LWWRegister) Merge(other StateCRDT) error {
	o, ok := other.(*LWWRegister)
	if !ok {
		return fmt.Errorf("crdt: cannot merge LWWRegister with %T", other)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.stamp.Greater(r.stamp) {
		r.prior = r.value
		r.value = o.value
		r.stamp = o.stamp
	}
	return nil
}

// Clone returns a deep copy.
func (r *LWWRegister) Clone() StateCRDT {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return &LWWRegister{value: r.value, prior: r.prior, stamp: r.stamp}
}

// Type returns the CRDT kind tag.
func (r *LWWRegister) Type() string { return "LWWRegister" }
