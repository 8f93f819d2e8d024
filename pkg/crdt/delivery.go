package crdt

import (
	"time"

	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// pendingOp is one remote operation waiting on causal prerequisites it
// hasn't seen yet.
type pendingOp struct {
	op       Operation
	origin   identity.ClientID
	arrived  time.Time
}

// PendingBuffer holds remote operations that arrived before their causal
// dependencies, per spec.md §4.4 "Causal delivery": an operation is safe
// to apply only once the receiver's vector clock dominates everything the
// sender's clock observed except the sender's own next increment
// (identity.Ready formalizes this). Operations are single-threaded through
// one buffer per engine; nothing here is safe for concurrent use from
// multiple goroutines without external locking, matching how the engine
// itself is used.
type PendingBuffer struct {
	items []*pendingOp
}

// NewPendingBuffer creates an empty buffer.
func NewPendingBuffer() *PendingBuffer {
	return &PendingBuffer{}
}

// Enqueue buffers op, attributing it to origin for stale-hole reporting.
func (b *PendingBuffer) Enqueue(op Operation, origin identity.ClientID, now time.Time) {
	b.items = append(b.items, &pendingOp{op: op, origin: origin, arrived: now})
}

// Deliver feeds a freshly-received remote operation through causal
// delivery: if it (and any buffered operations it was blocking) are ready,
// they are applied to the engine immediately; otherwise it joins the
// pending buffer until a later Deliver call satisfies its dependencies.
func (e *Engine) Deliver(op Operation, origin identity.ClientID, now time.Time) error {
	if identity.Ready(op.Stamp, origin, e.vc) {
		if err := e.Apply(op); err != nil {
			return err
		}
		e.drainPending(now)
		return nil
	}
	e.pending.Enqueue(op, origin, now)
	return nil
}

// drainPending repeatedly sweeps the pending buffer, applying any
// operation whose causal prerequisites are now satisfied, until a full
// pass applies nothing.
func (e *Engine) drainPending(now time.Time) {
	for {
		progressed := false
		remaining := make([]*pendingOp, 0, len(e.pending.items))
		for _, p := range e.pending.items {
			if identity.Ready(p.op.Stamp, p.origin, e.vc) {
				_ = e.Apply(p.op)
				progressed = true
				continue
			}
			remaining = append(remaining, p)
		}
		e.pending.items = remaining
		if !progressed {
			return
		}
	}
}

// PendingCount reports how many operations are currently buffered waiting
// on causal prerequisites.
func (e *Engine) PendingCount() int {
	return len(e.pending.items)
}

// CheckStaleHoles returns a KindCausalHole error naming the oldest buffered
// operation's origin once it has waited longer than maxAge, so a host can
// surface "replica X appears stuck" rather than buffering forever. It does
// not remove anything from the buffer: a late-arriving dependency can still
// resolve the hole later.
func (e *Engine) CheckStaleHoles(now time.Time, maxAge time.Duration) error {
	var oldest *pendingOp
	for _, p := range e.pending.items {
		if oldest == nil || p.arrived.Before(oldest.arrived) {
			oldest = p
		}
	}
	if oldest == nil {
		return nil
	}
	if now.Sub(oldest.arrived) > maxAge {
		return wderrors.New(wderrors.KindCausalHole, "Engine.Deliver", "operation buffered past stale-hole timeout").
			WithDetails(oldest.origin)
	}
	return nil
}
