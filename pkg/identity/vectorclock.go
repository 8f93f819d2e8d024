package identity

// VectorClock maps a ClientID to the highest Counter observed from that
// client. It supports pointwise ≤, strict causal precedence, and
// concurrency (spec.md §3). Grounded on the teacher's
// pkg/collaboration/crdt VectorClock, re-keyed from NodeID to ClientID and
// extended with the explicit LessEq/Precedes split the spec calls for.
type VectorClock map[ClientID]Counter

// NewVectorClock returns an empty clock.
func NewVectorClock() VectorClock {
	return make(VectorClock)
}

// Get returns the counter recorded for client, or 0 if unseen.
func (vc VectorClock) Get(client ClientID) Counter {
	return vc[client]
}

// Increment advances the entry for client by one and returns the new OpID
// counter value.
func (vc VectorClock) Increment(client ClientID) Counter {
	vc[client]++
	return vc[client]
}

// Observe stamps the clock with op, taking the maximum per client.
func (vc VectorClock) Observe(op OpID) {
	if op.Counter > vc[op.Client] {
		vc[op.Client] = op.Counter
	}
}

// Clone returns a deep copy.
func (vc VectorClock) Clone() VectorClock {
	out := make(VectorClock, len(vc))
	for k, v := range vc {
		out[k] = v
	}
	return out
}

// Merge updates vc in place with the pointwise maximum of vc and other.
func (vc VectorClock) Merge(other VectorClock) {
	for client, counter := range other {
		if counter > vc[client] {
			vc[client] = counter
		}
	}
}

// LessEq reports whether vc is pointwise ≤ other: every entry in vc is ≤
// the corresponding entry in other (missing entries are 0).
func (vc VectorClock) LessEq(other VectorClock) bool {
	for client, counter := range vc {
		if counter > other[client] {
			return false
		}
	}
	return true
}

// Precedes reports causal precedence: vc ≺ other iff vc is pointwise ≤
// other and strictly less in at least one component.
func (vc VectorClock) Precedes(other VectorClock) bool {
	if !vc.LessEq(other) {
		return false
	}
	for client, counter := range other {
		if counter > vc[client] {
			return true
		}
	}
	return false
}

// Concurrent reports whether neither clock precedes-or-equals the other.
func (vc VectorClock) Concurrent(other VectorClock) bool {
	return !vc.LessEq(other) && !other.LessEq(vc)
}

// Equal reports whether vc and other have identical entries (ignoring
// explicit zero entries).
func (vc VectorClock) Equal(other VectorClock) bool {
	return vc.LessEq(other) && other.LessEq(vc)
}

// Ready reports whether an operation stamped with clock is causally ready
// to apply given the local clock: every entry in clock, except the
// operation's own client entry, must be ≤ local (spec.md §4.4).
func Ready(stamped VectorClock, origin ClientID, local VectorClock) bool {
	for client, counter := range stamped {
		if client == origin {
			continue
		}
		if counter > local[client] {
			return false
		}
	}
	return true
}
