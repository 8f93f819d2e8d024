package crdt

import (
	"fmt"
	"sync"
)

// PNCounter supports both increment and decrement, built from two
// GCounters: one tallies increments, the other decrements.
type PNCounter struct {
	mu       sync.RWMutex
	positive *GCounter
	negative *GCounter
}

// NewPNCounter creates a zero-valued PN-Counter.
func NewPNCounter() *PNCounter {
	return &PNCounter{
		positive: NewGCounter(),
		negative: NewGCounter(),
	}
}

// Increment raises the counter attributed to client.
func (p *PNCounter) Increment(client ClientID, delta uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.positive.Increment(client, delta)
}

// Decrement lowers the counter attributed to client.
func (p *PNCounter) Decrement(client ClientID, delta uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.negative.Increment(client, delta)
}

// Value returns the current value (positive - negative)
func (p *PNCounter) Value() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	
	return int64(p.positive.Value()) - int64(p.negative.Value())
}

// Merge combines this counter with another, taking the pointwise maximum
// of each half independently.
func (p *PNCounter) Merge(other StateCRDT) error {
	o, ok := other.(*PNCounter)
	if !ok {
		return fmt.Errorf("crdt: cannot merge PNCounter with %T", other)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.positive.Merge(o.positive); err != nil {
		return fmt.Errorf("crdt: merging positive half: %w", err)
	}
	if err := p.negative.Merge(o.negative); err != nil {
		return fmt.Errorf("crdt: merging negative half: %w", err)
	}
	return nil
}

// Clone returns a deep copy.
func (p *PNCounter) Clone() StateCRDT {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return &PNCounter{
		positive: p.positive.Clone().(*GCounter),
		negative: p.negative.Clone().(*GCounter),
	}
}

// Type returns the CRDT kind tag.
func (p *PNCounter) Type() string { return "PNCounter" }