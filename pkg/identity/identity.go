// Package identity provides the node, client and operation identifiers
// shared across the document tree, the command layer and the CRDT core.
package identity

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NodeID is a 128-bit opaque identifier generated at node creation and
// never reused (spec.md §3 "Identifiers").
type NodeID uuid.UUID

// NilNodeID is the zero value, used for "no node" / root-parent sentinels.
var NilNodeID = NodeID(uuid.Nil)

// NewNodeID generates a fresh, globally unique node identifier.
func NewNodeID() NodeID {
	return NodeID(uuid.New())
}

func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero value.
func (id NodeID) IsNil() bool {
	return id == NilNodeID
}

// MarshalJSON renders NodeID as its canonical UUID string rather than the
// byte array its underlying type would otherwise produce, so stored
// operations and snapshots stay human-readable.
func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON parses a canonical UUID string back into id.
func (id *NodeID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseNodeID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseNodeID parses a canonical UUID string into a NodeID.
func ParseNodeID(s string) (NodeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilNodeID, fmt.Errorf("identity: invalid node id %q: %w", s, err)
	}
	return NodeID(u), nil
}

// ClientID identifies a collaborating replica (one per editing session).
// Vector clocks and OpIDs are keyed on it.
type ClientID string

// NewClientID derives a random, stable-for-the-session client identifier.
func NewClientID() ClientID {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing means the platform's entropy source is
		// broken; fall back to a uuid4 which has its own source.
		return ClientID(uuid.NewString())
	}
	return ClientID(hex.EncodeToString(b[:]))
}

// Counter is a strictly monotonic per-client integer.
type Counter uint64

// OpID is the identity and tiebreaker for every CRDT operation: (ClientID,
// Counter). It is totally ordered first by Counter, then by ClientID, so
// any two replicas resolve concurrent operations to the same order without
// coordination (spec.md §3, §4.4 RGA discipline).
type OpID struct {
	Client  ClientID
	Counter Counter
}

// Less reports whether id sorts strictly before other under the OpID total
// order: greater counter wins ties in the RGA discipline, so the natural
// sequence order is descending by (Counter, Client). Less here is the
// straightforward ascending comparator; callers doing RGA placement use
// Greater below for "comes first" semantics.
func (id OpID) Less(other OpID) bool {
	if id.Counter != other.Counter {
		return id.Counter < other.Counter
	}
	return id.Client < other.Client
}

// Greater reports whether id sorts strictly after other.
func (id OpID) Greater(other OpID) bool {
	return other.Less(id)
}

// IsZero reports whether id is the unset zero value.
func (id OpID) IsZero() bool {
	return id.Client == "" && id.Counter == 0
}

func (id OpID) String() string {
	return fmt.Sprintf("%s:%d", id.Client, id.Counter)
}

// Clock is a per-client logical counter. It mints strictly increasing OpIDs
// for operations originated by this client.
type Clock struct {
	client  ClientID
	counter Counter
}

// NewClock creates a clock for the given client starting at counter 0.
func NewClock(client ClientID) *Clock {
	return &Clock{client: client}
}

// Client returns the clock's owning client id.
func (c *Clock) Client() ClientID {
	return c.client
}

// Next mints the next OpID for this client, incrementing the counter.
func (c *Clock) Next() OpID {
	c.counter++
	return OpID{Client: c.client, Counter: c.counter}
}

// Current returns the highest counter minted so far.
func (c *Clock) Current() Counter {
	return c.counter
}

// Observe advances the local counter if a remote operation from this same
// client is observed with a higher counter than previously known (used when
// replaying the log during recovery so a resumed clock does not reuse
// counters).
func (c *Clock) Observe(counter Counter) {
	if counter > c.counter {
		c.counter = counter
	}
}
