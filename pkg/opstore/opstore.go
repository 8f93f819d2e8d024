// Package opstore persists the operation log and periodic snapshots a
// collaboration session's CRDT engine needs to survive a restart or let a
// reconnecting replica catch up (spec.md §4.4 "Snapshots", §6 "Recovery").
package opstore

import (
	"context"
	"errors"
	"time"

	"github.com/wdcollab/wdcore/pkg/crdt"
	"github.com/wdcollab/wdcore/pkg/identity"
)

// ErrNotFound is returned when a document has no stored snapshot or
// operation history yet.
var ErrNotFound = errors.New("opstore: document not found")

// StoredOperation pairs a CRDT operation with the metadata needed to
// replay it in arrival order independent of its OpID ordering (which is
// per-client, not global).
type StoredOperation struct {
	DocumentID identity.NodeID
	Op         crdt.Operation
	Origin     identity.ClientID
	StoredAt   time.Time
}

// Stats summarizes a document's operation log for autosave/retention
// decisions.
type Stats struct {
	OperationCount   int
	LastSnapshotAt   time.Time
	LastOperationAt  time.Time
	BytesUncompacted int64
}

// Store is the persistence boundary for operation logs and snapshots.
// Implementations must make Append durable before returning, since the
// caller uses a successful Append as its signal that a client's edit
// cannot be lost even if the process crashes immediately after.
type Store interface {
	// Append durably records ops, in the given order, against document.
	Append(ctx context.Context, document identity.NodeID, ops []StoredOperation) error

	// Range returns every stored operation for document whose stamped
	// vector clock is not already reflected in since, in storage order.
	// Passing a nil/empty since returns the full log.
	Range(ctx context.Context, document identity.NodeID, since identity.VectorClock) ([]StoredOperation, error)

	// LatestSnapshot returns the most recently written snapshot for
	// document, or ErrNotFound if none exists yet.
	LatestSnapshot(ctx context.Context, document identity.NodeID) (crdt.Snapshot, error)

	// WriteSnapshot durably records a new snapshot, superseding the
	// previous one for replay purposes (older operations the snapshot
	// already reflects may be compacted away by the implementation, but
	// are not required to be).
	WriteSnapshot(ctx context.Context, document identity.NodeID, snap crdt.Snapshot) error

	// Stats reports log size and recency for a document.
	Stats(ctx context.Context, document identity.NodeID) (Stats, error)
}
