package opstore

import (
	"context"
	"sync"
	"time"

	"github.com/wdcollab/wdcore/pkg/crdt"
	"github.com/wdcollab/wdcore/pkg/identity"
)

// MemoryStore is an in-process Store, useful for tests and for running a
// single-process session host without a database. It is safe for
// concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	ops       map[identity.NodeID][]StoredOperation
	snapshots map[identity.NodeID]crdt.Snapshot
	snapAt    map[identity.NodeID]time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ops:       make(map[identity.NodeID][]StoredOperation),
		snapshots: make(map[identity.NodeID]crdt.Snapshot),
		snapAt:    make(map[identity.NodeID]time.Time),
	}
}

func (m *MemoryStore) Append(ctx context.Context, document identity.NodeID, ops []StoredOperation) error {
	if len(ops) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[document] = append(m.ops[document], ops...)
	return nil
}

func (m *MemoryStore) Range(ctx context.Context, document identity.NodeID, since identity.VectorClock) ([]StoredOperation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.ops[document]
	if len(since) == 0 {
		out := make([]StoredOperation, len(all))
		copy(out, all)
		return out, nil
	}

	out := make([]StoredOperation, 0, len(all))
	for _, stored := range all {
		if stored.Op.ID.Counter > since.Get(stored.Op.ID.Client) {
			out = append(out, stored)
		}
	}
	return out, nil
}

func (m *MemoryStore) LatestSnapshot(ctx context.Context, document identity.NodeID) (crdt.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.snapshots[document]
	if !ok {
		return crdt.Snapshot{}, ErrNotFound
	}
	return snap, nil
}

func (m *MemoryStore) WriteSnapshot(ctx context.Context, document identity.NodeID, snap crdt.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[document] = snap
	m.snapAt[document] = time.Now()
	return nil
}

func (m *MemoryStore) Stats(ctx context.Context, document identity.NodeID) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ops := m.ops[document]
	stats := Stats{OperationCount: len(ops), LastSnapshotAt: m.snapAt[document]}
	for _, op := range ops {
		if op.StoredAt.After(stats.LastOperationAt) {
			stats.LastOperationAt = op.StoredAt
		}
		stats.BytesUncompacted += approxOperationSize(op.Op)
	}
	return stats, nil
}

// approxOperationSize gives a rough per-operation byte estimate for
// retention/compaction heuristics, without requiring a real encoder.
func approxOperationSize(op crdt.Operation) int64 {
	const base = 64 // fixed-width fields: ids, kind tag, counters
	return base + int64(len(op.Attribute))
}
