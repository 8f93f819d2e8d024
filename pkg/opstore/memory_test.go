package opstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wdcollab/wdcore/pkg/crdt"
	"github.com/wdcollab/wdcore/pkg/identity"
)

func TestMemoryStoreAppendAndRange(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	doc := identity.NewNodeID()

	clientA := identity.ClientID("a")
	op1 := StoredOperation{DocumentID: doc, Op: crdt.Operation{ID: identity.OpID{Client: clientA, Counter: 1}}, Origin: clientA, StoredAt: time.Now()}
	op2 := StoredOperation{DocumentID: doc, Op: crdt.Operation{ID: identity.OpID{Client: clientA, Counter: 2}}, Origin: clientA, StoredAt: time.Now()}

	require.NoError(t, store.Append(ctx, doc, []StoredOperation{op1, op2}))

	all, err := store.Range(ctx, doc, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	since := identity.NewVectorClock()
	since.Observe(op1.Op.ID)
	tail, err := store.Range(ctx, doc, since)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, op2.Op.ID, tail[0].Op.ID)
}

func TestMemoryStoreSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	doc := identity.NewNodeID()

	_, err := store.LatestSnapshot(ctx, doc)
	assert.ErrorIs(t, err, ErrNotFound)

	snap := crdt.Snapshot{Version: 1, Clock: identity.NewVectorClock()}
	require.NoError(t, store.WriteSnapshot(ctx, doc, snap))

	got, err := store.LatestSnapshot(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	doc := identity.NewNodeID()

	clientA := identity.ClientID("a")
	op := StoredOperation{DocumentID: doc, Op: crdt.Operation{ID: identity.OpID{Client: clientA, Counter: 1}}, Origin: clientA, StoredAt: time.Now()}
	require.NoError(t, store.Append(ctx, doc, []StoredOperation{op}))
	require.NoError(t, store.WriteSnapshot(ctx, doc, crdt.Snapshot{Version: 1, Clock: identity.NewVectorClock()}))

	stats, err := store.Stats(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.OperationCount)
	assert.False(t, stats.LastSnapshotAt.IsZero())
}
