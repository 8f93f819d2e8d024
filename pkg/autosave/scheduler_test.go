package autosave

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wdcollab/wdcore/pkg/identity"
)

func TestSchedulerSavesOnceDirtyAndDebounced(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	docID := identity.NewNodeID()
	var dirty DirtyFlag
	calls := 0
	snap := func(ctx context.Context) ([]byte, int64, error) {
		calls++
		return []byte("snapshot"), int64(calls), nil
	}

	sched := NewScheduler(Config{
		DocID:    docID,
		Interval: 10 * time.Millisecond,
		Debounce: time.Millisecond,
	}, &dirty, store, snap, nil)

	dirty.MarkDirty(time.Now())
	sched.Start(ctx)
	defer sched.Stop()

	require.Eventually(t, func() bool {
		saving, lastSaved, lastErr, saveCount, _ := sched.Status().Snapshot()
		return !saving && lastErr == nil && saveCount >= 1 && !lastSaved.IsZero()
	}, time.Second, 5*time.Millisecond)

	assert.False(t, dirty.Dirty())

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, docID, list[0].DocID)
}

func TestSchedulerSkipsWhenNotDirty(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	var dirty DirtyFlag
	snap := func(ctx context.Context) ([]byte, int64, error) {
		t.Fatal("snapshot should not be called when clean")
		return nil, 0, nil
	}

	sched := NewScheduler(Config{
		DocID:    identity.NewNodeID(),
		Interval: 10 * time.Millisecond,
	}, &dirty, store, snap, nil)

	sched.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	sched.Stop()

	_, _, lastErr, saveCount, _ := sched.Status().Snapshot()
	assert.NoError(t, lastErr)
	assert.Equal(t, int64(0), saveCount)
}
