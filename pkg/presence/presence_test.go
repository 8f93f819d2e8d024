package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/presence/cache"
	"github.com/wdcollab/wdcore/pkg/selection"
)

func TestColorForIsStable(t *testing.T) {
	client := identity.NewClientID()
	assert.Equal(t, ColorFor(client), ColorFor(client))
}

func TestTrackerUpdateAndList(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(cache.NewMemoryCache(100, time.Minute), time.Minute)

	doc := identity.NewNodeID()
	alice := identity.NewClientID()
	bob := identity.NewClientID()
	pos := doctree.Position{Node: identity.NewNodeID(), Offset: 3}

	_, err := tracker.Update(ctx, doc, alice, "Alice", selection.Collapse(pos))
	require.NoError(t, err)
	_, err = tracker.Update(ctx, doc, bob, "Bob", selection.Collapse(pos))
	require.NoError(t, err)

	states, err := tracker.List(ctx, doc)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.NotEqual(t, states[0].Color, "")
}

func TestTrackerRemove(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(cache.NewMemoryCache(100, time.Minute), time.Minute)

	doc := identity.NewNodeID()
	alice := identity.NewClientID()

	_, err := tracker.Update(ctx, doc, alice, "Alice", selection.Selection{})
	require.NoError(t, err)
	require.NoError(t, tracker.Remove(ctx, doc, alice))

	states, err := tracker.List(ctx, doc)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestTrackerGCIdle(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker(cache.NewMemoryCache(100, time.Hour), 10*time.Millisecond)

	doc := identity.NewNodeID()
	alice := identity.NewClientID()

	_, err := tracker.Update(ctx, doc, alice, "Alice", selection.Selection{})
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	removed, err := tracker.GC(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	states, err := tracker.List(ctx, doc)
	require.NoError(t, err)
	assert.Empty(t, states)
}
