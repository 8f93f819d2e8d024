package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestORSetAddRemove(t *testing.T) {
	s := NewORSet()
	assert.False(t, s.Contains("n1"))

	s.Add("n1")
	assert.True(t, s.Contains("n1"))
	assert.Equal(t, 1, s.Size())

	s.Remove("n1")
	assert.False(t, s.Contains("n1"))
}

func TestORSetConcurrentAddWinsOverRemove(t *testing.T) {
	// Replica A observes only the first add; replica B adds again
	// concurrently with A's remove. The remove only strips tags A has
	// observed, so the element survives on merge - this is what lets a
	// concurrently-reparented structural node survive a StructureDelete
	// of its former container (spec.md §4.4).
	a := NewORSet()
	tag := a.Add("n1")
	_ = tag

	b := a.Clone().(*ORSet)
	b.Add("n1") // concurrent second add, different tag

	a.Remove("n1") // A removes based on what it had observed

	require.NoError(t, a.Merge(b))
	assert.True(t, a.Contains("n1"))
}

func TestORSetMergeWrongType(t *testing.T) {
	s := NewORSet()
	err := s.Merge(NewGCounter())
	assert.Error(t, err)
}

func TestORSetElements(t *testing.T) {
	s := NewORSet()
	s.Add("a")
	s.Add("b")
	s.Remove("a")

	assert.ElementsMatch(t, []string{"b"}, s.Elements())
}
