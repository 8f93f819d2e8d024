package autosave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDirtyFlagReadyToSave(t *testing.T) {
	var flag DirtyFlag
	now := time.Now()

	assert.False(t, flag.ReadyToSave(now, time.Second))

	flag.MarkDirty(now)
	assert.True(t, flag.Dirty())
	assert.False(t, flag.ReadyToSave(now, time.Second), "debounce window not yet elapsed")
	assert.True(t, flag.ReadyToSave(now.Add(2*time.Second), time.Second))

	flag.Clear()
	assert.False(t, flag.Dirty())
	assert.False(t, flag.ReadyToSave(now.Add(2*time.Second), time.Second))
}
