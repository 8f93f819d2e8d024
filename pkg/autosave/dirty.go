// Package autosave implements spec.md §4.7: a lock-free dirty flag, a
// debounced background scheduler that periodically snapshots a document
// to a recovery location distinct from its save file, and a recovery
// manager that finds and resolves sidecars left behind by a crash.
package autosave

import (
	"sync/atomic"
	"time"
)

// DirtyFlag is the atomic boolean every tree-mutating command flips,
// cleared by a successful save (spec.md §4.7 "Dirty flag. Atomic boolean
// flipped by every tree-mutating command; cleared by a successful save").
// MarkDirty is lock-free, per spec.md §4.7 "mark_dirty updates are
// lock-free atomic".
type DirtyFlag struct {
	dirty       atomic.Bool
	lastDirtyAt atomic.Int64 // unix nanos
}

// MarkDirty records that the document changed at now.
func (f *DirtyFlag) MarkDirty(now time.Time) {
	f.lastDirtyAt.Store(now.UnixNano())
	f.dirty.Store(true)
}

// Clear marks the document clean, e.g. after a successful save.
func (f *DirtyFlag) Clear() {
	f.dirty.Store(false)
}

// Dirty reports whether the document has unsaved changes.
func (f *DirtyFlag) Dirty() bool {
	return f.dirty.Load()
}

// ReadyToSave reports whether the flag is dirty and has been so for at
// least debounce (spec.md §4.7 "dirty && (now - last_dirty_time) >=
// debounce_ms").
func (f *DirtyFlag) ReadyToSave(now time.Time, debounce time.Duration) bool {
	if !f.Dirty() {
		return false
	}
	last := time.Unix(0, f.lastDirtyAt.Load())
	return now.Sub(last) >= debounce
}
