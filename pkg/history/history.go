// Package history implements the bounded undo/redo deque described in
// spec.md §4.3: a stack of (forward, inverse) pairs, command-typed
// coalescing of consecutive edits, and capacity-bounded eviction.
package history

import (
	"time"

	"github.com/wdcollab/wdcore/pkg/command"
	"github.com/wdcollab/wdcore/pkg/document"
	"github.com/wdcollab/wdcore/pkg/selection"
)

// DefaultCapacity is the default bound on undo entries (spec.md §4.3).
const DefaultCapacity = 100

// DefaultCoalesceWindow is the default gap under which consecutive
// coalescable commands merge into one undo entry.
const DefaultCoalesceWindow = time.Second

// entry is one undo/redo slot. It may represent several coalesced
// commands: Forwards holds them in application order, Inverses holds their
// inverses in undo order (the most recently applied command's inverse
// first), so undoing the whole entry unwinds it correctly without needing
// to re-derive anything.
type entry struct {
	forwards        []command.Command
	inverses        []command.Command
	selectionBefore selection.Selection
	timestamp       time.Time
	coalesceKey     string
}

func (e *entry) forward() command.Command {
	if len(e.forwards) == 1 {
		return e.forwards[0]
	}
	return command.Composite{Children: append([]command.Command(nil), e.forwards...)}
}

func (e *entry) inverse() command.Command {
	if len(e.inverses) == 1 {
		return e.inverses[0]
	}
	return command.Composite{Children: append([]command.Command(nil), e.inverses...)}
}

// History is a bounded undo/redo deque over a single document.
type History struct {
	undo           []*entry
	redo           []*entry
	capacity       int
	coalesceWindow time.Duration
}

// New creates a history with the given capacity and coalescing window.
func New(capacity int, coalesceWindow time.Duration) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if coalesceWindow <= 0 {
		coalesceWindow = DefaultCoalesceWindow
	}
	return &History{capacity: capacity, coalesceWindow: coalesceWindow}
}

// Record adds a freshly-applied (forward, inverse) pair to the undo stack,
// merging it into the top entry if forward is coalescable with it, and
// drops the redo tail (spec.md §4.3 "new edits after an undo drop the redo
// tail"). now is supplied by the caller rather than read from the clock so
// coalescing is deterministic and testable.
func (h *History) Record(forward, inverse command.Command, selectionBefore selection.Selection, now time.Time) {
	h.redo = nil

	var key string
	if c, ok := forward.(command.Coalescable); ok {
		key = c.CoalesceKey()
	}

	if key != "" && len(h.undo) > 0 {
		top := h.undo[len(h.undo)-1]
		if top.coalesceKey == key && now.Sub(top.timestamp) < h.coalesceWindow {
			top.forwards = append(top.forwards, forward)
			top.inverses = append([]command.Command{inverse}, top.inverses...)
			top.timestamp = now
			return
		}
	}

	h.undo = append(h.undo, &entry{
		forwards:        []command.Command{forward},
		inverses:        []command.Command{inverse},
		selectionBefore: selectionBefore,
		timestamp:       now,
		coalesceKey:     key,
	})
	if len(h.undo) > h.capacity {
		h.undo = h.undo[1:]
	}
}

// CanUndo reports whether there is an entry to undo.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether there is an entry to redo.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Undo applies the top entry's inverse, returning the resulting state and
// the selection to restore. On failure the history is left unchanged (the
// entry is not popped) and the caller's state is returned as-is.
func (h *History) Undo(principal string, st document.State) (document.State, selection.Selection, bool, error) {
	if len(h.undo) == 0 {
		return st, st.Selection, false, nil
	}
	top := h.undo[len(h.undo)-1]

	next, _, err := top.inverse().Apply(principal, st)
	if err != nil {
		return st, st.Selection, false, err
	}

	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, top)
	return next, top.selectionBefore, true, nil
}

// Redo re-applies the top redo entry's forward command.
func (h *History) Redo(principal string, st document.State) (document.State, bool, error) {
	if len(h.redo) == 0 {
		return st, false, nil
	}
	top := h.redo[len(h.redo)-1]

	next, _, err := top.forward().Apply(principal, st)
	if err != nil {
		return st, false, err
	}

	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, top)
	return next, true, nil
}

// Len returns the number of undo entries currently recorded.
func (h *History) Len() int { return len(h.undo) }
