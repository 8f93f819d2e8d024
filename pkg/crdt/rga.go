package crdt

import "github.com/wdcollab/wdcore/pkg/identity"

// rgaItem is one character inserted into a text sequence. Tombstone marks
// a deleted character: it stays in the sequence (so later inserts can
// still reference it as a parent) but contributes nothing to the
// materialized text.
type rgaItem struct {
	id        identity.OpID
	parent    identity.OpID // the OpID this char was inserted immediately right of; zero means "sequence start"
	char      rune
	tombstone bool
}

// RGASequence is a Replicated Growable Array: the ordered character
// sequence spec.md §4.4 mandates for text, linearized deterministically on
// every replica without coordination. Placement rule: a new item is
// inserted immediately right of its parent; when several items share a
// parent, the one with the greater OpID sorts first (spec.md §4.4
// "Order").
type RGASequence struct {
	items []rgaItem
	index map[identity.OpID]int
}

// NewRGASequence creates an empty sequence.
func NewRGASequence() *RGASequence {
	return &RGASequence{index: make(map[identity.OpID]int)}
}

// Insert places char at id immediately after parent (the zero OpID means
// "before everything"), breaking ties among siblings by descending OpID.
// Applying the same (id, parent, char) twice is a no-op: RGA inserts are
// naturally idempotent once id is already present.
func (s *RGASequence) Insert(id, parent identity.OpID, char rune) {
	if _, exists := s.index[id]; exists {
		return
	}

	insertAt := 0
	if !parent.IsZero() {
		pos, ok := s.index[parent]
		if !ok {
			// Parent not yet known locally: caller's causal delivery
			// buffer should have prevented this; fail safe by appending
			// at the end rather than corrupting existing indices.
			insertAt = len(s.items)
			s.place(insertAt, rgaItem{id: id, parent: parent, char: char})
			return
		}
		insertAt = pos + 1
	}

	// Among items sharing the same parent, descending-OpID order: walk
	// right from insertAt past every sibling holding a greater OpID than
	// id, together with that sibling's descendants (which sit contiguously
	// to its right), and stop at the first smaller sibling or the first
	// item outside parent's subtree.
	skipped := make(map[identity.OpID]bool)
	for insertAt < len(s.items) {
		cur := s.items[insertAt]
		if cur.parent == parent {
			if !cur.id.Greater(id) {
				break
			}
		} else if !skipped[cur.parent] {
			break
		}
		skipped[cur.id] = true
		insertAt++
	}

	s.place(insertAt, rgaItem{id: id, parent: parent, char: char})
}

func (s *RGASequence) place(at int, item rgaItem) {
	s.items = append(s.items, rgaItem{})
	copy(s.items[at+1:], s.items[at:])
	s.items[at] = item
	for i := at; i < len(s.items); i++ {
		s.index[s.items[i].id] = i
	}
}

// Delete tombstones the character inserted by targetOp. Idempotent:
// deleting an already-tombstoned or unknown item is a no-op (spec.md §4.4
// TextDelete convergence rule).
func (s *RGASequence) Delete(targetOp identity.OpID) {
	pos, ok := s.index[targetOp]
	if !ok {
		return
	}
	s.items[pos].tombstone = true
}

// Text materializes the sequence's live (non-tombstoned) characters in
// order.
func (s *RGASequence) Text() string {
	runes := make([]rune, 0, len(s.items))
	for _, it := range s.items {
		if !it.tombstone {
			runes = append(runes, it.char)
		}
	}
	return string(runes)
}

// OpIDAtRuneOffset returns the OpID of the live character at a given rune
// offset into Text(), used to translate a local text edit (rune-offset
// based) into RGA operations (OpID-based). ok is false if offset is out of
// range.
func (s *RGASequence) OpIDAtRuneOffset(offset int) (identity.OpID, bool) {
	count := 0
	for _, it := range s.items {
		if it.tombstone {
			continue
		}
		if count == offset {
			return it.id, true
		}
		count++
	}
	return identity.OpID{}, false
}

// ParentForInsertAt returns the OpID a new character inserted at rune
// offset should record as its parent: the live character immediately to
// its left, or the zero OpID if offset is 0.
func (s *RGASequence) ParentForInsertAt(offset int) identity.OpID {
	if offset <= 0 {
		return identity.OpID{}
	}
	id, ok := s.OpIDAtRuneOffset(offset - 1)
	if !ok {
		return identity.OpID{}
	}
	return id
}

// Len returns the number of live characters.
func (s *RGASequence) Len() int {
	n := 0
	for _, it := range s.items {
		if !it.tombstone {
			n++
		}
	}
	return n
}
