package registry

import (
	"unicode"

	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// MaxBookmarkNameLength bounds a bookmark name (original bookmark
// validation: names must stay short enough to round-trip through every
// downstream reference format).
const MaxBookmarkNameLength = 40

// BookmarkRegistry maps bookmark names to the node they anchor, enforcing
// the original implementation's naming rules: a bookmark name begins with a
// letter, contains only letters, digits and underscores thereafter, is at
// most 40 characters, and is unique within the document.
type BookmarkRegistry struct {
	byName map[string]identity.NodeID
}

// NewBookmarkRegistry creates an empty registry.
func NewBookmarkRegistry() *BookmarkRegistry {
	return &BookmarkRegistry{byName: make(map[string]identity.NodeID)}
}

// Clone returns an independent copy, used by the command layer to snapshot
// the registry before a composite command runs so a mid-sequence failure
// can roll back the name table alongside the discarded tree.
func (r *BookmarkRegistry) Clone() *BookmarkRegistry {
	cp := make(map[string]identity.NodeID, len(r.byName))
	for k, v := range r.byName {
		cp[k] = v
	}
	return &BookmarkRegistry{byName: cp}
}

// Restore replaces this registry's contents with snapshot's, in place,
// since commands hold a shared *BookmarkRegistry pointer rather than a
// copy-on-write value.
func (r *BookmarkRegistry) Restore(snapshot *BookmarkRegistry) {
	r.byName = snapshot.byName
}

// ValidateBookmarkName reports whether name satisfies the naming rules,
// returning a classified error describing the first violation found.
func ValidateBookmarkName(name string) error {
	if name == "" {
		return wderrors.New(wderrors.KindInvalidCommand, "insert_bookmark", "bookmark name must not be empty")
	}
	runes := []rune(name)
	if len(runes) > MaxBookmarkNameLength {
		return wderrors.New(wderrors.KindInvalidCommand, "insert_bookmark", "bookmark name exceeds 40 characters")
	}
	if !unicode.IsLetter(runes[0]) {
		return wderrors.New(wderrors.KindInvalidCommand, "insert_bookmark", "bookmark name must begin with a letter")
	}
	for _, r := range runes[1:] {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return wderrors.New(wderrors.KindInvalidCommand, "insert_bookmark", "bookmark name must contain only letters, digits and underscores")
		}
	}
	return nil
}

// Add registers name as anchored to node, failing if the name is invalid or
// already taken.
func (r *BookmarkRegistry) Add(name string, node identity.NodeID) error {
	if err := ValidateBookmarkName(name); err != nil {
		return err
	}
	if _, exists := r.byName[name]; exists {
		return wderrors.New(wderrors.KindInvalidCommand, "insert_bookmark", "bookmark name already in use: "+name)
	}
	r.byName[name] = node
	return nil
}

// Remove deletes a bookmark by name.
func (r *BookmarkRegistry) Remove(name string) {
	delete(r.byName, name)
}

// Get returns the node a bookmark name is anchored to.
func (r *BookmarkRegistry) Get(name string) (identity.NodeID, bool) {
	id, ok := r.byName[name]
	return id, ok
}

// Rebase retargets every bookmark anchored to `from` onto `to`, used when a
// command replaces the anchor node (e.g. splitting a run the bookmark sits
// inside).
func (r *BookmarkRegistry) Rebase(from, to identity.NodeID) {
	for name, id := range r.byName {
		if id == from {
			r.byName[name] = to
		}
	}
}
