// Package document bundles the tree and its side-table registries into the
// single value the command layer, history and CRDT core all operate on
// (spec.md §3 "Registries": style/numbering/bookmark/comment/revision
// tables the document owns alongside its tree).
package document

import (
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/registry"
	"github.com/wdcollab/wdcore/pkg/selection"
)

// Document is the tree plus every registry keyed alongside it. Like Tree,
// it is value-semantic at the top level: commands receive a Document and
// return a new one. The registries are shared by reference with the
// Document a command received; a command that changes a registry changes
// it in place.
type Document struct {
	Tree        *doctree.Tree
	Styles      *registry.StyleRegistry
	Numbering   *registry.NumberingRegistry
	Bookmarks   *registry.BookmarkRegistry
	Comments    *registry.CommentRegistry
	Revisions   *registry.RevisionRegistry
	Protections *registry.ProtectionRegistry
}

// New creates an empty document: a fresh tree and empty registries.
func New() *Document {
	return &Document{
		Tree:        doctree.New(),
		Styles:      registry.NewStyleRegistry(),
		Numbering:   registry.NewNumberingRegistry(),
		Bookmarks:   registry.NewBookmarkRegistry(),
		Comments:    registry.NewCommentRegistry(),
		Revisions:   registry.NewRevisionRegistry(),
		Protections: registry.NewProtectionRegistry(),
	}
}

// WithTree returns a copy of the document with its tree replaced; the
// registries are shared since only the tree changes on a plain edit.
func (d *Document) WithTree(t *doctree.Tree) *Document {
	next := *d
	next.Tree = t
	return &next
}

// State bundles a Document with the selection a command layer operation
// reads and produces (spec.md §4.2 apply contract: "observes tree+selection
// and returns a new value").
type State struct {
	Doc       *Document
	Selection selection.Selection
}
