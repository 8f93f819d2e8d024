package command

import (
	"github.com/wdcollab/wdcore/pkg/document"
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/registry"
	"github.com/wdcollab/wdcore/pkg/selection"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// InsertBookmark marks a position with a named bookmark node, grounded on
// the original source's bookmark_commands.rs payload (a selection plus a
// name) and validated by registry.ValidateBookmarkName.
type InsertBookmark struct {
	At   doctree.Position
	Name string
}

func (c InsertBookmark) Apply(principal string, st document.State) (document.State, Command, error) {
	if err := registry.ValidateBookmarkName(c.Name); err != nil {
		return document.State{}, nil, err
	}
	if _, exists := st.Doc.Bookmarks.Get(c.Name); exists {
		return document.State{}, nil, wderrors.New(wderrors.KindInvalidCommand, "InsertBookmark", "bookmark name already in use: "+c.Name)
	}

	leaf, _, ok := st.Doc.Tree.ResolveLeaf(c.At)
	if !ok {
		return document.State{}, nil, wderrors.New(wderrors.KindInvalidCommand, "InsertBookmark", "position does not resolve")
	}
	container, ok := st.Doc.Tree.EnclosingContainer(leaf.ID, doctree.KindParagraph)
	if !ok {
		return document.State{}, nil, wderrors.New(wderrors.KindDocumentModelViolation, "InsertBookmark", "no enclosing paragraph")
	}
	if err := checkLocked(st.Doc, principal, container); err != nil {
		return document.State{}, nil, err
	}

	mark := doctree.NewNode(doctree.KindBookmark)
	mark.BookmarkName = c.Name

	index := 0
	if leaf.Kind != doctree.KindParagraph {
		if p, ok := st.Doc.Tree.Get(container); ok {
			for i, ch := range p.Children {
				if ch == leaf.ID {
					index = i + 1
					break
				}
			}
		}
	}

	nextTree, err := st.Doc.Tree.Insert(mark, container, index)
	if err != nil {
		return document.State{}, nil, err
	}
	if err := st.Doc.Bookmarks.Add(c.Name, mark.ID); err != nil {
		return document.State{}, nil, err
	}

	inverse := removeBookmark{Target: mark.ID, Name: c.Name}
	return document.State{Doc: st.Doc.WithTree(nextTree), Selection: st.Selection}, inverse, nil
}

func (c InsertBookmark) TransformSelection(sel selection.Selection) selection.Selection { return sel }
func (c InsertBookmark) DisplayName() string                                          { return "Insert bookmark" }

// removeBookmark undoes InsertBookmark: detach the node and free its name.
// Unexported: only appears as a computed inverse.
type removeBookmark struct {
	Target identity.NodeID
	Name   string
}

func (c removeBookmark) Apply(principal string, st document.State) (document.State, Command, error) {
	if err := checkLocked(st.Doc, principal, c.Target); err != nil {
		return document.State{}, nil, err
	}
	nextTree, sub, err := st.Doc.Tree.Remove(c.Target)
	if err != nil {
		return document.State{}, nil, err
	}
	st.Doc.Bookmarks.Remove(c.Name)

	inverse := reinsertBookmark{Sub: sub, Parent: sub.FormerParent, Index: sub.FormerIndex, Name: c.Name}
	return document.State{Doc: st.Doc.WithTree(nextTree), Selection: st.Selection}, inverse, nil
}

func (c removeBookmark) TransformSelection(sel selection.Selection) selection.Selection { return sel }
func (c removeBookmark) DisplayName() string                                          { return "Remove bookmark" }

// reinsertBookmark undoes removeBookmark. Unexported: only appears as a
// computed inverse.
type reinsertBookmark struct {
	Sub    *doctree.RemovedSubtree
	Parent identity.NodeID
	Index  int
	Name   string
}

func (c reinsertBookmark) Apply(principal string, st document.State) (document.State, Command, error) {
	if err := checkLocked(st.Doc, principal, c.Parent); err != nil {
		return document.State{}, nil, err
	}
	nextTree, err := st.Doc.Tree.Reinsert(c.Sub, c.Parent, c.Index)
	if err != nil {
		return document.State{}, nil, err
	}
	if err := st.Doc.Bookmarks.Add(c.Name, c.Sub.Root.ID); err != nil {
		return document.State{}, nil, err
	}
	inverse := removeBookmark{Target: c.Sub.Root.ID, Name: c.Name}
	return document.State{Doc: st.Doc.WithTree(nextTree), Selection: st.Selection}, inverse, nil
}

func (c reinsertBookmark) TransformSelection(sel selection.Selection) selection.Selection { return sel }
func (c reinsertBookmark) DisplayName() string                                          { return "Insert bookmark" }
