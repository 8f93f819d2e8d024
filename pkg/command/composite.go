package command

import (
	"github.com/wdcollab/wdcore/pkg/document"
	"github.com/wdcollab/wdcore/pkg/selection"
)

// Composite bundles several commands into one undo entry. Its inverse runs
// the children's inverses in reverse order (spec.md §4.2).
type Composite struct {
	Name     string
	Children []Command
}

func (c Composite) Apply(principal string, st document.State) (document.State, Command, error) {
	// Bookmarks is the one registry a child command mutates in place rather
	// than copy-on-write; snapshot it so a mid-sequence failure can be
	// rolled back alongside the (automatically discarded) tree.
	bookmarksSnapshot := st.Doc.Bookmarks.Clone()

	cur := st
	inverses := make([]Command, 0, len(c.Children))
	for _, child := range c.Children {
		next, inv, err := child.Apply(principal, cur)
		if err != nil {
			st.Doc.Bookmarks.Restore(bookmarksSnapshot)
			return document.State{}, nil, err
		}
		cur = next
		inverses = append(inverses, inv)
	}

	reversed := make([]Command, len(inverses))
	for i, inv := range inverses {
		reversed[len(inverses)-1-i] = inv
	}

	name := c.Name
	if name == "" {
		name = "Multiple edits"
	}
	return cur, Composite{Name: name, Children: reversed}, nil
}

func (c Composite) TransformSelection(sel selection.Selection) selection.Selection {
	for _, child := range c.Children {
		sel = child.TransformSelection(sel)
	}
	return sel
}

func (c Composite) DisplayName() string {
	if c.Name == "" {
		return "Multiple edits"
	}
	return c.Name
}
