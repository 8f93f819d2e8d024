package command

import (
	"github.com/wdcollab/wdcore/pkg/document"
	"github.com/wdcollab/wdcore/pkg/doctree"
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/selection"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// InsertImage places an image node (a resource handle plus layout) at a
// position, as a sibling the same way a run would be (spec.md §4.2,
// grounded on the original source's image_commands.rs payload shape:
// resource id plus width/height in EMUs).
type InsertImage struct {
	At       doctree.Position
	Resource identity.NodeID
	Layout   doctree.ImageLayout
}

func (c InsertImage) Apply(principal string, st document.State) (document.State, Command, error) {
	leaf, _, ok := st.Doc.Tree.ResolveLeaf(c.At)
	if !ok {
		return document.State{}, nil, wderrors.New(wderrors.KindInvalidCommand, "InsertImage", "position does not resolve")
	}
	container, ok := st.Doc.Tree.EnclosingContainer(leaf.ID, doctree.KindParagraph)
	if !ok {
		return document.State{}, nil, wderrors.New(wderrors.KindDocumentModelViolation, "InsertImage", "no enclosing paragraph")
	}
	if err := checkLocked(st.Doc, principal, container); err != nil {
		return document.State{}, nil, err
	}

	img := doctree.NewNode(doctree.KindImage)
	img.ResourceID = c.Resource
	img.Layout = c.Layout

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

	nextTree, err := st.Doc.Tree.Insert(img, container, index)
	if err != nil {
		return document.State{}, nil, err
	}
	inverse := removeNode{Target: img.ID}
	newSel := selection.Collapse(doctree.Position{Node: img.ID, Offset: 0})
	return document.State{Doc: st.Doc.WithTree(nextTree), Selection: newSel}, inverse, nil
}

func (c InsertImage) TransformSelection(sel selection.Selection) selection.Selection { return sel }
func (c InsertImage) DisplayName() string                                          { return "Insert picture" }

// ResizeImage changes an existing image's layout dimensions.
type ResizeImage struct {
	Target identity.NodeID
	Layout doctree.ImageLayout
}

func (c ResizeImage) Apply(principal string, st document.State) (document.State, Command, error) {
	n, ok := st.Doc.Tree.Get(c.Target)
	if !ok || n.Kind != doctree.KindImage {
		return document.State{}, nil, wderrors.New(wderrors.KindInvalidCommand, "ResizeImage", "target is not an image")
	}
	if err := checkLocked(st.Doc, principal, c.Target); err != nil {
		return document.State{}, nil, err
	}
	prior := n.Layout

	nextTree, err := st.Doc.Tree.UpdateNode(c.Target, func(m *doctree.Node) { m.Layout = c.Layout })
	if err != nil {
		return document.State{}, nil, err
	}
	inverse := ResizeImage{Target: c.Target, Layout: prior}
	return document.State{Doc: st.Doc.WithTree(nextTree), Selection: st.Selection}, inverse, nil
}

func (c ResizeImage) TransformSelection(sel selection.Selection) selection.Selection { return sel }
func (c ResizeImage) DisplayName() string                                          { return "Resize picture" }
