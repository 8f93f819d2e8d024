package doctree

import "github.com/wdcollab/wdcore/pkg/identity"

// CharProps holds character-level direct formatting overlaid on a run's
// resolved style (spec.md §3 style registry: "overlaying direct
// formatting last").
type CharProps struct {
	Bold      bool
	Italic    bool
	Underline bool
	StyleID   identity.NodeID // character style, zero if none
}

// ParaProps holds paragraph-level direct formatting.
type ParaProps struct {
	Alignment string
	StyleID   identity.NodeID
	NumberingInstanceID identity.NodeID // zero if not a list item
	NumberingLevel      int
}

// ImageLayout holds the subset of image layout properties the core owns;
// pagination/rendering (out of scope) own the rest.
type ImageLayout struct {
	WidthEMU  int64
	HeightEMU int64
}

// Node is one arena entry. Only the fields relevant to Kind are
// meaningful; this mirrors a tagged union without needing a type switch on
// every read (spec.md §9 "polymorphic commands" applies equally to nodes).
type Node struct {
	ID       identity.NodeID
	Kind     Kind
	Parent   identity.NodeID // NilNodeID for the document root
	Children []identity.NodeID

	// Run
	Text  string
	Props CharProps

	// Paragraph
	ParaProps ParaProps

	// Hyperlink
	Target string

	// Image
	ResourceID identity.NodeID
	Layout     ImageLayout

	// Table
	GridColumns int

	// Row / Cell
	GridSpan int

	// Bookmark
	BookmarkName string
}

// clone returns a deep copy of n (the arena is value-semantic; commands
// receive a read-only view and mutate copies — spec.md §4.1).
func (n *Node) clone() *Node {
	cp := *n
	cp.Children = append([]identity.NodeID(nil), n.Children...)
	return &cp
}

func newNode(kind Kind) *Node {
	return &Node{ID: identity.NewNodeID(), Kind: kind, Parent: identity.NilNodeID}
}

// NewNode creates a detached node of the given kind with a fresh id, ready
// to pass to Tree.Insert. Exported for the command layer, which builds the
// nodes each typed command introduces.
func NewNode(kind Kind) *Node {
	return newNode(kind)
}
