// Package doctree implements the node arena described in spec.md §4.1: a
// flat map from identifier to node payload, with parent/child relationships
// stored as identifiers rather than owning pointers, so positions,
// selections, bookmarks and history can reference nodes freely without an
// ownership graph (spec.md §9 "tree cycles from reference patterns").
package doctree

import (
	"github.com/wdcollab/wdcore/pkg/identity"
	"github.com/wdcollab/wdcore/pkg/wderrors"
)

// Tree is a value-semantic snapshot of the document: an arena plus the
// root id. Insert/Remove/Move return a *new* Tree; the implementation
// shares unchanged nodes between versions via copy-on-write rather than
// deep-cloning the whole arena, but an old Tree remains fully usable after
// a new one is derived from it (spec.md §4.1 — needed for undo).
type Tree struct {
	nodes map[identity.NodeID]*Node
	root  identity.NodeID
}

// New creates a tree containing only a root Document node with one empty
// Paragraph child (spec.md §8 boundary: "deleting into an empty paragraph
// leaves the paragraph present").
func New() *Tree {
	root := newNode(KindDocument)
	para := newNode(KindParagraph)
	para.Parent = root.ID
	root.Children = []identity.NodeID{para.ID}

	t := &Tree{nodes: map[identity.NodeID]*Node{
		root.ID: root,
		para.ID: para,
	}, root: root.ID}
	return t
}

// NewRooted creates a tree containing only a single node of the given kind
// and id, with no children. Used by the CRDT engine's Materialize step,
// which already knows the root's identity from structural operations and
// builds the tree around it rather than generating a fresh root the way
// New does for a brand new local document.
func NewRooted(rootID identity.NodeID, kind Kind) *Tree {
	root := &Node{ID: rootID, Kind: kind, Parent: identity.NilNodeID}
	return &Tree{nodes: map[identity.NodeID]*Node{rootID: root}, root: rootID}
}

// Rebuild reconstructs a Tree from a flat, pre-order node list (parent
// always appearing before its children) such as Snapshot.FlattenNodes
// produces, so a stored snapshot can be loaded back without persisting the
// arena's internal representation directly.
func Rebuild(nodes []*Node, rootID identity.NodeID) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, wderrors.New(wderrors.KindInvalidCommand, "Rebuild", "empty node list")
	}

	var rootKind Kind
	byID := make(map[identity.NodeID]*Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
		if n.ID == rootID {
			rootKind = n.Kind
		}
	}

	t := NewRooted(rootID, rootKind)
	*t.nodes[rootID] = *byID[rootID]
	t.nodes[rootID].Children = nil

	for _, n := range nodes {
		if n.ID == rootID {
			continue
		}
		clone := *n
		clone.Children = nil
		next, err := t.Insert(&clone, n.Parent, len(t.nodes[n.Parent].Children))
		if err != nil {
			return nil, err
		}
		t = next
	}
	return t, nil
}

// Root returns the document root's id.
func (t *Tree) Root() identity.NodeID { return t.root }

// Get returns a read-only view of a node. The returned pointer must not be
// mutated by callers; use the Tree's mutation methods instead.
func (t *Tree) Get(id identity.NodeID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// MustGet panics if id is absent; reserved for internal invariants that
// insertion/lookup already guaranteed hold.
func (t *Tree) MustGet(id identity.NodeID) *Node {
	n, ok := t.nodes[id]
	if !ok {
		panic("doctree: node " + id.String() + " not found")
	}
	return n
}

// Children returns the ordered child ids of a container node.
func (t *Tree) Children(id identity.NodeID) []identity.NodeID {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return append([]identity.NodeID(nil), n.Children...)
}

// shallowCopy returns a new Tree with its own copy of the node map whose
// entries point at the same nodes (copy-on-write: the caller is expected
// to replace only the entries it mutates via with()).
func (t *Tree) shallowCopy() *Tree {
	nodes := make(map[identity.NodeID]*Node, len(t.nodes))
	for k, v := range t.nodes {
		nodes[k] = v
	}
	return &Tree{nodes: nodes, root: t.root}
}

// with returns a copy of t with the given nodes replaced/added.
func (t *Tree) with(updated ...*Node) *Tree {
	next := t.shallowCopy()
	for _, n := range updated {
		next.nodes[n.ID] = n
	}
	return next
}

// withRemoved returns a copy of t with the given node ids deleted from the
// arena entirely (used once a removed subtree is no longer referenced by
// history — spec.md §3 "Lifecycles").
func (t *Tree) withRemoved(ids ...identity.NodeID) *Tree {
	next := t.shallowCopy()
	for _, id := range ids {
		delete(next.nodes, id)
	}
	return next
}

// Ancestors returns id's ancestor chain starting with its immediate parent
// and ending at the root (exclusive of id itself).
func (t *Tree) Ancestors(id identity.NodeID) []identity.NodeID {
	var out []identity.NodeID
	cur, ok := t.nodes[id]
	if !ok {
		return out
	}
	for !cur.Parent.IsNil() {
		out = append(out, cur.Parent)
		parent, ok := t.nodes[cur.Parent]
		if !ok {
			break
		}
		cur = parent
	}
	return out
}

// IsDescendant reports whether candidate is id or a descendant of id.
func (t *Tree) IsDescendant(id, candidate identity.NodeID) bool {
	if id == candidate {
		return true
	}
	for _, a := range t.Ancestors(candidate) {
		if a == id {
			return true
		}
	}
	return false
}

// EnclosingContainer walks up from id (inclusive) to find the nearest
// ancestor of the given kind, or returns false if none exists.
func (t *Tree) EnclosingContainer(id identity.NodeID, kind Kind) (identity.NodeID, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return identity.NilNodeID, false
	}
	if n.Kind == kind {
		return id, true
	}
	for _, a := range t.Ancestors(id) {
		an, ok := t.nodes[a]
		if ok && an.Kind == kind {
			return a, true
		}
	}
	return identity.NilNodeID, false
}

// childIndex returns the index of child within parent's child list, or -1.
func childIndex(parent *Node, child identity.NodeID) int {
	for i, c := range parent.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// Insert places node as a child of parent at index, validating the child
// whitelist (spec.md §3 invariant 3, §4.1 insert contract). Returns the
// new tree; the caller owns node (it must not already be in the arena).
func (t *Tree) Insert(node *Node, parent identity.NodeID, index int) (*Tree, error) {
	parentNode, ok := t.nodes[parent]
	if !ok {
		return nil, wderrors.New(wderrors.KindInvalidCommand, "Insert", "unknown parent node").WithDetails(parent)
	}
	if !AllowsChild(parentNode.Kind, node.Kind) {
		return nil, wderrors.New(wderrors.KindDocumentModelViolation, "Insert", "child kind not permitted").
			WithDetails(map[string]string{"parent": parentNode.Kind.String(), "child": node.Kind.String()})
	}
	if index < 0 || index > len(parentNode.Children) {
		return nil, wderrors.New(wderrors.KindInvalidCommand, "Insert", "index out of range")
	}

	newNode := node.clone()
	newNode.Parent = parent

	newParent := parentNode.clone()
	children := make([]identity.NodeID, 0, len(newParent.Children)+1)
	children = append(children, newParent.Children[:index]...)
	children = append(children, newNode.ID)
	children = append(children, newParent.Children[index:]...)
	newParent.Children = children

	return t.with(newParent, newNode), nil
}

// RemovedSubtree is the detached subtree returned by Remove, sufficient
// for an inverse command to re-insert it verbatim (spec.md §4.1).
type RemovedSubtree struct {
	Root       *Node
	Descendants map[identity.NodeID]*Node
	FormerParent identity.NodeID
	FormerIndex  int
}

// Remove detaches node from its parent and returns the removed subtree.
// The nodes remain addressable in the returned tree's arena (so in-flight
// positions/bookmarks referencing them still resolve) until eviction
// decides no history entry references them (spec.md §3 "Lifecycles").
func (t *Tree) Remove(node identity.NodeID) (*Tree, *RemovedSubtree, error) {
	n, ok := t.nodes[node]
	if !ok {
		return nil, nil, wderrors.New(wderrors.KindInvalidCommand, "Remove", "unknown node")
	}
	if n.Parent.IsNil() {
		return nil, nil, wderrors.New(wderrors.KindInvalidCommand, "Remove", "cannot remove the document root")
	}
	parentNode, ok := t.nodes[n.Parent]
	if !ok {
		return nil, nil, wderrors.New(wderrors.KindDocumentModelViolation, "Remove", "parent missing from arena")
	}
	idx := childIndex(parentNode, node)
	if idx < 0 {
		return nil, nil, wderrors.New(wderrors.KindDocumentModelViolation, "Remove", "node absent from parent's child list")
	}

	newParent := parentNode.clone()
	newParent.Children = append(append([]identity.NodeID(nil), newParent.Children[:idx]...), newParent.Children[idx+1:]...)

	descendants := t.collectSubtree(node)

	return t.with(newParent), &RemovedSubtree{
		Root:         n.clone(),
		Descendants:  descendants,
		FormerParent: n.Parent,
		FormerIndex:  idx,
	}, nil
}

func (t *Tree) collectSubtree(id identity.NodeID) map[identity.NodeID]*Node {
	out := make(map[identity.NodeID]*Node)
	var walk func(identity.NodeID)
	walk = func(cur identity.NodeID) {
		n, ok := t.nodes[cur]
		if !ok {
			return
		}
		out[cur] = n.clone()
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(id)
	return out
}

// Reinsert restores a previously removed subtree (used by inverse
// Remove/DeleteRange commands). The subtree's internal structure is
// restored exactly; only its attachment point may differ from where it
// was removed.
func (t *Tree) Reinsert(sub *RemovedSubtree, parent identity.NodeID, index int) (*Tree, error) {
	next := t.shallowCopy()
	for id, n := range sub.Descendants {
		next.nodes[id] = n.clone()
	}
	next.nodes[sub.Root.ID] = sub.Root.clone()

	return next.Insert(sub.Root, parent, index)
}

// UpdateNode applies mutate to a clone of node's current payload and stores
// the result, leaving the node's id, parent and children untouched (those
// fields are Insert/Remove/Move's job). Used by the command layer for
// in-place edits like text mutation, character/paragraph formatting, image
// resizing and bookmark naming, where the node's position in the tree does
// not change.
func (t *Tree) UpdateNode(id identity.NodeID, mutate func(*Node)) (*Tree, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, wderrors.New(wderrors.KindInvalidCommand, "UpdateNode", "unknown node").WithDetails(id)
	}
	cp := n.clone()
	mutate(cp)
	cp.ID = n.ID
	cp.Parent = n.Parent
	cp.Children = n.Children
	return t.with(cp), nil
}

// Move relocates node to be a child of newParent at newIndex, forbidding a
// node from moving under its own descendant (spec.md §4.1).
func (t *Tree) Move(node, newParent identity.NodeID, newIndex int) (*Tree, error) {
	if t.IsDescendant(node, newParent) {
		return nil, wderrors.New(wderrors.KindDocumentModelViolation, "Move", "cannot move a node under its own descendant")
	}
	removed, sub, err := t.Remove(node)
	if err != nil {
		return nil, err
	}
	return removed.Reinsert(sub, newParent, newIndex)
}

// Evict permanently deletes node ids from the arena once nothing — not the
// live tree, not any history entry — references them (spec.md §3
// "Lifecycles"). Callers (history) are responsible for determining
// liveness; Evict performs no liveness check itself.
func (t *Tree) Evict(ids ...identity.NodeID) *Tree {
	return t.withRemoved(ids...)
}

// NodeCount returns the number of nodes currently in the arena, including
// ones detached from the live tree but still referenced by history.
func (t *Tree) NodeCount() int {
	return len(t.nodes)
}
